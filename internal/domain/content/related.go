package content

import (
	"strings"
	"time"
)

// Related-content sizes for desktop and mobile layouts.
const (
	MonthlyRelatedDesktop = 3
	MonthlyRelatedMobile  = 2
	NotesPageMonthly      = 1
	NotesRelatedDesktop   = 6
	NotesRelatedMobile    = 4
	PyqRelatedDesktop     = 4
	PyqRelatedMobile      = 3
)

type QuizMatch string

const (
	QuizMatchToday   QuizMatch = "today"
	QuizMatchSameDay QuizMatch = "same-day"
	QuizMatchLatest  QuizMatch = "latest"
)

type RelatedItem struct {
	Type   Type   `json:"type"`
	ID     string `json:"id,omitempty"`
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	CADate string `json:"caDate,omitempty"`
}

type RelatedQuiz struct {
	RelatedItem
	QuizDate  string    `json:"quizDate,omitempty"`
	MatchType QuizMatch `json:"matchType"`
}

type PyqSummary struct {
	ID            string `json:"id"`
	Slug          string `json:"slug"`
	Title         string `json:"title"`
	Exam          string `json:"exam,omitempty"`
	Year          int    `json:"year,omitempty"`
	QuestionCount int    `json:"questionCount"`
	Subject       string `json:"subject,omitempty"`
}

// Bundle is the computed set of cross-links shown with a page.
type Bundle struct {
	CurrentAffairs []RelatedItem `json:"currentAffairs"`
	ImportantNotes []RelatedItem `json:"importantNotes"`
	Quizzes        []RelatedQuiz `json:"quizzes"`
	Pyqs           []PyqSummary  `json:"pyqs"`
	Manual         bool          `json:"manual,omitempty"`
}

func EmptyBundle() Bundle {
	return Bundle{
		CurrentAffairs: []RelatedItem{},
		ImportantNotes: []RelatedItem{},
		Quizzes:        []RelatedQuiz{},
		Pyqs:           []PyqSummary{},
	}
}

// ManualBundle returns pinned refs verbatim, split into current affairs and notes.
func ManualBundle(manualCA, manualNotes []RelatedRef) Bundle {
	b := EmptyBundle()
	b.Manual = true
	for _, r := range manualCA {
		b.CurrentAffairs = append(b.CurrentAffairs, RelatedItem{Type: r.Type, Slug: r.Slug, Title: r.Title})
	}
	for _, r := range manualNotes {
		b.ImportantNotes = append(b.ImportantNotes, RelatedItem{Type: r.Type, Slug: r.Slug, Title: r.Title})
	}
	return b
}

// SplitManual separates a document's pinned refs into CA and notes lists.
func SplitManual(refs []RelatedRef) (ca, notes []RelatedRef) {
	for _, r := range refs {
		switch r.Type {
		case TypeDaily, TypeMonthly:
			ca = append(ca, r)
		case TypeNotes:
			notes = append(notes, r)
		}
	}
	return ca, notes
}

// DailyCandidateDays picks the two days to link from a daily page dated page,
// given today. Both are calendar days; the page's own day is never included.
func DailyCandidateDays(page, today time.Time) [2]time.Time {
	t0 := dayOnly(today)
	t1 := t0.AddDate(0, 0, -1)
	t2 := t0.AddDate(0, 0, -2)
	switch p := dayOnly(page); {
	case p.Equal(t0):
		return [2]time.Time{t1, t2}
	case p.Equal(t1):
		return [2]time.Time{t0, t2}
	default:
		return [2]time.Time{t0, t1}
	}
}

// MonthlyLimit is N for monthly-selection pages.
func MonthlyLimit(pageType Type, mobile bool) int {
	if pageType == TypeNotes {
		return NotesPageMonthly
	}
	if mobile {
		return MonthlyRelatedMobile
	}
	return MonthlyRelatedDesktop
}

// ExcludeDay drops items whose date equals pageDay and caps the result at n.
func ExcludeDay(items []RelatedItem, pageDay string, n int) []RelatedItem {
	out := make([]RelatedItem, 0, n)
	for _, it := range items {
		if pageDay != "" && it.CADate == pageDay {
			continue
		}
		if len(out) == n {
			break
		}
		out = append(out, it)
	}
	return out
}

// DedupeQuizzes keeps the first occurrence of each id.
func DedupeQuizzes(in []RelatedQuiz) []RelatedQuiz {
	seen := map[string]bool{}
	out := make([]RelatedQuiz, 0, len(in))
	for _, q := range in {
		key := q.ID
		if key == "" {
			key = q.Slug
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, q)
	}
	return out
}

// TrimForMobile cuts a desktop-sized bundle down to mobile sizes.
func TrimForMobile(b Bundle, pageType Type) Bundle {
	out := b
	switch pageType {
	case TypeMonthly:
		out.CurrentAffairs = capItems(b.CurrentAffairs, MonthlyRelatedMobile)
	}
	out.ImportantNotes = capItems(b.ImportantNotes, NotesRelatedMobile)
	if len(b.Pyqs) > PyqRelatedMobile {
		out.Pyqs = append([]PyqSummary{}, b.Pyqs[:PyqRelatedMobile]...)
	}
	return out
}

func capItems(items []RelatedItem, n int) []RelatedItem {
	if len(items) <= n {
		return items
	}
	return append([]RelatedItem{}, items[:n]...)
}

// CacheKey normalizes the cache key for an automatic resolution.
func CacheKey(pageType Type, pageDay, subject string) string {
	return string(pageType) + "|" + strings.TrimSpace(pageDay) + "|" + strings.ToLower(strings.TrimSpace(subject))
}

func dayOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ItemOf maps a stored document into a related link.
func ItemOf(d *Document) RelatedItem {
	return RelatedItem{Type: d.Type, ID: d.ID, Slug: d.Slug, Title: d.Title, CADate: d.AnchorDay}
}

// PyqSummaryOf maps a stored pyq document into its light summary.
func PyqSummaryOf(d *Document) PyqSummary {
	s := PyqSummary{ID: d.ID, Slug: d.Slug, Title: d.Title, Subject: d.Subject}
	if m, ok := d.Meta.Meta.(PyqMeta); ok {
		s.Exam = m.Exam
		s.Year = m.Year
		s.QuestionCount = m.QuestionCount
		if s.Subject == "" {
			s.Subject = m.Subject
		}
	}
	return s
}
