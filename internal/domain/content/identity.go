package content

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/examprep-backend/internal/platform/apierr"
)

// Suggestion is a proposed identity for a document that does not exist yet.
type Suggestion struct {
	DocID  string `json:"docId"`
	Slug   string `json:"slug"`
	Title  string `json:"title"`
	CADate string `json:"caDate,omitempty"`
}

// IDGenerator produces ids for types without a natural key.
type IDGenerator func() string

func UUIDGenerator() string { return uuid.NewString() }

// SuggestIdentity derives docId/slug/title from a date (daily, monthly) or
// free text (notes, quiz, pyq). It is deterministic except for generated ids.
func SuggestIdentity(t Type, date time.Time, freeText string, gen IDGenerator) (Suggestion, error) {
	const op = "content.SuggestIdentity"
	if gen == nil {
		gen = UUIDGenerator
	}
	freeText = strings.TrimSpace(freeText)
	switch t {
	case TypeDaily:
		if date.IsZero() {
			return Suggestion{}, apierr.Validation(apierr.CodeInvalidInput, op, "date is required for daily current affairs")
		}
		title := LongDate(date) + " Current Affairs"
		return Suggestion{
			DocID:  date.Format(DayLayout),
			Slug:   Slugify(title),
			Title:  title,
			CADate: date.Format(DayLayout),
		}, nil
	case TypeMonthly:
		if date.IsZero() {
			return Suggestion{}, apierr.Validation(apierr.CodeInvalidInput, op, "date is required for monthly current affairs")
		}
		first := FirstOfMonth(date)
		title := fmt.Sprintf("%s %d Monthly Current Affairs", first.Month().String(), first.Year())
		return Suggestion{
			DocID:  fmt.Sprintf("%s-%d-Monthly-CA", first.Format("Jan"), first.Year()),
			Slug:   Slugify(title),
			Title:  title,
			CADate: first.Format(DayLayout),
		}, nil
	case TypeNotes:
		if freeText == "" {
			return Suggestion{}, apierr.Validation(apierr.CodeInvalidInput, op, "a title is required for notes")
		}
		return Suggestion{DocID: NormalizeDocID(freeText), Slug: Slugify(freeText), Title: freeText}, nil
	case TypePyq:
		if freeText == "" {
			return Suggestion{DocID: gen()}, nil
		}
		return Suggestion{DocID: NormalizeDocID(freeText), Slug: Slugify(freeText), Title: freeText}, nil
	case TypeQuiz:
		return Suggestion{DocID: gen(), Slug: Slugify(freeText), Title: freeText}, nil
	default:
		return Suggestion{}, apierr.Validation(apierr.CodeInvalidInput, op, fmt.Sprintf("unknown content type %q", t))
	}
}

// LongDate renders "14 January 2026".
func LongDate(d time.Time) string {
	return fmt.Sprintf("%d %s %d", d.Day(), d.Month().String(), d.Year())
}

func FirstOfMonth(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Day truncates t to its calendar day in loc and returns it as a UTC midnight.
func Day(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	l := t.In(loc)
	return time.Date(l.Year(), l.Month(), l.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay accepts YYYY-MM-DD.
func ParseDay(raw string) (time.Time, error) {
	return time.Parse(DayLayout, strings.TrimSpace(raw))
}
