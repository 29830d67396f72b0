package content

import "strings"

// Type is fixed at creation.
type Type string

const (
	TypeDaily   Type = "daily"
	TypeMonthly Type = "monthly"
	TypeNotes   Type = "notes"
	TypeQuiz    Type = "quiz"
	TypePyq     Type = "pyq"
)

var AllTypes = []Type{TypeDaily, TypeMonthly, TypeNotes, TypeQuiz, TypePyq}

func ParseType(raw string) (Type, bool) {
	switch t := Type(strings.ToLower(strings.TrimSpace(raw))); t {
	case TypeDaily, TypeMonthly, TypeNotes, TypeQuiz, TypePyq:
		return t, true
	default:
		return "", false
	}
}

// Collection is both the storage partition and the slug uniqueness scope.
// Daily and monthly current affairs share one namespace.
type Collection string

const (
	CollectionCurrentAffairs Collection = "current_affairs"
	CollectionNotes          Collection = "notes"
	CollectionQuizzes        Collection = "quizzes"
	CollectionPyqs           Collection = "pyqs"
)

func (t Type) Collection() Collection {
	switch t {
	case TypeDaily, TypeMonthly:
		return CollectionCurrentAffairs
	case TypeNotes:
		return CollectionNotes
	case TypeQuiz:
		return CollectionQuizzes
	case TypePyq:
		return CollectionPyqs
	default:
		return ""
	}
}

type Status string

const (
	StatusDraft     Status = "draft"
	StatusReview    Status = "review"
	StatusScheduled Status = "scheduled"
	StatusPublished Status = "published"
	StatusRejected  Status = "rejected"
	StatusHidden    Status = "hidden"
)

func ParseStatus(raw string) (Status, bool) {
	switch s := Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case StatusDraft, StatusReview, StatusScheduled, StatusPublished, StatusRejected, StatusHidden:
		return s, true
	default:
		return "", false
	}
}

// Quiz categories used by related-content matching.
const (
	QuizCategoryDailyCA   = "Daily CA"
	QuizCategoryMonthlyCA = "Monthly CA"
)

// DayLayout is the storage and wire format of anchor dates.
const DayLayout = "2006-01-02"
