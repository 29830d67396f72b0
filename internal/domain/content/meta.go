package content

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Meta carries the per-type metadata. Exactly one variant exists per Type.
type Meta interface {
	Kind() Type
	validate() error
}

type DailyMeta struct {
	CADate string `json:"caDate"`
}

// MonthlyMeta.CADate is always the first day of the month.
type MonthlyMeta struct {
	CADate string `json:"caDate"`
}

type NotesMeta struct {
	Subject string   `json:"subject"`
	Tags    []string `json:"tags,omitempty"`
}

type QuizMeta struct {
	QuizDate      string `json:"quizDate"`
	Category      string `json:"category"`
	QuestionCount int    `json:"questionCount"`
}

type PyqMeta struct {
	Exam          string `json:"exam"`
	Year          int    `json:"year"`
	QuestionCount int    `json:"questionCount"`
	Subject       string `json:"subject,omitempty"`
}

func (DailyMeta) Kind() Type   { return TypeDaily }
func (MonthlyMeta) Kind() Type { return TypeMonthly }
func (NotesMeta) Kind() Type   { return TypeNotes }
func (QuizMeta) Kind() Type    { return TypeQuiz }
func (PyqMeta) Kind() Type     { return TypePyq }

func (m DailyMeta) validate() error {
	if _, err := time.Parse(DayLayout, m.CADate); err != nil {
		return fmt.Errorf("daily caDate %q: %w", m.CADate, err)
	}
	return nil
}

func (m MonthlyMeta) validate() error {
	d, err := time.Parse(DayLayout, m.CADate)
	if err != nil {
		return fmt.Errorf("monthly caDate %q: %w", m.CADate, err)
	}
	if d.Day() != 1 {
		return fmt.Errorf("monthly caDate %q must be the first of the month", m.CADate)
	}
	return nil
}

func (m NotesMeta) validate() error { return nil }

func (m QuizMeta) validate() error {
	if m.QuizDate == "" {
		return nil
	}
	if _, err := time.Parse(DayLayout, m.QuizDate); err != nil {
		return fmt.Errorf("quizDate %q: %w", m.QuizDate, err)
	}
	return nil
}

func (m PyqMeta) validate() error {
	if m.Year < 0 {
		return errors.New("pyq year must not be negative")
	}
	return nil
}

// NormalizeMeta fixes up derivable fields, e.g. monthly dates snap to the 1st.
func NormalizeMeta(m Meta) Meta {
	switch v := m.(type) {
	case MonthlyMeta:
		if d, err := time.Parse(DayLayout, v.CADate); err == nil {
			v.CADate = FirstOfMonth(d).Format(DayLayout)
		}
		return v
	case QuizMeta:
		v.Category = strings.TrimSpace(v.Category)
		return v
	case NotesMeta:
		v.Subject = strings.TrimSpace(v.Subject)
		return v
	default:
		return m
	}
}

// Projection is the set of indexed columns derived from Meta.
type Projection struct {
	AnchorDay string
	Subject   string
	Category  string
	Tags      []string
}

func Project(m Meta) Projection {
	switch v := m.(type) {
	case DailyMeta:
		return Projection{AnchorDay: v.CADate}
	case MonthlyMeta:
		return Projection{AnchorDay: v.CADate}
	case NotesMeta:
		return Projection{Subject: v.Subject, Tags: v.Tags}
	case QuizMeta:
		return Projection{AnchorDay: v.QuizDate, Category: v.Category}
	case PyqMeta:
		return Projection{Subject: v.Subject}
	case nil:
		return Projection{}
	default:
		panic(fmt.Sprintf("content: unhandled meta variant %T", m))
	}
}

// EmptyMeta returns the zero variant for t.
func EmptyMeta(t Type) Meta {
	switch t {
	case TypeDaily:
		return DailyMeta{}
	case TypeMonthly:
		return MonthlyMeta{}
	case TypeNotes:
		return NotesMeta{}
	case TypeQuiz:
		return QuizMeta{}
	case TypePyq:
		return PyqMeta{}
	default:
		return nil
	}
}

// DecodeMeta reads a variant for t from raw JSON. Empty input yields the zero variant.
func DecodeMeta(t Type, raw []byte) (Meta, error) {
	var (
		m   Meta
		err error
	)
	empty := len(strings.TrimSpace(string(raw))) == 0 || string(raw) == "null"
	switch t {
	case TypeDaily:
		var v DailyMeta
		if !empty {
			err = json.Unmarshal(raw, &v)
		}
		m = v
	case TypeMonthly:
		var v MonthlyMeta
		if !empty {
			err = json.Unmarshal(raw, &v)
		}
		m = v
	case TypeNotes:
		var v NotesMeta
		if !empty {
			err = json.Unmarshal(raw, &v)
		}
		m = v
	case TypeQuiz:
		var v QuizMeta
		if !empty {
			err = json.Unmarshal(raw, &v)
		}
		m = v
	case TypePyq:
		var v PyqMeta
		if !empty {
			err = json.Unmarshal(raw, &v)
		}
		m = v
	default:
		return nil, fmt.Errorf("unknown content type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s meta: %w", t, err)
	}
	return m, nil
}

// MetaColumn stores a Meta as {"kind": "<type>", ...fields}.
type MetaColumn struct {
	Meta
}

type metaKind struct {
	Kind Type `json:"kind"`
}

func (c MetaColumn) MarshalJSON() ([]byte, error) {
	if c.Meta == nil {
		return []byte("null"), nil
	}
	body, err := json.Marshal(c.Meta)
	if err != nil {
		return nil, err
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, err
	}
	kind, _ := json.Marshal(c.Meta.Kind())
	fields["kind"] = kind
	return json.Marshal(fields)
}

func (c *MetaColumn) UnmarshalJSON(raw []byte) error {
	if string(raw) == "null" || len(raw) == 0 {
		c.Meta = nil
		return nil
	}
	var k metaKind
	if err := json.Unmarshal(raw, &k); err != nil {
		return err
	}
	m, err := DecodeMeta(k.Kind, raw)
	if err != nil {
		return err
	}
	c.Meta = m
	return nil
}

func (c MetaColumn) Value() (driver.Value, error) {
	if c.Meta == nil {
		return nil, nil
	}
	b, err := c.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (c *MetaColumn) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		c.Meta = nil
		return nil
	case []byte:
		return c.UnmarshalJSON(v)
	case string:
		return c.UnmarshalJSON([]byte(v))
	default:
		return fmt.Errorf("meta column: unsupported scan type %T", value)
	}
}

func (MetaColumn) GormDataType() string { return "json" }

func (MetaColumn) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db != nil && db.Dialector != nil && db.Dialector.Name() == "postgres" {
		return "JSONB"
	}
	return "JSON"
}
