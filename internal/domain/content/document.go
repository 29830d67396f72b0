package content

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/domain/identity"
)

// Document is one managed content item. (Collection, ID) is the primary key.
type Document struct {
	Collection     Collection                              `gorm:"column:collection;primaryKey;size:32" json:"collection"`
	ID             string                                  `gorm:"column:id;primaryKey;size:160" json:"id"`
	Type           Type                                    `gorm:"column:type;not null;size:16;index" json:"type"`
	Slug           string                                  `gorm:"column:slug;not null;size:255" json:"slug"`
	Title          string                                  `gorm:"column:title;not null" json:"title"`
	Status         Status                                  `gorm:"column:status;not null;size:16;index" json:"status"`
	IsLocked       bool                                    `gorm:"column:is_locked;not null;default:false" json:"isLocked"`
	AnchorDay      string                                  `gorm:"column:anchor_day;size:10;index" json:"anchorDay,omitempty"`
	Subject        string                                  `gorm:"column:subject;index" json:"subject,omitempty"`
	Category       string                                  `gorm:"column:category;index" json:"category,omitempty"`
	Tags           datatypes.JSONSlice[string]             `gorm:"column:tags" json:"tags,omitempty"`
	Meta           MetaColumn                              `gorm:"column:meta" json:"meta"`
	Body           datatypes.JSON                          `gorm:"column:body" json:"body,omitempty"`
	OwnerUID       string                                  `gorm:"column:owner_uid;size:128;index" json:"ownerUid"`
	CreatedBy      datatypes.JSONType[identity.ActorStamp] `gorm:"column:created_by" json:"createdBy"`
	UpdatedBy      datatypes.JSONType[identity.ActorStamp] `gorm:"column:updated_by" json:"updatedBy"`
	Review         datatypes.JSONType[Review]              `gorm:"column:review" json:"review"`
	RelatedContent datatypes.JSONSlice[RelatedRef]         `gorm:"column:related_content" json:"relatedContent,omitempty"`
	SubmittedAt    *time.Time                              `gorm:"column:submitted_at" json:"submittedAt,omitempty"`
	PublishedAt    *time.Time                              `gorm:"column:published_at;index" json:"publishedAt,omitempty"`
	CreatedAt      time.Time                               `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt      time.Time                               `gorm:"column:updated_at;not null;index" json:"updatedAt"`
	DeletedAt      gorm.DeletedAt                          `gorm:"index" json:"-"`
}

func (Document) TableName() string { return "content_document" }

// PublicView is the part of a document the public site may see. Ownership,
// actor stamps and the review thread stay internal.
type PublicView struct {
	Type        Type                        `json:"type"`
	ID          string                      `json:"id"`
	Slug        string                      `json:"slug"`
	Title       string                      `json:"title"`
	Status      Status                      `json:"status"`
	AnchorDay   string                      `json:"anchorDay,omitempty"`
	Subject     string                      `json:"subject,omitempty"`
	Tags        datatypes.JSONSlice[string] `json:"tags,omitempty"`
	Meta        MetaColumn                  `json:"meta"`
	Body        datatypes.JSON              `json:"body,omitempty"`
	PublishedAt *time.Time                  `json:"publishedAt,omitempty"`
	UpdatedAt   time.Time                   `json:"updatedAt"`
}

func (d *Document) Public() PublicView {
	return PublicView{
		Type:        d.Type,
		ID:          d.ID,
		Slug:        d.Slug,
		Title:       d.Title,
		Status:      d.Status,
		AnchorDay:   d.AnchorDay,
		Subject:     d.Subject,
		Tags:        d.Tags,
		Meta:        d.Meta,
		Body:        d.Body,
		PublishedAt: d.PublishedAt,
		UpdatedAt:   d.UpdatedAt,
	}
}

// Ref identifies a document inside its collection.
type Ref struct {
	Type Type
	ID   string
}

func (r Ref) String() string { return fmt.Sprintf("%s/%s", r.Type.Collection(), r.ID) }

func (d *Document) Ref() Ref { return Ref{Type: d.Type, ID: d.ID} }

// Creator is the stamp recorded at creation.
func (d *Document) Creator() identity.ActorStamp { return d.CreatedBy.Data() }

func (d *Document) ReviewState() Review { return d.Review.Data() }

func (d *Document) setReview(r Review) { d.Review = datatypes.NewJSONType(r) }

// SetMeta installs a meta variant and refreshes the projected columns.
func (d *Document) SetMeta(m Meta) error {
	if m == nil {
		m = EmptyMeta(d.Type)
	}
	if m.Kind() != d.Type {
		return fmt.Errorf("meta variant %s does not match document type %s", m.Kind(), d.Type)
	}
	m = NormalizeMeta(m)
	if err := m.validate(); err != nil {
		return err
	}
	d.Meta = MetaColumn{Meta: m}
	p := Project(m)
	d.AnchorDay = p.AnchorDay
	d.Subject = p.Subject
	d.Category = p.Category
	if p.Tags != nil {
		d.Tags = p.Tags
	}
	return nil
}

// Review accumulates the editor/admin exchange on a document.
type Review struct {
	Feedback        string     `json:"feedback,omitempty"`
	EditorMessage   string     `json:"editorMessage,omitempty"`
	ReviewedByUID   string     `json:"reviewedByUid,omitempty"`
	ReviewedByEmail string     `json:"reviewedByEmail,omitempty"`
	ReviewedAt      *time.Time `json:"reviewedAt,omitempty"`
	MessageThread   []Message  `json:"messageThread,omitempty"`
}

// RelatedRef is a manually pinned related item.
type RelatedRef struct {
	Type  Type   `json:"type"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}
