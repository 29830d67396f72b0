package content

import (
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/examprep-backend/internal/data/aggregates"
	domain "github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

const documentTable = "content_document"

// ListFilter narrows a management listing. Cursor fields are the last row of
// the previous page.
type ListFilter struct {
	Type         domain.Type
	Status       domain.Status
	OwnerUID     string
	Limit        int
	AfterUpdated *time.Time
	AfterID      string
}

type DocumentRepo interface {
	CreateIfAbsent(dbc dbctx.Context, doc *domain.Document) error
	Get(dbc dbctx.Context, collection domain.Collection, id string) (*domain.Document, error)
	Exists(dbc dbctx.Context, collection domain.Collection, id string) (bool, error)
	SlugHolder(dbc dbctx.Context, collection domain.Collection, slug string) (string, bool, error)
	GetBySlug(dbc dbctx.Context, t domain.Type, slug string) (*domain.Document, error)
	UpdateIfStatus(dbc dbctx.Context, doc *domain.Document, expected domain.Status) (bool, error)
	List(dbc dbctx.Context, f ListFilter) ([]*domain.Document, error)
	SoftDelete(dbc dbctx.Context, collection domain.Collection, id string) error

	PublishedOnDay(dbc dbctx.Context, t domain.Type, day string, limit int) ([]*domain.Document, error)
	PublishedLatest(dbc dbctx.Context, t domain.Type, onOrBefore string, limit int) ([]*domain.Document, error)
	PublishedBySubject(dbc dbctx.Context, t domain.Type, subject string, limit int) ([]*domain.Document, error)
	PublishedQuizzes(dbc dbctx.Context, category, day string, limit int) ([]*domain.Document, error)
	PublishedRecentlyUpdated(dbc dbctx.Context, t domain.Type, limit int) ([]*domain.Document, error)

	DueScheduled(dbc dbctx.Context, now time.Time) ([]*domain.Document, error)
	PromoteDue(dbc dbctx.Context, now time.Time, by identity.ActorStamp) (int64, error)
}

type documentRepo struct {
	db    *gorm.DB
	guard aggregates.CASGuard
	log   *logger.Logger
}

func NewDocumentRepo(db *gorm.DB, baseLog *logger.Logger) DocumentRepo {
	repoLog := baseLog.With("repo", "DocumentRepo")
	return &documentRepo{db: db, guard: aggregates.NewCASGuard(db), log: repoLog}
}

// CreateIfAbsent inserts doc unless a row with the same key already exists,
// including soft-deleted rows. A lost race reports doc_id_exists; a live
// document holding the slug reports slug_taken.
func (r *documentRepo) CreateIfAbsent(dbc dbctx.Context, doc *domain.Document) error {
	const op = "DocumentRepo.CreateIfAbsent"
	if doc == nil {
		return nil
	}
	res := dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "collection"}, {Name: "id"}},
			DoNothing: true,
		}).
		Create(doc)
	if res.Error != nil {
		if aggregates.IsUniqueViolation(res.Error) {
			return apierr.Conflict(apierr.CodeSlugTaken, op, "slug is already used in "+string(doc.Collection))
		}
		return aggregates.MapError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apierr.Conflict(apierr.CodeDocIDExists, op, "document id already exists: "+doc.Ref().String())
	}
	return nil
}

// Get returns nil when the document does not exist.
func (r *documentRepo) Get(dbc dbctx.Context, collection domain.Collection, id string) (*domain.Document, error) {
	var out domain.Document
	res := dbc.DB(r.db).
		Where("collection = ? AND id = ?", collection, id).
		Limit(1).
		Find(&out)
	if res.Error != nil {
		return nil, aggregates.MapError("DocumentRepo.Get", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}

// Exists checks the primary key, soft-deleted rows included, since ids are never reused.
func (r *documentRepo) Exists(dbc dbctx.Context, collection domain.Collection, id string) (bool, error) {
	var count int64
	if err := dbc.DB(r.db).
		Unscoped().
		Model(&domain.Document{}).
		Where("collection = ? AND id = ?", collection, id).
		Count(&count).Error; err != nil {
		return false, aggregates.MapError("DocumentRepo.Exists", err)
	}
	return count > 0, nil
}

// SlugHolder returns the id of the live document using slug in collection.
func (r *documentRepo) SlugHolder(dbc dbctx.Context, collection domain.Collection, slug string) (string, bool, error) {
	var ids []string
	if err := dbc.DB(r.db).
		Model(&domain.Document{}).
		Where("collection = ? AND slug = ?", collection, slug).
		Limit(1).
		Pluck("id", &ids).Error; err != nil {
		return "", false, aggregates.MapError("DocumentRepo.SlugHolder", err)
	}
	if len(ids) == 0 {
		return "", false, nil
	}
	return ids[0], true, nil
}

func (r *documentRepo) GetBySlug(dbc dbctx.Context, t domain.Type, slug string) (*domain.Document, error) {
	var out domain.Document
	res := dbc.DB(r.db).
		Where("collection = ? AND type = ? AND slug = ?", t.Collection(), t, slug).
		Limit(1).
		Find(&out)
	if res.Error != nil {
		return nil, aggregates.MapError("DocumentRepo.GetBySlug", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}

// UpdateIfStatus writes every mutable column of doc, but only while the stored
// status still equals expected. A false result means someone else moved it first.
func (r *documentRepo) UpdateIfStatus(dbc dbctx.Context, doc *domain.Document, expected domain.Status) (bool, error) {
	const op = "DocumentRepo.UpdateIfStatus"
	ok, err := r.guard.UpdateByStatus(dbc, documentTable,
		map[string]any{"collection": doc.Collection, "id": doc.ID, "deleted_at": nil},
		[]string{string(expected)},
		mutableColumns(doc),
	)
	if err != nil {
		if aggregates.IsUniqueViolation(err) {
			return false, apierr.Conflict(apierr.CodeSlugTaken, op, "slug is already used in "+string(doc.Collection))
		}
		return false, aggregates.MapError(op, err)
	}
	return ok, nil
}

func mutableColumns(doc *domain.Document) map[string]any {
	return map[string]any{
		"slug":            doc.Slug,
		"title":           doc.Title,
		"status":          doc.Status,
		"is_locked":       doc.IsLocked,
		"anchor_day":      doc.AnchorDay,
		"subject":         doc.Subject,
		"category":        doc.Category,
		"tags":            doc.Tags,
		"meta":            doc.Meta,
		"body":            doc.Body,
		"owner_uid":       doc.OwnerUID,
		"updated_by":      doc.UpdatedBy,
		"review":          doc.Review,
		"related_content": doc.RelatedContent,
		"submitted_at":    doc.SubmittedAt,
		"published_at":    doc.PublishedAt,
		"updated_at":      doc.UpdatedAt,
	}
}

func (r *documentRepo) List(dbc dbctx.Context, f ListFilter) ([]*domain.Document, error) {
	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := dbc.DB(r.db).Model(&domain.Document{})
	if f.Type != "" {
		q = q.Where("collection = ? AND type = ?", f.Type.Collection(), f.Type)
	}
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.OwnerUID != "" {
		q = q.Where("owner_uid = ?", f.OwnerUID)
	}
	if f.AfterUpdated != nil {
		q = q.Where("(updated_at < ? OR (updated_at = ? AND id < ?))", *f.AfterUpdated, *f.AfterUpdated, f.AfterID)
	}
	var out []*domain.Document
	if err := q.Order("updated_at DESC").Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, aggregates.MapError("DocumentRepo.List", err)
	}
	return out, nil
}

func (r *documentRepo) SoftDelete(dbc dbctx.Context, collection domain.Collection, id string) error {
	return aggregates.MapError("DocumentRepo.SoftDelete", dbc.DB(r.db).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&domain.Document{}).Error)
}

func (r *documentRepo) published(dbc dbctx.Context, t domain.Type) *gorm.DB {
	return dbc.DB(r.db).
		Where("collection = ? AND type = ? AND status = ?", t.Collection(), t, domain.StatusPublished)
}

// PublishedOnDay returns published documents anchored on day (YYYY-MM-DD).
func (r *documentRepo) PublishedOnDay(dbc dbctx.Context, t domain.Type, day string, limit int) ([]*domain.Document, error) {
	var out []*domain.Document
	if err := r.published(dbc, t).
		Where("anchor_day = ?", day).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, aggregates.MapError("DocumentRepo.PublishedOnDay", err)
	}
	return out, nil
}

// PublishedLatest returns published documents anchored on or before onOrBefore, newest first.
func (r *documentRepo) PublishedLatest(dbc dbctx.Context, t domain.Type, onOrBefore string, limit int) ([]*domain.Document, error) {
	var out []*domain.Document
	q := r.published(dbc, t).Where("anchor_day <> ''")
	if onOrBefore != "" {
		q = q.Where("anchor_day <= ?", onOrBefore)
	}
	if err := q.Order("anchor_day DESC").Order("id DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, aggregates.MapError("DocumentRepo.PublishedLatest", err)
	}
	return out, nil
}

// PublishedBySubject matches subject case-insensitively; an empty subject matches all.
func (r *documentRepo) PublishedBySubject(dbc dbctx.Context, t domain.Type, subject string, limit int) ([]*domain.Document, error) {
	var out []*domain.Document
	q := r.published(dbc, t)
	if s := strings.TrimSpace(subject); s != "" {
		q = q.Where("LOWER(subject) = ?", strings.ToLower(s))
	}
	if err := q.Order("updated_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, aggregates.MapError("DocumentRepo.PublishedBySubject", err)
	}
	return out, nil
}

// PublishedQuizzes returns quizzes of category on day, or the most recently
// dated ones when day is empty.
func (r *documentRepo) PublishedQuizzes(dbc dbctx.Context, category, day string, limit int) ([]*domain.Document, error) {
	var out []*domain.Document
	q := r.published(dbc, domain.TypeQuiz).Where("category = ?", category)
	if day != "" {
		q = q.Where("anchor_day = ?", day)
	}
	if err := q.Order("anchor_day DESC").Order("updated_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, aggregates.MapError("DocumentRepo.PublishedQuizzes", err)
	}
	return out, nil
}

func (r *documentRepo) PublishedRecentlyUpdated(dbc dbctx.Context, t domain.Type, limit int) ([]*domain.Document, error) {
	var out []*domain.Document
	if err := r.published(dbc, t).
		Order("updated_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, aggregates.MapError("DocumentRepo.PublishedRecentlyUpdated", err)
	}
	return out, nil
}

// DueScheduled selects every scheduled document whose publish time has come,
// locking the rows when the store supports it.
func (r *documentRepo) DueScheduled(dbc dbctx.Context, now time.Time) ([]*domain.Document, error) {
	var out []*domain.Document
	if err := dbc.DB(r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("status = ? AND published_at IS NOT NULL AND published_at <= ?", domain.StatusScheduled, now.UTC()).
		Order("published_at ASC").
		Find(&out).Error; err != nil {
		return nil, aggregates.MapError("DocumentRepo.DueScheduled", err)
	}
	return out, nil
}

// PromoteDue flips every due scheduled document to published in one statement.
func (r *documentRepo) PromoteDue(dbc dbctx.Context, now time.Time, by identity.ActorStamp) (int64, error) {
	now = now.UTC()
	res := dbc.DB(r.db).
		Model(&domain.Document{}).
		Where("status = ? AND published_at IS NOT NULL AND published_at <= ?", domain.StatusScheduled, now).
		Updates(map[string]any{
			"status":       domain.StatusPublished,
			"published_at": now,
			"is_locked":    true,
			"updated_at":   now,
			"updated_by":   datatypes.NewJSONType(by),
		})
	if res.Error != nil {
		return 0, aggregates.MapError("DocumentRepo.PromoteDue", res.Error)
	}
	return res.RowsAffected, nil
}
