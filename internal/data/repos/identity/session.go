package identity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/data/aggregates"
	domain "github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type SessionRepo interface {
	Create(dbc dbctx.Context, s *domain.Session) error
	Get(dbc dbctx.Context, id uuid.UUID) (*domain.Session, error)
	ListActiveByUID(dbc dbctx.Context, uid string) ([]*domain.Session, error)
	Revoke(dbc dbctx.Context, ids []uuid.UUID, reason string, at time.Time) (int64, error)
	Touch(dbc dbctx.Context, id uuid.UUID, at time.Time) error
}

type sessionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewSessionRepo(db *gorm.DB, baseLog *logger.Logger) SessionRepo {
	repoLog := baseLog.With("repo", "SessionRepo")
	return &sessionRepo{db: db, log: repoLog}
}

func (r *sessionRepo) Create(dbc dbctx.Context, s *domain.Session) error {
	if s == nil {
		return nil
	}
	if s.ID == uuid.Nil {
		s.ID = domain.NewSessionID()
	}
	return aggregates.MapError("SessionRepo.Create", dbc.DB(r.db).Create(s).Error)
}

// Get returns nil when the session does not exist.
func (r *sessionRepo) Get(dbc dbctx.Context, id uuid.UUID) (*domain.Session, error) {
	var out domain.Session
	res := dbc.DB(r.db).Where("id = ?", id).Limit(1).Find(&out)
	if res.Error != nil {
		return nil, aggregates.MapError("SessionRepo.Get", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}

// ListActiveByUID returns non-revoked sessions, newest first. Ties on
// created_at fall back to the time-ordered id.
func (r *sessionRepo) ListActiveByUID(dbc dbctx.Context, uid string) ([]*domain.Session, error) {
	var out []*domain.Session
	if err := dbc.DB(r.db).
		Where("uid = ? AND revoked = ?", uid, false).
		Order("created_at DESC").
		Order("id DESC").
		Find(&out).Error; err != nil {
		return nil, aggregates.MapError("SessionRepo.ListActiveByUID", err)
	}
	return out, nil
}

// Revoke marks the given sessions revoked. Already revoked sessions keep
// their original reason.
func (r *sessionRepo) Revoke(dbc dbctx.Context, ids []uuid.UUID, reason string, at time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	at = at.UTC()
	res := dbc.DB(r.db).
		Model(&domain.Session{}).
		Where("id IN ? AND revoked = ?", ids, false).
		Updates(map[string]any{
			"revoked":        true,
			"revoked_reason": reason,
			"revoked_at":     at,
		})
	if res.Error != nil {
		return 0, aggregates.MapError("SessionRepo.Revoke", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *sessionRepo) Touch(dbc dbctx.Context, id uuid.UUID, at time.Time) error {
	return aggregates.MapError("SessionRepo.Touch", dbc.DB(r.db).
		Model(&domain.Session{}).
		Where("id = ? AND revoked = ?", id, false).
		Update("last_seen_at", at.UTC()).Error)
}
