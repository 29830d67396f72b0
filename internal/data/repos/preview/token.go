package preview

import (
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/data/aggregates"
	domain "github.com/yungbote/examprep-backend/internal/domain/preview"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type TokenRepo interface {
	Create(dbc dbctx.Context, t *domain.Token) error
	Get(dbc dbctx.Context, token string) (*domain.Token, error)
	Delete(dbc dbctx.Context, token string) error
	DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error)
}

type tokenRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTokenRepo(db *gorm.DB, baseLog *logger.Logger) TokenRepo {
	repoLog := baseLog.With("repo", "PreviewTokenRepo")
	return &tokenRepo{db: db, log: repoLog}
}

func (r *tokenRepo) Create(dbc dbctx.Context, t *domain.Token) error {
	if t == nil {
		return nil
	}
	return aggregates.MapError("PreviewTokenRepo.Create", dbc.DB(r.db).Create(t).Error)
}

// Get returns nil when the token does not exist.
func (r *tokenRepo) Get(dbc dbctx.Context, token string) (*domain.Token, error) {
	var out domain.Token
	res := dbc.DB(r.db).Where("token = ?", token).Limit(1).Find(&out)
	if res.Error != nil {
		return nil, aggregates.MapError("PreviewTokenRepo.Get", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}

func (r *tokenRepo) Delete(dbc dbctx.Context, token string) error {
	return aggregates.MapError("PreviewTokenRepo.Delete", dbc.DB(r.db).
		Where("token = ?", token).
		Delete(&domain.Token{}).Error)
}

func (r *tokenRepo) DeleteExpired(dbc dbctx.Context, now time.Time) (int64, error) {
	res := dbc.DB(r.db).Where("expires_at <= ?", now.UTC()).Delete(&domain.Token{})
	if res.Error != nil {
		return 0, aggregates.MapError("PreviewTokenRepo.DeleteExpired", res.Error)
	}
	return res.RowsAffected, nil
}
