package identity

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/examprep-backend/internal/data/aggregates"
	domain "github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/platform/apierr"
	"github.com/yungbote/examprep-backend/internal/platform/dbctx"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type ProfileRepo interface {
	Get(dbc dbctx.Context, uid string) (*domain.Profile, error)
	Upsert(dbc dbctx.Context, p *domain.Profile) error
	UpdateStatus(dbc dbctx.Context, uid string, status domain.AccountStatus) error
	UpdateAllowedDevices(dbc dbctx.Context, uid string, deviceIDs []string) error
}

type profileRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProfileRepo(db *gorm.DB, baseLog *logger.Logger) ProfileRepo {
	repoLog := baseLog.With("repo", "ProfileRepo")
	return &profileRepo{db: db, log: repoLog}
}

// Get returns nil when no profile exists for uid.
func (r *profileRepo) Get(dbc dbctx.Context, uid string) (*domain.Profile, error) {
	var out domain.Profile
	res := dbc.DB(r.db).Where("uid = ?", uid).Limit(1).Find(&out)
	if res.Error != nil {
		return nil, aggregates.MapError("ProfileRepo.Get", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &out, nil
}

func (r *profileRepo) Upsert(dbc dbctx.Context, p *domain.Profile) error {
	if p == nil {
		return nil
	}
	now := time.Now().UTC()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	return aggregates.MapError("ProfileRepo.Upsert", dbc.DB(r.db).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"email", "display_name", "role", "status", "allowed_device_ids", "max_concurrent_sessions", "updated_at",
			}),
		}).
		Create(p).Error)
}

func (r *profileRepo) update(dbc dbctx.Context, op, uid string, updates map[string]any) error {
	updates["updated_at"] = time.Now().UTC()
	res := dbc.DB(r.db).Model(&domain.Profile{}).Where("uid = ?", uid).Updates(updates)
	if res.Error != nil {
		return aggregates.MapError(op, res.Error)
	}
	if res.RowsAffected == 0 {
		return apierr.NotFound(apierr.CodeProfileMissing, op, "no profile for user")
	}
	return nil
}

func (r *profileRepo) UpdateStatus(dbc dbctx.Context, uid string, status domain.AccountStatus) error {
	return r.update(dbc, "ProfileRepo.UpdateStatus", uid, map[string]any{"status": status})
}

func (r *profileRepo) UpdateAllowedDevices(dbc dbctx.Context, uid string, deviceIDs []string) error {
	if deviceIDs == nil {
		deviceIDs = []string{}
	}
	return r.update(dbc, "ProfileRepo.UpdateAllowedDevices", uid, map[string]any{
		"allowed_device_ids": datatypes.NewJSONSlice(deviceIDs),
	})
}
