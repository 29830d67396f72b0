package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/data/repos/content"
	"github.com/yungbote/examprep-backend/internal/data/repos/identity"
	"github.com/yungbote/examprep-backend/internal/data/repos/preview"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type DocumentRepo = content.DocumentRepo
type DocumentListFilter = content.ListFilter

type ProfileRepo = identity.ProfileRepo
type SessionRepo = identity.SessionRepo

type PreviewTokenRepo = preview.TokenRepo

func NewDocumentRepo(db *gorm.DB, log *logger.Logger) DocumentRepo {
	return content.NewDocumentRepo(db, log)
}

func NewProfileRepo(db *gorm.DB, log *logger.Logger) ProfileRepo {
	return identity.NewProfileRepo(db, log)
}

func NewSessionRepo(db *gorm.DB, log *logger.Logger) SessionRepo {
	return identity.NewSessionRepo(db, log)
}

func NewPreviewTokenRepo(db *gorm.DB, log *logger.Logger) PreviewTokenRepo {
	return preview.NewTokenRepo(db, log)
}
