package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/data/repos"
	"github.com/yungbote/examprep-backend/internal/platform/logger"
)

type Repos struct {
	Document     repos.DocumentRepo
	Profile      repos.ProfileRepo
	Session      repos.SessionRepo
	PreviewToken repos.PreviewTokenRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		Document:     repos.NewDocumentRepo(db, log),
		Profile:      repos.NewProfileRepo(db, log),
		Session:      repos.NewSessionRepo(db, log),
		PreviewToken: repos.NewPreviewTokenRepo(db, log),
	}
}
