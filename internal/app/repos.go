package app

import (
	"gorm.io/gorm"

	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/repos"
)

type Repos struct {
	UserLink           repos.UserLinkRepo
	Meeting            repos.MeetingRepo
	ConversationThread repos.ConversationThreadRepo
	AICallLog          repos.AICallLogRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		UserLink:           repos.NewUserLinkRepo(db, log),
		Meeting:            repos.NewMeetingRepo(db, log),
		ConversationThread: repos.NewConversationThreadRepo(db, log),
		AICallLog:          repos.NewAICallLogRepo(db, log),
	}
}
