package app

import (
	"fmt"

	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/platform/googlecal"
	"github.com/botvine/huddle/internal/prompts"
	"github.com/botvine/huddle/internal/services"
)

type Services struct {
	GoogleAuth services.GoogleAuthService
	Scheduler  services.SchedulerService
	Assistant  services.AssistantService
}

func wireServices(log *logger.Logger, clients Clients, reposet Repos) (Services, error) {
	log.Info("Wiring services...")

	promptCfg, err := prompts.Load()
	if err != nil {
		return Services{}, fmt.Errorf("load prompts: %w", err)
	}

	auth, err := services.NewGoogleAuthService(log, reposet.UserLink, clients.Dedupe)
	if err != nil {
		return Services{}, fmt.Errorf("init google auth: %w", err)
	}

	calendar := googlecal.New(log)

	scheduler, err := services.NewSchedulerService(log, auth, calendar, reposet.Meeting)
	if err != nil {
		return Services{}, fmt.Errorf("init scheduler: %w", err)
	}

	assistant := services.NewAssistantService(
		log,
		clients.Slack,
		clients.Dedupe,
		scheduler,
		auth,
		clients.OpenAI,
		reposet.ConversationThread,
		reposet.AICallLog,
		promptCfg,
	)

	return Services{
		GoogleAuth: auth,
		Scheduler:  scheduler,
		Assistant:  assistant,
	}, nil
}
