package app

import (
	"context"
	"fmt"

	"github.com/botvine/huddle/internal/clients/redis"
	slackclient "github.com/botvine/huddle/internal/clients/slack"
	"github.com/botvine/huddle/internal/logger"
	"github.com/botvine/huddle/internal/platform/openai"
)

type Clients struct {
	Slack  *slackclient.Client
	OpenAI openai.Client
	Dedupe redis.Deduper
}

func wireClients(ctx context.Context, log *logger.Logger) (Clients, error) {
	log.Info("Wiring clients...")

	slk, err := slackclient.New(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init slack client: %w", err)
	}

	llm, err := openai.NewClient(log)
	if err != nil {
		return Clients{}, fmt.Errorf("init openai client: %w", err)
	}

	return Clients{
		Slack:  slk,
		OpenAI: llm,
		Dedupe: redis.New(ctx, log),
	}, nil
}
