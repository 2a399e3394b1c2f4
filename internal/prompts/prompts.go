// Package prompts holds the bot's system prompts and the guard block that
// is prepended to every system prompt before it reaches the model.
package prompts

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type Config struct {
	// ChatSystem is the persona for general conversation replies.
	ChatSystem string `yaml:"chat_system"`
}

// Load reads the embedded prompt set, or the file named by PROMPTS_FILE so
// operators can tune the persona without rebuilding.
func Load() (*Config, error) {
	raw := defaultPrompts
	if path := strings.TrimSpace(os.Getenv("PROMPTS_FILE")); path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read PROMPTS_FILE: %w", err)
		}
		raw = b
	}
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}
	if strings.TrimSpace(cfg.ChatSystem) == "" {
		return nil, fmt.Errorf("prompts: chat_system is empty")
	}
	return &cfg, nil
}

const marker = "HUDDLE_PROMPT_STYLE_V1"

// ApplySystem prepends a concise guidance block to system prompts. It is
// intentionally minimal to avoid changing task semantics.
func ApplySystem(system string, mode string) string {
	base := strings.TrimSpace(system)
	if base == "" {
		return base
	}
	if strings.Contains(base, marker) {
		return base
	}
	mode = strings.ToLower(strings.TrimSpace(mode))

	var b strings.Builder
	b.WriteString(marker)
	b.WriteString("\nFollow the system and user instructions precisely.")
	b.WriteString("\nIf an output format or schema is specified, output only that format.")
	b.WriteString("\nUse provided inputs as grounding; do not invent facts.")
	if mode == "json" {
		b.WriteString("\nReturn a single JSON object that conforms to the schema and contains no extra keys.")
	} else {
		b.WriteString("\nKeep replies short enough to read in a chat window.")
	}
	b.WriteString("\n---\n")
	b.WriteString(base)
	return strings.TrimSpace(b.String())
}
