package config

import (
	"fmt"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// AgentPromptPack is one agent's system/user prompt pair, resolved per
// language section.
type AgentPromptPack struct {
	SystemPrompt string `toml:"system_prompt"`
	UserPrompt   string `toml:"user_prompt"`
}

// PromptSection is one clause of a language section (orchestrator, naming,
// synthesis, agent, transport_agent, transport_agent_maximum_try all share
// this shape: a single "prompt" field).
type PromptSection struct {
	Prompt string `toml:"prompt"`
}

// LanguagePromptPack is one language section of the prompt-pack file.
type LanguagePromptPack struct {
	Orchestrator         PromptSection `toml:"orchestrator"`
	Naming               PromptSection `toml:"naming"`
	Synthesis            PromptSection `toml:"synthesis"`
	Agent                PromptSection `toml:"agent"`
	TransportAgent       PromptSection `toml:"transport_agent"`
	TransportAgentMaxTry PromptSection `toml:"transport_agent_maximum_try"`

	Food      AgentPromptPack `toml:"food"`
	History   AgentPromptPack `toml:"history"`
	Modern    AgentPromptPack `toml:"modern"`
	Nature    AgentPromptPack `toml:"nature"`
	Transport AgentPromptPack `toml:"transport"`
}

// PromptPack is the full decoded TOML configuration file.
type PromptPack struct {
	ServerBindPoint      string `toml:"server_bind_point"`
	ServerAddress        string `toml:"server_address"`
	LogLevel             string `toml:"log_level"`
	LanguageTriagePrompt string `toml:"language_triage_prompt"`

	English  LanguagePromptPack `toml:"english"`
	Chinese  LanguagePromptPack `toml:"chinese"`
	Japanese LanguagePromptPack `toml:"japanese"`
}

// LoadPromptPack decodes the TOML prompt-pack file located at
// <directory>/<fileName>.
func LoadPromptPack(directory, fileName string) (PromptPack, error) {
	path := filepath.Join(directory, fileName)

	var pack PromptPack
	if _, err := toml.DecodeFile(path, &pack); err != nil {
		return PromptPack{}, fmt.Errorf("decoding prompt pack %s: %w", path, err)
	}
	return pack, nil
}

// ForLanguage returns the language-specific prompt section, falling back to
// English when the classifier returned Other (no dedicated pack exists for
// "Other" — it is a catch-all classification, not a prompt language).
func (p PromptPack) ForLanguage(language string) LanguagePromptPack {
	switch language {
	case "Chinese":
		return p.Chinese
	case "Japanese":
		return p.Japanese
	default:
		return p.English
	}
}

// ForAgent returns the configured system/user prompt pair for one agent tag.
func (l LanguagePromptPack) ForAgent(agent string) AgentPromptPack {
	switch agent {
	case "Food":
		return l.Food
	case "History":
		return l.History
	case "Modern":
		return l.Modern
	case "Nature":
		return l.Nature
	case "Transport":
		return l.Transport
	default:
		return AgentPromptPack{}
	}
}
