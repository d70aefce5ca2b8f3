package main

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/cassiaops/acagent/internal/config"
)

// fileConfig is the on-disk YAML schema. Timeouts and delays are plain
// millisecond integers, converted to durations when handed to the core.
type fileConfig struct {
	BaseURL string `yaml:"base_url"`

	LLM   config.LLMConfig   `yaml:"llm"`
	Agent config.AgentConfig `yaml:"agent"`

	TimeoutPageLoadMS      int `yaml:"timeout_page_load"`
	TimeoutTerminalReadyMS int `yaml:"timeout_terminal_ready"`
	TimeoutPromptWaitMS    int `yaml:"timeout_prompt_wait"`
	TimeoutCommandWaitMS   int `yaml:"timeout_command_wait"`
	TypeDelayMS            int `yaml:"type_delay"`

	ACPassword     string                 `yaml:"ac_password"`
	SUPassword     string                 `yaml:"su_password"`
	SSHCredentials []config.SSHCredential `yaml:"ssh_credentials"`

	PromptSpecs config.PromptSpecPaths `yaml:"prompt_specs"`
}

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

// loadConfig reads the YAML config file, applies environment overrides,
// and fills defaults. The core itself never loads configuration; that
// stays a host concern.
func loadConfig(path string) (config.Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return config.Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return config.Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	cfg := config.Config{
		BaseURL:              fc.BaseURL,
		LLM:                  fc.LLM,
		Agent:                fc.Agent,
		TimeoutPageLoad:      ms(fc.TimeoutPageLoadMS),
		TimeoutTerminalReady: ms(fc.TimeoutTerminalReadyMS),
		TimeoutPromptWait:    ms(fc.TimeoutPromptWaitMS),
		TimeoutCommandWait:   ms(fc.TimeoutCommandWaitMS),
		TypeDelay:            ms(fc.TypeDelayMS),
		ACPassword:           fc.ACPassword,
		SUPassword:           fc.SUPassword,
		SSHCredentials:       fc.SSHCredentials,
		PromptSpecs:          fc.PromptSpecs,
	}

	if v := os.Getenv("ACAGENT_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := os.Getenv("ACAGENT_AC_PASSWORD"); v != "" {
		cfg.ACPassword = v
	}
	if v := os.Getenv("ACAGENT_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}

	if cfg.BaseURL == "" {
		return config.Config{}, fmt.Errorf("config %s: base_url is required", path)
	}
	return config.WithDefaults(cfg), nil
}
