// Package config defines the read-mostly configuration record the core
// accepts at construction. Loading it from disk, applying environment
// variable overrides, and watching it for changes are a host concern; this
// package only describes the recognized keys and their types, plus the
// clamping/default rules the core itself is responsible for enforcing.
package config

import "time"

// Config is supplied once at construction and never mutated by the core.
type Config struct {
	BaseURL string `yaml:"base_url"`

	LLM   LLMConfig   `yaml:"llm"`
	Agent AgentConfig `yaml:"agent"`

	TimeoutPageLoad      time.Duration `yaml:"timeout_page_load"`
	TimeoutTerminalReady time.Duration `yaml:"timeout_terminal_ready"`
	TimeoutPromptWait    time.Duration `yaml:"timeout_prompt_wait"`
	TimeoutCommandWait   time.Duration `yaml:"timeout_command_wait"`

	TypeDelay time.Duration `yaml:"type_delay"`

	// ACPassword is consumed by the host's login flow, never by the core.
	ACPassword     string          `yaml:"ac_password"`
	SUPassword     string          `yaml:"su_password"`
	SSHCredentials []SSHCredential `yaml:"ssh_credentials"`

	// PromptSpecs points at the on-disk domain-knowledge files the prompt
	// builder embeds. Missing files are non-fatal.
	PromptSpecs PromptSpecPaths `yaml:"prompt_specs"`
}

// LLMConfig configures the OpenAI-compatible chat completions endpoint.
type LLMConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
}

// AgentConfig tunes the ReAct loop.
type AgentConfig struct {
	MaxSteps          int     `yaml:"max_steps"`
	WaitAfterActionMS int     `yaml:"wait_after_action_ms"`
	ContextMaxMessages int    `yaml:"context_max_messages"`
	DiffThreshold     float64 `yaml:"diff_threshold"`
	SnapshotMaxLines  *int    `yaml:"snapshot_max_lines"`
	MaxResponseItems  int     `yaml:"max_response_items"`
}

// SSHCredential is one entry in the configured gateway login pool.
type SSHCredential struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// PromptSpecPaths names the on-disk files C7 reads to enrich the system
// prompt. An empty path means "section omitted".
type PromptSpecPaths struct {
	APISpecJSON  string `yaml:"api_spec_json"`
	CLIToolsYAML string `yaml:"cli_tools_yaml"`
}

// Defaults returns the zero-config fallback values, matching the original
// tool's DEFAULTS table.
func Defaults() Config {
	return Config{
		Agent: AgentConfig{
			MaxSteps:           30,
			WaitAfterActionMS:  1000,
			ContextMaxMessages: 40,
			DiffThreshold:      0.6,
			MaxResponseItems:   100,
		},
		TimeoutPageLoad:      30 * time.Second,
		TimeoutTerminalReady: 30 * time.Second,
		TimeoutPromptWait:    30 * time.Second,
		TimeoutCommandWait:   30 * time.Second,
		TypeDelay:            50 * time.Millisecond,
	}
}

// WithDefaults fills zero-valued fields of c from Defaults(), leaving
// explicitly-set fields untouched. The core never mutates the record after
// construction; this is the one pre-construction normalization step a host
// may apply.
func WithDefaults(c Config) Config {
	d := Defaults()
	if c.Agent.MaxSteps <= 0 {
		c.Agent.MaxSteps = d.Agent.MaxSteps
	}
	if c.Agent.WaitAfterActionMS <= 0 {
		c.Agent.WaitAfterActionMS = d.Agent.WaitAfterActionMS
	}
	if c.Agent.ContextMaxMessages <= 0 {
		c.Agent.ContextMaxMessages = d.Agent.ContextMaxMessages
	}
	if c.Agent.DiffThreshold <= 0 {
		c.Agent.DiffThreshold = d.Agent.DiffThreshold
	}
	if c.Agent.MaxResponseItems <= 0 {
		c.Agent.MaxResponseItems = d.Agent.MaxResponseItems
	}
	if c.TimeoutPageLoad <= 0 {
		c.TimeoutPageLoad = d.TimeoutPageLoad
	}
	if c.TimeoutTerminalReady <= 0 {
		c.TimeoutTerminalReady = d.TimeoutTerminalReady
	}
	if c.TimeoutPromptWait <= 0 {
		c.TimeoutPromptWait = d.TimeoutPromptWait
	}
	if c.TimeoutCommandWait <= 0 {
		c.TimeoutCommandWait = d.TimeoutCommandWait
	}
	if c.TypeDelay <= 0 {
		c.TypeDelay = d.TypeDelay
	}
	return c
}
