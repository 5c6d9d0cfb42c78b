// Package config loads the TOML user configuration. Values of the form
// ${ENV:VAR} are expanded from the environment so secrets never live in
// the file itself.
package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/pelletier/go-toml/v2"
)

// EnvPathVar names the environment variable that overrides the config
// file location.
const EnvPathVar = "ROUTEMESH_CONFIG"

// DefaultPath is the config file location when EnvPathVar is unset.
const DefaultPath = "config/user.toml"

// envRefPattern matches ${ENV:VAR} references inside config values.
var envRefPattern = regexp.MustCompile(`\$\{ENV:([A-Za-z_][A-Za-z0-9_]*)\}`)

// LLMConfig selects the completion provider.
type LLMConfig struct {
	Provider string `toml:"provider"`
	Model    string `toml:"model"`
	BaseURL  string `toml:"base_url"`
	APIKey   string `toml:"api_key"`
}

// StyleConfig tunes the response stylizer.
type StyleConfig struct {
	Enabled      bool   `toml:"enabled"`
	SystemPrompt string `toml:"system_prompt"`
}

// MailConfig tunes the mail summarisation procedure.
type MailConfig struct {
	Enabled       bool   `toml:"enabled"`
	DefaultFolder string `toml:"default_folder"`
	UnreadOnly    bool   `toml:"unread_only"`

	// Summariser optionally overrides the global LLM config. When
	// UseGlobalLLM is true the nested provider settings are ignored.
	Summariser MailSummariserConfig `toml:"summariser"`
}

// MailSummariserConfig selects the summarisation provider.
type MailSummariserConfig struct {
	UseGlobalLLM bool      `toml:"use_global_llm"`
	LLM          LLMConfig `toml:"llm"`
}

// ServerChanConfig configures the ServerChan push channel.
type ServerChanConfig struct {
	Enabled bool   `toml:"enabled"`
	APIKey  string `toml:"api_key"`
}

// PushConfig groups push channel settings.
type PushConfig struct {
	ServerChan ServerChanConfig `toml:"serverchan"`
}

// UserConfig is the root of the user configuration file.
type UserConfig struct {
	LLM   LLMConfig   `toml:"llm"`
	Style StyleConfig `toml:"style"`
	Mail  MailConfig  `toml:"mail"`
	Push  PushConfig  `toml:"push"`
}

// DefaultUserConfig returns the configuration used when no file exists.
func DefaultUserConfig() UserConfig {
	return UserConfig{
		Mail: MailConfig{
			DefaultFolder: "Inbox",
			Summariser:    MailSummariserConfig{UseGlobalLLM: true},
		},
	}
}

// SummariserLLM resolves the LLM config the mail summariser should use.
func (c UserConfig) SummariserLLM() LLMConfig {
	if c.Mail.Summariser.UseGlobalLLM {
		return c.LLM
	}
	return c.Mail.Summariser.LLM
}

// Load reads the config file named by ROUTEMESH_CONFIG, falling back to
// config/user.toml. A missing file yields the defaults, not an error; a
// present but malformed file is an error.
func Load() (UserConfig, error) {
	path := os.Getenv(EnvPathVar)
	if path == "" {
		path = DefaultPath
	}
	return LoadFile(path)
}

// LoadFile reads a config file from an explicit path. A missing file
// yields the defaults.
func LoadFile(path string) (UserConfig, error) {
	cfg := DefaultUserConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("config: read %s: %w", path, err)
	}

	data = expandEnvRefs(data)

	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// expandEnvRefs substitutes ${ENV:VAR} references with the environment
// value. Unset variables expand to the empty string.
func expandEnvRefs(data []byte) []byte {
	return envRefPattern.ReplaceAllFunc(data, func(m []byte) []byte {
		name := envRefPattern.FindSubmatch(m)[1]
		return []byte(os.Getenv(string(name)))
	})
}
