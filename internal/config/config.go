// Package config resolves the agent configuration from command-line flags,
// BUNSHIN_* environment variables, and an optional YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// EnvPrefix is the namespace for environment variables injected by the
// orchestrator that spawned this agent.
const EnvPrefix = "BUNSHIN_"

// Environment variable names read at startup.
const (
	EnvAgentID   = EnvPrefix + "AGENT_ID"
	EnvAgentName = EnvPrefix + "AGENT_NAME"
	EnvProject   = EnvPrefix + "PROJECT"
	EnvTask      = EnvPrefix + "TASK"
	EnvSessionID = EnvPrefix + "SESSION_ID"
	EnvWindowID  = EnvPrefix + "WINDOW_ID"
)

// Defaults applied when neither flag, environment, nor file provides a value.
const (
	DefaultAgentID   = "unknown"
	DefaultAgentName = "agent"
)

// Flags holds raw command-line flag values before resolution.
type Flags struct {
	Model        string
	AgentID      string
	AgentName    string
	Project      string
	Task         string
	ConfigPath   string
	TranscriptDB string
	StatusPort   int
	Heartbeat    time.Duration
}

// FileConfig mirrors the optional YAML config file. The model is deliberately
// absent: it must come from the command line so a misconfigured spawn fails
// fast with a usage error.
type FileConfig struct {
	AgentID      string `yaml:"agent_id"`
	AgentName    string `yaml:"agent_name"`
	Project      string `yaml:"project"`
	Task         string `yaml:"task"`
	TranscriptDB string `yaml:"transcript_db"`
	StatusPort   int    `yaml:"status_port"`
	Heartbeat    string `yaml:"heartbeat"`
}

// Config is the fully resolved agent configuration.
type Config struct {
	Model            string
	AgentID          string
	AgentName        string
	Project          string
	Task             string
	SessionID        string
	SessionGenerated bool
	WindowID         string
	TranscriptDB     string
	StatusPort       int
	Heartbeat        time.Duration
}

// LoadFile reads a YAML config file from path.
func LoadFile(path string) (*FileConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return ParseFile(data)
}

// ParseFile unmarshals YAML bytes into a FileConfig.
func ParseFile(data []byte) (*FileConfig, error) {
	var fc FileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	return &fc, nil
}

// Resolve merges flag, environment, file, and default values into a Config.
// Precedence per field: flag, then environment, then file, then default.
// lookupEnv defaults to os.LookupEnv; tests inject their own.
func Resolve(flags Flags, lookupEnv func(string) (string, bool)) (*Config, error) {
	if lookupEnv == nil {
		lookupEnv = os.LookupEnv
	}
	env := func(name string) string {
		v, _ := lookupEnv(name)
		return v
	}

	var file FileConfig
	if flags.ConfigPath != "" {
		fc, err := LoadFile(flags.ConfigPath)
		if err != nil {
			return nil, err
		}
		file = *fc
	}

	cfg := &Config{
		Model:        flags.Model,
		AgentID:      firstNonEmpty(flags.AgentID, env(EnvAgentID), file.AgentID, DefaultAgentID),
		AgentName:    firstNonEmpty(flags.AgentName, env(EnvAgentName), file.AgentName, DefaultAgentName),
		Project:      firstNonEmpty(flags.Project, env(EnvProject), file.Project),
		Task:         firstNonEmpty(flags.Task, env(EnvTask), file.Task),
		SessionID:    env(EnvSessionID),
		WindowID:     env(EnvWindowID),
		TranscriptDB: firstNonEmpty(flags.TranscriptDB, file.TranscriptDB),
		StatusPort:   flags.StatusPort,
	}
	if cfg.StatusPort == 0 {
		cfg.StatusPort = file.StatusPort
	}

	cfg.Heartbeat = flags.Heartbeat
	if cfg.Heartbeat == 0 && file.Heartbeat != "" {
		d, err := time.ParseDuration(file.Heartbeat)
		if err != nil {
			return nil, fmt.Errorf("config: parse heartbeat %q: %w", file.Heartbeat, err)
		}
		cfg.Heartbeat = d
	}

	if cfg.Model == "" {
		return nil, fmt.Errorf("config: model is required")
	}

	// The orchestrator normally supplies a session ID. Generate one otherwise
	// so transcript rows and status output always carry a correlatable ID.
	if cfg.SessionID == "" {
		cfg.SessionID = uuid.NewString()
		cfg.SessionGenerated = true
	}

	return cfg, nil
}

// firstNonEmpty returns the first non-empty value, or "".
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
