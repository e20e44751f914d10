package conf

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docgate/docgate/internals/env"
	"github.com/docgate/docgate/internals/version"

	z "github.com/Oudwins/zog"
	"gopkg.in/yaml.v3"
)

type DocumentBackend string

const (
	BackendFile     DocumentBackend = "file"
	BackendSQLite   DocumentBackend = "sqlite"
	BackendPostgres DocumentBackend = "postgres"
)

func DocumentBackends() []DocumentBackend {
	return []DocumentBackend{BackendFile, BackendSQLite, BackendPostgres}
}

type Config struct {
	Version   string          `json:"-"`
	Server    ServerConfig    `zog:"server"`
	Documents DocumentsConfig `zog:"documents"`
	RBAC      RBACConfig      `zog:"rbac"`
	Stream    StreamConfig    `zog:"stream"`
	Limits    LimitsConfig    `zog:"limits"`
	Log       LogConfig       `zog:"log"`
}

type ServerConfig struct {
	DataDir string `zog:"data_dir"`
}

type DocumentsConfig struct {
	Backend DocumentBackend `zog:"backend"`
	// Dir is used by the file backend.
	Dir string `zog:"dir"`
	// DSN is used by the sql backends. For sqlite it is a file path.
	DSN string `zog:"dsn"`
}

type RBACConfig struct {
	ModelPath  string `zog:"model_path"`
	PolicyPath string `zog:"policy_path"`
	Watch      bool   `zog:"watch"`
}

type StreamConfig struct {
	PollIntervalMs int `zog:"poll_interval_ms"`
}

type LimitsConfig struct {
	// CallsPerSecond of zero disables throttling of tool calls.
	CallsPerSecond int `zog:"calls_per_second"`
	Burst          int `zog:"burst"`
}

type LogConfig struct {
	Level string `zog:"level"`
}

func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Stream.PollIntervalMs) * time.Millisecond
}

var serverSchema = z.Struct(z.Shape{
	"DataDir": z.String().Default("~/.docgate").Trim().Transform(expandPathTransform),
})

var documentsSchema = z.Struct(z.Shape{
	"Backend": z.StringLike[DocumentBackend]().Default(BackendFile).OneOf(DocumentBackends()),
	"Dir":     z.String().Optional().Trim().Transform(expandPathTransform),
	"DSN":     z.String().Optional().Trim(),
})

var rbacSchema = z.Struct(z.Shape{
	"ModelPath":  z.String().Optional().Trim().Transform(expandPathTransform),
	"PolicyPath": z.String().Optional().Trim().Transform(expandPathTransform),
	"Watch":      z.Bool().Default(true),
})

var streamSchema = z.Struct(z.Shape{
	"PollIntervalMs": z.Int().Default(200).GT(0),
})

var limitsSchema = z.Struct(z.Shape{
	"CallsPerSecond": z.Int().Default(10).GTE(0),
	"Burst":          z.Int().Default(20).GTE(0),
})

var logSchema = z.Struct(z.Shape{
	"Level": z.String().Default("info").Trim().OneOf([]string{"debug", "info", "warn", "error"}),
})

var ConfigSchema = z.Struct(z.Shape{
	"Server":    serverSchema,
	"Documents": documentsSchema,
	"RBAC":      rbacSchema,
	"Stream":    streamSchema,
	"Limits":    limitsSchema,
	"Log":       logSchema,
})

var sections = []string{"server", "documents", "rbac", "stream", "limits", "log"}

var config *Config

func GetConfig() *Config {
	if config == nil {
		parsed, err := Load(env.Get().DATA_DIR)
		if err != nil {
			log.Fatal("[Docgate] Failed to load config: ", err)
		}
		config = parsed
	}
	return config
}

// Load reads docgate.yaml or docgate.json from dataDir. An empty dataDir uses
// the default data directory. A missing file yields the defaults.
func Load(dataDir string) (*Config, error) {
	dataDir, err := expandPath(strings.TrimSpace(dataDir))
	if err != nil {
		return nil, err
	}

	lookupDir := dataDir
	if lookupDir == "" {
		defaults, err := parse(map[string]any{})
		if err != nil {
			return nil, err
		}
		lookupDir = defaults.Server.DataDir
	}

	payload, err := readConfigFile(lookupDir)
	if err != nil {
		return nil, err
	}
	if dataDir != "" {
		ensureSections(payload)
		payload["server"].(map[string]any)["data_dir"] = dataDir
	}

	parsed, err := parse(payload)
	if err != nil {
		return nil, err
	}
	parsed.resolvePaths()
	return parsed, nil
}

func parse(payload map[string]any) (*Config, error) {
	ensureSections(payload)
	parsed := &Config{}
	if errs := ConfigSchema.Parse(payload, parsed); errs != nil {
		return nil, fmt.Errorf("invalid config: %v", z.Issues.Flatten(errs))
	}
	parsed.Version = version.Version()
	return parsed, nil
}

func readConfigFile(dir string) (map[string]any, error) {
	candidates := []struct {
		name   string
		decode func([]byte, any) error
	}{
		{name: "docgate.yaml", decode: yaml.Unmarshal},
		{name: "docgate.yml", decode: yaml.Unmarshal},
		{name: "docgate.json", decode: json.Unmarshal},
	}

	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate.name)
		data, err := os.ReadFile(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		payload := map[string]any{}
		if strings.TrimSpace(string(data)) == "" {
			return payload, nil
		}
		if err := candidate.decode(data, &payload); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return payload, nil
	}
	return map[string]any{}, nil
}

func ensureSections(payload map[string]any) {
	for _, key := range sections {
		if _, ok := payload[key].(map[string]any); !ok {
			payload[key] = map[string]any{}
		}
	}
}

func (c *Config) resolvePaths() {
	c.Server.DataDir = filepath.Clean(c.Server.DataDir)
	if c.Documents.Dir == "" {
		c.Documents.Dir = filepath.Join(c.Server.DataDir, "documents")
	}
	if c.Documents.DSN == "" && c.Documents.Backend == BackendSQLite {
		c.Documents.DSN = filepath.Join(c.Server.DataDir, "documents.db")
	}
	if c.RBAC.ModelPath == "" {
		c.RBAC.ModelPath = filepath.Join(c.Server.DataDir, "rbac", "model.conf")
	}
	if c.RBAC.PolicyPath == "" {
		c.RBAC.PolicyPath = filepath.Join(c.Server.DataDir, "rbac", "policy.csv")
	}
}

func expandPathTransform(ptr *string, c z.Ctx) error {
	expanded, err := expandPath(*ptr)
	*ptr = expanded
	return err
}

func expandPath(path string) (string, error) {
	if path == "" {
		return path, nil
	}
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		if path == "~" {
			return home, nil
		}
		return filepath.Join(home, strings.TrimPrefix(path, "~/")), nil
	}
	return path, nil
}
