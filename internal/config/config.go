package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type ServerConfig struct {
	Port string `toml:"port"`
}

type StorageConfig struct {
	DataDir      string `toml:"data_dir"`
	PlantBackend string `toml:"plant_backend"`
}

type MemgraphConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

type LogConfig struct {
	Level string `toml:"level"`
}

type HTTPConfig struct {
	Timeout Duration `toml:"timeout"`
}

// Config is the process-level configuration. User-editable API settings live
// in Settings, not here.
type Config struct {
	Server   ServerConfig   `toml:"server"`
	Storage  StorageConfig  `toml:"storage"`
	Memgraph MemgraphConfig `toml:"memgraph"`
	Log      LogConfig      `toml:"log"`
	HTTP     HTTPConfig     `toml:"http"`
}

const (
	BackendFile     = "file"
	BackendMemgraph = "memgraph"

	DefaultTimeout = 30 * time.Second
)

// Duration decodes TOML strings like "30s".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func Default() *Config {
	return &Config{
		Server:   ServerConfig{Port: "8080"},
		Storage:  StorageConfig{DataDir: "data", PlantBackend: BackendFile},
		Memgraph: MemgraphConfig{URI: "bolt://localhost:7687"},
		Log:      LogConfig{Level: "info"},
		HTTP:     HTTPConfig{Timeout: Duration{DefaultTimeout}},
	}
}

// Load reads the TOML file at path on top of the defaults. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}
	if err == nil {
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	}

	cfg.applyEnv()

	if cfg.HTTP.Timeout.Duration <= 0 {
		cfg.HTTP.Timeout = Duration{DefaultTimeout}
	}
	switch cfg.Storage.PlantBackend {
	case "":
		cfg.Storage.PlantBackend = BackendFile
	case BackendFile, BackendMemgraph:
	default:
		return nil, fmt.Errorf("unsupported plant backend: %s", cfg.Storage.PlantBackend)
	}

	return cfg, nil
}

func (c *Config) applyEnv() {
	overrides := []struct {
		key string
		dst *string
	}{
		{"PORT", &c.Server.Port},
		{"DATA_DIR", &c.Storage.DataDir},
		{"PLANT_BACKEND", &c.Storage.PlantBackend},
		{"MEMGRAPH_URI", &c.Memgraph.URI},
		{"MEMGRAPH_USER", &c.Memgraph.User},
		{"MEMGRAPH_PASSWORD", &c.Memgraph.Password},
		{"LOG_LEVEL", &c.Log.Level},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

// Path returns the config file location, honouring CONFIG_PATH.
func Path() string {
	if p := os.Getenv("CONFIG_PATH"); p != "" {
		return p
	}
	return "config/config.toml"
}
