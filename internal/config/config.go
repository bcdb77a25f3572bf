package config

import (
	"fmt"
	"log/slog"
	"runtime"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/bjyitu/aiexif/internal/logger"
)

const (
	LogLevelKey      = "log.level"
	OutputFormatKey  = "output.format"
	DBPathKey        = "db.path"
	LoadWorkersKey   = "load.workers"
	LoadBatchSizeKey = "load.batch_size"
	ExtractPathsKey  = "extract.paths"
)

type Config struct {
	Log struct {
		Level string `koanf:"level" validate:"oneof=debug info warn warning error"`
	} `koanf:"log"`
	Output struct {
		Format string `koanf:"format" validate:"oneof=text json yaml"`
	} `koanf:"output"`
	DB struct {
		Path string `koanf:"path"`
	} `koanf:"db"`
	Load struct {
		Workers   int `koanf:"workers" validate:"gte=0,lte=256"`
		BatchSize int `koanf:"batch_size" validate:"gte=1,lte=10000"`
	} `koanf:"load"`
	Extract struct {
		Paths []string `koanf:"paths" validate:"dive,required"`
	} `koanf:"extract"`
}

var validate = validator.New()

func defaults() map[string]any {
	return map[string]any{
		LogLevelKey:      "info",
		OutputFormatKey:  "text",
		DBPathKey:        "",
		LoadWorkersKey:   0,
		LoadBatchSizeKey: 25,
	}
}

// LoadConfig reads the YAML file at path over the built in defaults. An empty
// path yields the defaults alone.
func LoadConfig(path string) (Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Log.Level = strings.ToLower(strings.TrimSpace(cfg.Log.Level))
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))

	if err := validate.Struct(&cfg); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// PromptExtractPaths lists the directories the loader walks when no -dir is
// given.
func (c Config) PromptExtractPaths() []string {
	return c.Extract.Paths
}

// WorkerCount returns the loader pool size, with zero meaning one worker per CPU.
func (c Config) WorkerCount() int {
	if c.Load.Workers > 0 {
		return c.Load.Workers
	}
	return runtime.NumCPU()
}

func (c Config) Level() slog.Level {
	level, err := logger.ParseLevel(c.Log.Level)
	if err != nil {
		return slog.LevelInfo
	}
	return level
}
