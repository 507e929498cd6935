// Package config loads service configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTP    HTTP    `yaml:"http"`
	Data    Data    `yaml:"data"`
	Gen     Gen     `yaml:"generation"`
	Render  Render  `yaml:"render"`
	Reaper  Reaper  `yaml:"reaper"`
	Storage Storage `yaml:"storage"`
	Log     Log     `yaml:"log"`
	// Workers is the number of concurrent pipeline executions.
	Workers int `yaml:"workers"`
}

type HTTP struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type Data struct {
	// Root holds all job-scoped state, split by purpose into
	// jobs/ (records), code/ (generated sources), media/ (artifacts)
	// and logs/ (render output).
	Root string `yaml:"root"`
}

type Gen struct {
	GeminiAPIKey    string   `yaml:"gemini_api_key"`
	GeminiModels    []string `yaml:"gemini_models"`
	AnthropicAPIKey string   `yaml:"anthropic_api_key"`
	AnthropicModel  string   `yaml:"anthropic_model"`
	// RequestTimeoutSeconds bounds a single provider attempt.
	RequestTimeoutSeconds int `yaml:"request_timeout_seconds"`
}

type Render struct {
	PythonBin      string `yaml:"python_bin"`
	FFmpegBin      string `yaml:"ffmpeg_bin"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	PixelWidth     int    `yaml:"pixel_width"`
	PixelHeight    int    `yaml:"pixel_height"`
	FrameRate      int    `yaml:"frame_rate"`
}

type Reaper struct {
	IntervalSeconds  int `yaml:"interval_seconds"`
	RetentionSeconds int `yaml:"retention_seconds"`
}

type Storage struct {
	// Provider selects the remote tier: "localfs" (no remote) or "gdrive".
	Provider string `yaml:"provider"`
	GDrive   GDrive `yaml:"gdrive"`
}

type GDrive struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	RefreshToken string `yaml:"refresh_token"`
	FolderID     string `yaml:"folder_id"`
}

type Log struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTP{
			Port:        "8080",
			CORSOrigins: []string{"http://localhost:3000"},
		},
		Data: Data{Root: "./outputs"},
		Gen: Gen{
			GeminiModels:          []string{"gemini-2.5-pro", "gemini-2.0-flash", "gemini-1.5-pro"},
			AnthropicModel:        "claude-3-5-haiku-20241022",
			RequestTimeoutSeconds: 60,
		},
		Render: Render{
			PythonBin:      "python3",
			FFmpegBin:      "ffmpeg",
			TimeoutSeconds: 90,
			PixelWidth:     1280,
			PixelHeight:    720,
			FrameRate:      24,
		},
		Reaper: Reaper{
			IntervalSeconds:  3600,
			RetentionSeconds: 86400,
		},
		Storage: Storage{Provider: "localfs"},
		Log:     Log{Level: "info", Format: "json"},
		Workers: 4,
	}
}

// Load reads the YAML file at path (skipped when path is empty or missing),
// applies environment overrides and validates the result.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return Config{}, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	setStr(&c.HTTP.Port, "HTTP_PORT")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		c.HTTP.CORSOrigins = splitCSV(v)
	}
	setStr(&c.Data.Root, "DATA_ROOT")
	setStr(&c.Gen.GeminiAPIKey, "GEMINI_API_KEY")
	setStr(&c.Gen.AnthropicAPIKey, "ANTHROPIC_API_KEY")
	setStr(&c.Render.PythonBin, "PYTHON_BIN")
	setStr(&c.Render.FFmpegBin, "FFMPEG_BIN")
	setInt(&c.Render.TimeoutSeconds, "RENDER_TIMEOUT_SECONDS")
	setInt(&c.Reaper.IntervalSeconds, "REAPER_INTERVAL_SECONDS")
	setInt(&c.Reaper.RetentionSeconds, "JOB_RETENTION_SECONDS")
	setStr(&c.Storage.Provider, "STORAGE_PROVIDER")
	setStr(&c.Storage.GDrive.ClientID, "GDRIVE_CLIENT_ID")
	setStr(&c.Storage.GDrive.ClientSecret, "GDRIVE_CLIENT_SECRET")
	setStr(&c.Storage.GDrive.RefreshToken, "GDRIVE_REFRESH_TOKEN")
	setStr(&c.Storage.GDrive.FolderID, "GDRIVE_FOLDER_ID")
	setStr(&c.Log.Level, "LOG_LEVEL")
	setStr(&c.Log.Format, "LOG_FORMAT")
	setInt(&c.Workers, "PIPELINE_WORKERS")
}

func (c *Config) validate() error {
	if c.Workers <= 0 {
		return fmt.Errorf("workers must be positive, got %d", c.Workers)
	}
	if c.Render.TimeoutSeconds <= 0 {
		return fmt.Errorf("render timeout must be positive, got %d", c.Render.TimeoutSeconds)
	}
	if c.Reaper.RetentionSeconds <= c.Render.TimeoutSeconds {
		return fmt.Errorf("job retention (%ds) must exceed the render timeout (%ds)",
			c.Reaper.RetentionSeconds, c.Render.TimeoutSeconds)
	}
	switch c.Storage.Provider {
	case "localfs", "gdrive":
	default:
		return fmt.Errorf("unknown storage provider: %s", c.Storage.Provider)
	}
	return nil
}

func (c Config) RenderTimeout() time.Duration {
	return time.Duration(c.Render.TimeoutSeconds) * time.Second
}

func (c Config) GenRequestTimeout() time.Duration {
	return time.Duration(c.Gen.RequestTimeoutSeconds) * time.Second
}

func (c Config) ReaperInterval() time.Duration {
	return time.Duration(c.Reaper.IntervalSeconds) * time.Second
}

func (c Config) JobRetention() time.Duration {
	return time.Duration(c.Reaper.RetentionSeconds) * time.Second
}

// Job-scoped directory layout under the data root.

func (c Config) JobsDir() string  { return filepath.Join(c.Data.Root, "jobs") }
func (c Config) CodeDir() string  { return filepath.Join(c.Data.Root, "code") }
func (c Config) MediaDir() string { return filepath.Join(c.Data.Root, "media") }
func (c Config) LogsDir() string  { return filepath.Join(c.Data.Root, "logs") }

// EnsureDirs creates the data layout.
func (c Config) EnsureDirs() error {
	for _, dir := range []string{c.JobsDir(), c.CodeDir(), c.MediaDir(), c.LogsDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	return nil
}

func setStr(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func splitCSV(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
