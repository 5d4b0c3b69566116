// Package config loads host settings from the environment (COACH_*),
// optionally seeded from .env files.
package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/aretw0/coach/internal/logging"
	"github.com/aretw0/coach/internal/runtime"
	"github.com/joho/godotenv"
)

// Session store kinds.
const (
	StoreMemory = "memory"
	StoreFile   = "file"
	StoreRedis  = "redis"
)

// Script source kinds. SourceAuto picks one from the shape of Script.
const (
	SourceAuto = "auto"
	SourceFile = "file"
	SourceLoam = "loam"
	SourceHTTP = "http"
)

// Config holds every setting of the coach hosts.
type Config struct {
	// APIBase is the backend root URL. Empty runs against the offline backend.
	APIBase        string
	BackendTimeout time.Duration

	// Script is a directory or an assets base URL. Empty uses the bundled script.
	Script       string
	ScriptSource string
	StartState   string

	ChunkSize    int
	TypingBase   time.Duration
	TypingJitter time.Duration
	WidgetDelay  time.Duration

	Store         string
	StoreDir      string
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	SessionTTL    time.Duration

	// StoreKey is a base64 AES-256 key. When set, persisted sessions are encrypted.
	StoreKey string
	// StoreFallbackKeys still decrypt sessions written before a key rotation.
	StoreFallbackKeys []string
	// PIIKeys are patterns of session keys masked before persisting.
	PIIKeys []string

	LogLevel     string
	Port         int
	MaxInputSize int
	// InputRate is the sustained inputs per second per session. 0 disables the limit.
	InputRate  float64
	InputBurst int
}

// Load reads .env files (missing ones are skipped), then the environment.
// With no paths, ".env" in the working directory is tried.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read env file: %w", err)
	}

	cfg := &Config{
		APIBase:        getEnv("COACH_API_BASE", ""),
		BackendTimeout: getEnvDuration("COACH_BACKEND_TIMEOUT", 10*time.Second),
		Script:         getEnv("COACH_SCRIPT", ""),
		ScriptSource:   getEnv("COACH_SCRIPT_SOURCE", SourceAuto),
		StartState:     getEnv("COACH_START_STATE", ""),
		ChunkSize:      getEnvInt("COACH_CHUNK_SIZE", runtime.DefaultChunkSize),
		TypingBase:     getEnvDuration("COACH_TYPING_BASE", 400*time.Millisecond),
		TypingJitter:   getEnvDuration("COACH_TYPING_JITTER", 400*time.Millisecond),
		WidgetDelay:    getEnvDuration("COACH_WIDGET_DELAY", 300*time.Millisecond),
		Store:          getEnv("COACH_STORE", StoreMemory),
		StoreDir:       getEnv("COACH_STORE_DIR", ""),
		RedisAddr:      getEnv("COACH_REDIS_ADDR", "localhost:6379"),
		RedisPassword:  os.Getenv("COACH_REDIS_PASSWORD"),
		RedisDB:        getEnvInt("COACH_REDIS_DB", 0),
		SessionTTL:     getEnvDuration("COACH_SESSION_TTL", 24*time.Hour),

		StoreKey:          os.Getenv("COACH_STORE_KEY"),
		StoreFallbackKeys: getEnvList("COACH_STORE_FALLBACK_KEYS"),
		PIIKeys:           getEnvList("COACH_PII_KEYS"),

		LogLevel:     getEnv("COACH_LOG_LEVEL", "info"),
		Port:         getEnvInt("COACH_PORT", 8080),
		MaxInputSize: getEnvInt("COACH_MAX_INPUT_SIZE", 4096),
		InputRate:    getEnvFloat("COACH_INPUT_RATE", 0),
		InputBurst:   getEnvInt("COACH_INPUT_BURST", 5),
	}

	return cfg, cfg.Validate()
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	var errs []error
	if c.ChunkSize < 0 {
		errs = append(errs, fmt.Errorf("COACH_CHUNK_SIZE must be >= 0, got %d", c.ChunkSize))
	}
	if c.TypingBase < 0 || c.TypingJitter < 0 || c.WidgetDelay < 0 {
		errs = append(errs, errors.New("typing delays must not be negative"))
	}
	if c.BackendTimeout <= 0 {
		errs = append(errs, fmt.Errorf("COACH_BACKEND_TIMEOUT must be positive, got %s", c.BackendTimeout))
	}
	switch c.Store {
	case StoreMemory, StoreFile, StoreRedis:
	default:
		errs = append(errs, fmt.Errorf("COACH_STORE must be memory, file or redis, got %q", c.Store))
	}
	switch c.ScriptSource {
	case SourceAuto, SourceFile, SourceLoam, SourceHTTP:
	default:
		errs = append(errs, fmt.Errorf("COACH_SCRIPT_SOURCE must be auto, file, loam or http, got %q", c.ScriptSource))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("COACH_PORT must be 1-65535, got %d", c.Port))
	}
	if c.MaxInputSize <= 0 {
		errs = append(errs, fmt.Errorf("COACH_MAX_INPUT_SIZE must be positive, got %d", c.MaxInputSize))
	}
	if c.InputRate < 0 || c.InputBurst < 1 {
		errs = append(errs, fmt.Errorf("COACH_INPUT_RATE must be >= 0 and COACH_INPUT_BURST >= 1, got %g/%d", c.InputRate, c.InputBurst))
	}
	if _, _, err := c.StoreKeys(); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("COACH_LOG_LEVEL: %w", err))
	}
	return errors.Join(errs...)
}

// StoreKeys decodes the session encryption keys. A nil active key disables encryption.
func (c *Config) StoreKeys() (active []byte, fallback [][]byte, err error) {
	if c.StoreKey == "" {
		if len(c.StoreFallbackKeys) > 0 {
			return nil, nil, errors.New("COACH_STORE_FALLBACK_KEYS requires COACH_STORE_KEY")
		}
		return nil, nil, nil
	}
	decode := func(name, v string) ([]byte, error) {
		key, err := base64.StdEncoding.DecodeString(v)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid base64: %w", name, err)
		}
		if len(key) != 32 {
			return nil, fmt.Errorf("%s: must decode to 32 bytes, got %d", name, len(key))
		}
		return key, nil
	}
	if active, err = decode("COACH_STORE_KEY", c.StoreKey); err != nil {
		return nil, nil, err
	}
	for i, v := range c.StoreFallbackKeys {
		key, err := decode(fmt.Sprintf("COACH_STORE_FALLBACK_KEYS[%d]", i), v)
		if err != nil {
			return nil, nil, err
		}
		fallback = append(fallback, key)
	}
	return active, fallback, nil
}

// Pacer builds the message pacing from the typing settings.
func (c *Config) Pacer() *runtime.Pacer {
	return &runtime.Pacer{
		ChunkSize:   c.ChunkSize,
		Base:        c.TypingBase,
		Jitter:      c.TypingJitter,
		AfterWidget: c.WidgetDelay,
	}
}

// Logger builds the application logger at the configured level.
func (c *Config) Logger() *slog.Logger {
	level, _ := logging.ParseLevel(c.LogLevel)
	return logging.New(level)
}

// ResolveSource returns the concrete script source kind for c.Script.
func (c *Config) ResolveSource() string {
	if c.ScriptSource != SourceAuto {
		return c.ScriptSource
	}
	if strings.HasPrefix(c.Script, "http://") || strings.HasPrefix(c.Script, "https://") {
		return SourceHTTP
	}
	for _, name := range []string{"flow.json", "flow.yaml", "flow.yml"} {
		if _, err := os.Stat(c.Script + string(os.PathSeparator) + name); err == nil {
			return SourceFile
		}
	}
	return SourceLoam
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvFloat(key string, defaultVal float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return defaultVal
}
