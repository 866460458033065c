package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port string `yaml:"port"`

	// Auth for the build endpoints. Empty disables uploads.
	APIKey string `yaml:"api_key"`

	// Index output
	IndexPath  string `yaml:"index_path"`
	SQLitePath string `yaml:"sqlite_path"`

	// Source metadata
	DocCelex string `yaml:"doc_celex"`
	DocLang  string `yaml:"doc_lang"`

	// Chunking
	MaxChars     int `yaml:"max_chars"`
	ChunkOverlap int `yaml:"chunk_overlap"`
	SplitWorkers int `yaml:"split_workers"`

	// Build worker pool
	WorkerCount  int `yaml:"worker_count"`
	MaxQueueSize int `yaml:"max_queue_size"`

	// Upload limits
	MaxUploadBytes int64 `yaml:"max_upload_bytes"`

	// Job state
	JobTTL time.Duration `yaml:"job_ttl"`

	// PDF
	PDFFallbackPdftotext bool `yaml:"pdf_fallback_pdftotext"`

	// Search
	SearchMaxLimit int `yaml:"search_max_limit"`

	// Reload the index when the file changes on disk.
	WatchIndex    bool          `yaml:"watch_index"`
	WatchDebounce time.Duration `yaml:"watch_debounce"`

	Metrics bool `yaml:"metrics"`
}

// Defaults returns the configuration used when nothing is set.
func Defaults() Config {
	return Config{
		Port:                 "8090",
		IndexPath:            "data/regulations/32021R0782_DA_chunks.json",
		DocCelex:             "32021R0782",
		DocLang:              "DA",
		MaxChars:             1400,
		ChunkOverlap:         200,
		SplitWorkers:         4,
		WorkerCount:          2,
		MaxQueueSize:         16,
		MaxUploadBytes:       52428800, // 50MB
		JobTTL:               1 * time.Hour,
		PDFFallbackPdftotext: true,
		SearchMaxLimit:       20,
		WatchIndex:           true,
		WatchDebounce:        500 * time.Millisecond,
		Metrics:              true,
	}
}

// Load builds the configuration from defaults, an optional YAML file named
// by REGINDEX_CONFIG, and environment variables, in increasing priority.
func Load() (Config, error) {
	base := Defaults()
	if path := os.Getenv("REGINDEX_CONFIG"); path != "" {
		fileCfg, err := LoadFromFile(path)
		if err != nil {
			return Config{}, err
		}
		base = fileCfg
	}

	cfg := Config{
		Port: envOr("PORT", base.Port),

		APIKey: envOr("REGINDEX_API_KEY", base.APIKey),

		IndexPath:  envOr("INDEX_PATH", base.IndexPath),
		SQLitePath: envOr("SQLITE_PATH", base.SQLitePath),

		DocCelex: envOr("DOC_CELEX", base.DocCelex),
		DocLang:  envOr("DOC_LANG", base.DocLang),

		MaxChars:     envInt("MAX_CHARS", base.MaxChars),
		ChunkOverlap: envInt("CHUNK_OVERLAP", base.ChunkOverlap),
		SplitWorkers: envInt("SPLIT_WORKERS", base.SplitWorkers),

		WorkerCount:  envInt("WORKER_COUNT", base.WorkerCount),
		MaxQueueSize: envInt("MAX_QUEUE_SIZE", base.MaxQueueSize),

		MaxUploadBytes: envInt64("MAX_UPLOAD_BYTES", base.MaxUploadBytes),

		JobTTL: envDuration("JOB_TTL", base.JobTTL),

		PDFFallbackPdftotext: envBool("PDF_FALLBACK_PDFTOTEXT", base.PDFFallbackPdftotext),

		SearchMaxLimit: envInt("SEARCH_MAX_LIMIT", base.SearchMaxLimit),

		WatchIndex:    envBool("WATCH_INDEX", base.WatchIndex),
		WatchDebounce: envDuration("WATCH_DEBOUNCE", base.WatchDebounce),

		Metrics: envBool("METRICS_ENABLED", base.Metrics),
	}

	if cfg.SplitWorkers <= 0 {
		cfg.SplitWorkers = 4
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.MaxQueueSize <= 0 {
		cfg.MaxQueueSize = 16
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 52428800
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = 1400
	}
	if cfg.JobTTL <= 0 {
		cfg.JobTTL = 1 * time.Hour
	}
	if cfg.SearchMaxLimit <= 0 {
		cfg.SearchMaxLimit = 20
	}
	if cfg.WatchDebounce <= 0 {
		cfg.WatchDebounce = 500 * time.Millisecond
	}

	return cfg, nil
}

// LoadFromFile reads a YAML config file on top of the defaults.
func LoadFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := Defaults()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.IndexPath == "" {
		return fmt.Errorf("INDEX_PATH is required")
	}
	if c.ChunkOverlap < 0 {
		return fmt.Errorf("CHUNK_OVERLAP must be >= 0, got %d", c.ChunkOverlap)
	}
	if c.ChunkOverlap >= c.MaxChars {
		return fmt.Errorf("CHUNK_OVERLAP (%d) must be less than MAX_CHARS (%d)", c.ChunkOverlap, c.MaxChars)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envInt64(key string, fallback int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
