package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds the matkb service configuration.
type Config struct {
	HTTP       HTTPConfig       `yaml:"http"`
	Database   DatabaseConfig   `yaml:"database"`
	Metadata   MetadataConfig   `yaml:"metadata"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Generation GenerationConfig `yaml:"generation"`
	Index      IndexConfig      `yaml:"index"`
	Chunking   ChunkingConfig   `yaml:"chunking"`
	Summary    SummaryConfig    `yaml:"summary"`
	Auth       AuthConfig       `yaml:"auth"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// AuthConfig holds API authentication settings. An empty key list
// disables authentication.
type AuthConfig struct {
	APIKeys []string `yaml:"api_keys"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds chunk-store connection settings.
type DatabaseConfig struct {
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
	KeyPrefix        string   `yaml:"key_prefix"`
}

// TableConfig describes one relational table exposed to the query planner.
type TableConfig struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	// SyntheticKey names the row field used to derive candidate keys for
	// tables lacking a document identifier column. Empty for keyed tables.
	SyntheticKey string `yaml:"synthetic_key"`
}

// MetadataConfig holds relational metadata store settings.
type MetadataConfig struct {
	Path           string        `yaml:"path"`
	DefaultTable   string        `yaml:"default_table"`
	DocIDField     string        `yaml:"doc_id_field"`
	MetadataTable  string        `yaml:"metadata_table"`
	FulltextTable  string        `yaml:"fulltext_table"`
	FulltextColumn string        `yaml:"fulltext_column"`
	PageSize       int           `yaml:"page_size"`
	Tables         []TableConfig `yaml:"tables"`
}

// EmbeddingConfig holds embedding provider settings.
type EmbeddingConfig struct {
	APIKey           string `yaml:"api_key"`
	BaseURL          string `yaml:"base_url"`
	Model            string `yaml:"model"`
	Dimensions       int    `yaml:"dimensions"`
	QueryInstruction string `yaml:"query_instruction"`
}

// GenerationConfig holds chat-completion provider settings.
type GenerationConfig struct {
	APIKey      string  `yaml:"api_key"`
	BaseURL     string  `yaml:"base_url"`
	Model       string  `yaml:"model"`
	Temperature float64 `yaml:"temperature"`
	TimeoutSec  int     `yaml:"timeout_sec"`
}

// IndexConfig holds vector index artifact settings.
type IndexConfig struct {
	VectorPath string `yaml:"vector_path"`
	IDListPath string `yaml:"id_list_path"`
}

// ChunkingConfig holds chunker size parameters, in estimated tokens.
type ChunkingConfig struct {
	ChunkSize    int `yaml:"chunk_size"`
	OverlapSize  int `yaml:"overlap_size"`
	MinChunkSize int `yaml:"min_chunk_size"`
}

// SummaryConfig holds summarization fan-out settings.
type SummaryConfig struct {
	MaxWorkers      int `yaml:"max_workers"`
	MaxRetries      int `yaml:"max_retries"`
	MaxFulltextDocs int `yaml:"max_fulltext_docs"`
	DefaultTopK     int `yaml:"default_top_k"`
	MaxTopK         int `yaml:"max_top_k"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Database.KeyPrefix == "" {
		c.Database.KeyPrefix = "matkb:"
	}
	if c.Metadata.DocIDField == "" {
		c.Metadata.DocIDField = "doi"
	}
	if c.Metadata.DefaultTable == "" && len(c.Metadata.Tables) > 0 {
		c.Metadata.DefaultTable = c.Metadata.Tables[0].Name
	}
	if c.Metadata.PageSize <= 0 {
		c.Metadata.PageSize = 100
	}
	if c.Embedding.Dimensions <= 0 {
		c.Embedding.Dimensions = 1024
	}
	if c.Generation.TimeoutSec <= 0 {
		c.Generation.TimeoutSec = 300
	}
	if c.Index.VectorPath == "" {
		c.Index.VectorPath = "data/index/vectors.bin"
	}
	if c.Index.IDListPath == "" {
		c.Index.IDListPath = "data/index/ids.json"
	}
	if c.Chunking.ChunkSize <= 0 {
		c.Chunking.ChunkSize = 768
	}
	if c.Chunking.OverlapSize <= 0 {
		c.Chunking.OverlapSize = 120
	}
	if c.Chunking.MinChunkSize <= 0 {
		c.Chunking.MinChunkSize = 200
	}
	if c.Summary.MaxWorkers <= 0 {
		c.Summary.MaxWorkers = 20
	}
	if c.Summary.MaxRetries <= 0 {
		c.Summary.MaxRetries = 3
	}
	if c.Summary.MaxFulltextDocs <= 0 {
		c.Summary.MaxFulltextDocs = 20
	}
	if c.Summary.DefaultTopK <= 0 {
		c.Summary.DefaultTopK = 5
	}
	if c.Summary.MaxTopK <= 0 {
		c.Summary.MaxTopK = 20
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if len(c.Database.Addrs) == 0 {
		return fmt.Errorf("database.addrs is required")
	}
	if c.Metadata.Path == "" {
		return fmt.Errorf("metadata.path is required")
	}
	if c.Chunking.OverlapSize >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.overlap_size %d must be below chunk_size %d",
			c.Chunking.OverlapSize, c.Chunking.ChunkSize)
	}
	return nil
}

// SyntheticKeyFor returns the synthetic key field configured for a table,
// or empty when the table has a natural document identifier.
func (c *MetadataConfig) SyntheticKeyFor(table string) string {
	for _, t := range c.Tables {
		if t.Name == table {
			return t.SyntheticKey
		}
	}
	return ""
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
