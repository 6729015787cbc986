package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Store     StoreConfig
	Qdrant    QdrantConfig
	Embedding EmbeddingConfig
	GigaChat  GigaChatConfig
	Engine    EngineConfig
	JWT       JWTConfig
	Ledger    LedgerConfig
	Logger    LoggerConfig
}

type LoggerConfig struct {
	Level  string
	Format string // json or console
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	BodyLimitMB  int
	CORSOrigins  string
}

type DatabaseConfig struct {
	Host        string
	Port        string
	User        string
	Password    string
	DBName      string
	SSLMode     string
	MaxConns    int32
	AutoMigrate bool
}

// Store backends.
const (
	BackendPostgres = "postgres"
	BackendQdrant   = "qdrant"
	BackendMemory   = "memory"
)

type StoreConfig struct {
	Backend string
}

type QdrantConfig struct {
	Host       string
	Port       int
	APIKey     string
	UseTLS     bool
	Collection string
}

type EmbeddingConfig struct {
	Provider   string // openai, azure, ollama, gigachat or gemini
	Model      string
	Endpoint   string
	APIKey     string
	Dimensions int
	APIVersion string
	Timeout    time.Duration
	// RequestsPerSecond throttles calls to the provider; 0 disables the limiter.
	RequestsPerSecond float64
	Burst             int
}

type GigaChatConfig struct {
	APIKey             string
	Scope              string
	InsecureSkipVerify bool
	OAuthURL           string
	BaseURL            string
}

// EngineConfig carries the retrieval and extraction tunables. It can be
// overlaid from the engine section of the YAML file named by CONFIG_FILE.
type EngineConfig struct {
	SimilarityFloor     float64 `yaml:"similarity_floor"`
	SemanticLookupFloor float64 `yaml:"semantic_lookup_floor"`
	EmbeddingMaxChars   int     `yaml:"embedding_max_chars"`
	MinSectionLength    int     `yaml:"min_section_length"`
	MinNameLength       int     `yaml:"min_name_length"`
	MinQueryLength      int     `yaml:"min_query_length"`
	DefaultSearchLimit  int     `yaml:"default_search_limit"`
	MaxSearchLimit      int     `yaml:"max_search_limit"`
	DefaultSeverity     string  `yaml:"default_severity"`
	InteractionAliases  bool    `yaml:"interaction_aliases"`
}

type JWTConfig struct {
	SecretKey  string // empty disables authentication on the API
	Issuer     string
	Expiration time.Duration
}

type LedgerConfig struct {
	Path string
}

type fileOverlay struct {
	Engine EngineConfig `yaml:"engine"`
}

func DefaultEngine() EngineConfig {
	return EngineConfig{
		SimilarityFloor:     0.5,
		SemanticLookupFloor: 0,
		EmbeddingMaxChars:   8000,
		MinSectionLength:    50,
		MinNameLength:       3,
		MinQueryLength:      2,
		DefaultSearchLimit:  5,
		MaxSearchLimit:      50,
		DefaultSeverity:     "moderada",
	}
}

// DefaultDimensions is the vector size of each provider's default model.
func DefaultDimensions(provider string) int {
	switch provider {
	case "ollama", "gemini":
		return 768
	case "gigachat":
		return 1024
	default:
		return 1536
	}
}

func Load() (*Config, error) {
	// .env is optional; plain environment variables work the same way
	for _, envFile := range []string{".env", "../.env", "../../.env"} {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout := getEnvInt("SERVER_READ_TIMEOUT", 30)
	writeTimeout := getEnvInt("SERVER_WRITE_TIMEOUT", 60)
	provider := strings.ToLower(getEnv("EMBEDDING_PROVIDER", "openai"))

	engine := DefaultEngine()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := overlayFile(path, &engine); err != nil {
			return nil, err
		}
	}
	applyEngineEnv(&engine)

	cfg := &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
			BodyLimitMB:  getEnvInt("SERVER_BODY_LIMIT_MB", 50),
			CORSOrigins:  getEnv("SERVER_CORS_ORIGINS", "*"),
		},
		Database: DatabaseConfig{
			Host:        getEnv("DB_HOST", "localhost"),
			Port:        getEnv("DB_PORT", "5432"),
			User:        getEnv("DB_USER", "postgres"),
			Password:    getEnv("DB_PASSWORD", "postgres"),
			DBName:      getEnv("DB_NAME", "vademecum"),
			SSLMode:     getEnv("DB_SSLMODE", "disable"),
			MaxConns:    int32(getEnvInt("DB_MAX_CONNS", 10)),
			AutoMigrate: getEnvBool("DB_AUTO_MIGRATE", true),
		},
		Store: StoreConfig{
			Backend: strings.ToLower(getEnv("STORE_BACKEND", BackendPostgres)),
		},
		Qdrant: QdrantConfig{
			Host:       getEnv("QDRANT_HOST", "localhost"),
			Port:       getEnvInt("QDRANT_PORT", 6334),
			APIKey:     getEnv("QDRANT_API_KEY", ""),
			UseTLS:     getEnvBool("QDRANT_USE_TLS", false),
			Collection: getEnv("QDRANT_COLLECTION", "medications"),
		},
		Embedding: EmbeddingConfig{
			Provider:          provider,
			Model:             getEnv("EMBEDDING_MODEL", ""),
			Endpoint:          getEnv("EMBEDDING_ENDPOINT", ""),
			APIKey:            getEnv("EMBEDDING_API_KEY", ""),
			Dimensions:        getEnvInt("EMBEDDING_DIMENSIONS", DefaultDimensions(provider)),
			APIVersion:        getEnv("EMBEDDING_API_VERSION", "2024-02-01"),
			Timeout:           time.Duration(getEnvInt("EMBEDDING_TIMEOUT_SECONDS", 30)) * time.Second,
			RequestsPerSecond: getEnvFloat("EMBEDDING_RPS", 0),
			Burst:             getEnvInt("EMBEDDING_BURST", 1),
		},
		GigaChat: GigaChatConfig{
			APIKey:             getEnv("GIGACHAT_API_KEY", ""),
			Scope:              getEnv("GIGACHAT_SCOPE", "GIGACHAT_API_PERS"),
			InsecureSkipVerify: getEnvBool("GIGACHAT_INSECURE_SKIP_VERIFY", true),
			OAuthURL:           getEnv("GIGACHAT_OAUTH_URL", "https://ngw.devices.sberbank.ru:9443/api/v2/oauth"),
			BaseURL:            getEnv("GIGACHAT_BASE_URL", "https://gigachat.devices.sberbank.ru/api/v1"),
		},
		Engine: engine,
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", ""),
			Issuer:     getEnv("JWT_ISSUER", "vademecum"),
			Expiration: time.Duration(getEnvInt("JWT_EXPIRATION_HOURS", 24)) * time.Hour,
		},
		Ledger: LedgerConfig{
			Path: getEnv("LEDGER_PATH", ".vademecum-ledger.db"),
		},
		Logger: LoggerConfig{
			Level:  getEnv("LOG_LEVEL", "info"),
			Format: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case BackendPostgres, BackendQdrant, BackendMemory:
	default:
		errs = append(errs, fmt.Errorf("STORE_BACKEND: unknown backend %q", c.Store.Backend))
	}
	if c.Embedding.Dimensions <= 0 {
		errs = append(errs, errors.New("EMBEDDING_DIMENSIONS must be positive"))
	}

	e := c.Engine
	if e.SimilarityFloor < 0 || e.SimilarityFloor >= 1 {
		errs = append(errs, fmt.Errorf("engine similarity floor %.2f outside [0, 1)", e.SimilarityFloor))
	}
	if e.SemanticLookupFloor < 0 || e.SemanticLookupFloor >= 1 {
		errs = append(errs, fmt.Errorf("engine semantic lookup floor %.2f outside [0, 1)", e.SemanticLookupFloor))
	}
	if e.EmbeddingMaxChars <= 0 {
		errs = append(errs, errors.New("engine embedding max chars must be positive"))
	}
	if e.MinQueryLength < 1 {
		errs = append(errs, errors.New("engine min query length must be at least 1"))
	}
	if e.DefaultSearchLimit <= 0 || e.MaxSearchLimit < e.DefaultSearchLimit {
		errs = append(errs, fmt.Errorf("engine search limits invalid: default %d, max %d", e.DefaultSearchLimit, e.MaxSearchLimit))
	}
	if strings.TrimSpace(e.DefaultSeverity) == "" {
		errs = append(errs, errors.New("engine default severity must not be empty"))
	}

	return errors.Join(errs...)
}

func overlayFile(path string, engine *EngineConfig) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	overlay := fileOverlay{Engine: *engine}
	if err := yaml.Unmarshal(data, &overlay); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	*engine = overlay.Engine
	return nil
}

// applyEngineEnv lets environment variables win over the YAML overlay.
func applyEngineEnv(e *EngineConfig) {
	e.SimilarityFloor = getEnvFloat("ENGINE_SIMILARITY_FLOOR", e.SimilarityFloor)
	e.SemanticLookupFloor = getEnvFloat("ENGINE_SEMANTIC_LOOKUP_FLOOR", e.SemanticLookupFloor)
	e.EmbeddingMaxChars = getEnvInt("ENGINE_EMBEDDING_MAX_CHARS", e.EmbeddingMaxChars)
	e.MinSectionLength = getEnvInt("ENGINE_MIN_SECTION_LENGTH", e.MinSectionLength)
	e.MinNameLength = getEnvInt("ENGINE_MIN_NAME_LENGTH", e.MinNameLength)
	e.MinQueryLength = getEnvInt("ENGINE_MIN_QUERY_LENGTH", e.MinQueryLength)
	e.DefaultSearchLimit = getEnvInt("ENGINE_DEFAULT_SEARCH_LIMIT", e.DefaultSearchLimit)
	e.MaxSearchLimit = getEnvInt("ENGINE_MAX_SEARCH_LIMIT", e.MaxSearchLimit)
	e.DefaultSeverity = getEnv("ENGINE_DEFAULT_SEVERITY", e.DefaultSeverity)
	e.InteractionAliases = getEnvBool("ENGINE_INTERACTION_ALIASES", e.InteractionAliases)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if v, err := strconv.ParseBool(os.Getenv(key)); err == nil {
		return v
	}
	return defaultValue
}
