package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the application
type Config struct {
	Env string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// Mining pipeline
	Mining MiningConfig

	// Marketplaces
	MercadoLivre MercadoLivreConfig
	Amazon       AmazonConfig
	Shopee       ShopeeConfig

	// Affiliate links
	Affiliate AffiliateConfig

	// Google Sheets export
	Sheets SheetsConfig

	// OpenAI (keywords + captions)
	OpenAI OpenAIConfig

	// Social posting
	Social SocialConfig

	// HTTP API
	APIPort string

	// Logging
	LogLevel  string
	LogFormat string
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	URL string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// MiningConfig holds the pipeline knobs
type MiningConfig struct {
	Niches         []string
	TopPerNiche    int
	SearchLimit    int
	ExpandKeywords bool
	Schedule       string // cron spec with seconds
}

// MercadoLivreConfig holds Mercado Livre API configuration
type MercadoLivreConfig struct {
	BaseURL      string
	SiteID       string
	ClientID     string
	ClientSecret string
	AccessToken  string
	RefreshToken string
}

// AmazonConfig holds Amazon PA-API v5 configuration
type AmazonConfig struct {
	AccessKey  string
	SecretKey  string
	PartnerTag string
	Locale     string // BR, US, AU
}

// ShopeeConfig holds Shopee Partner API v2 configuration
type ShopeeConfig struct {
	BaseURL    string
	PartnerID  string
	PartnerKey string
	ShopID     string
}

// AffiliateConfig holds affiliate link parameters
type AffiliateConfig struct {
	BaseURL string
	ID      string
}

// SheetsConfig holds Google Sheets export configuration
type SheetsConfig struct {
	SpreadsheetID       string
	ServiceAccountEmail string
	PrivateKey          string
}

// OpenAIConfig holds OpenAI API configuration
type OpenAIConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// SocialConfig holds Instagram/Facebook Graph API configuration
type SocialConfig struct {
	InstagramUserID string
	InstagramToken  string
	FacebookPageID  string
	FacebookToken   string
	Schedule        string // cron spec with seconds
	PostDelay       time.Duration
	PostsPerRun     int
}

// defaultNiches is the reference niche list; override with NICHES (comma-separated).
var defaultNiches = []string{
	"maquiagem artística", "motos de trilha", "itens para bebês", "itens de cozinha",
	"moda feminina", "tecnologia", "decoração", "livros", "esportes", "fitness",
	"jardinagem", "brinquedos", "eletrônicos", "acessórios de moda", "pet shop",
	"música", "culinária", "beleza", "hardware", "jogos", "ferramentas", "calçados",
	"móveis", "relógios", "papelaria", "instrumentos musicais", "acampamento",
	"moda masculina", "produtos infantis", "produtos para escritório", "saúde",
	"bem-estar", "produtos esportivos",
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	loadEnvFile()

	cfg := &Config{
		Env: getEnv("ENV", "development"),

		Database: DatabaseConfig{
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 10),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 2),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		Mining: MiningConfig{
			Niches:         getEnvAsSlice("NICHES", defaultNiches),
			TopPerNiche:    getEnvAsInt("TOP_PER_NICHE", 30),
			SearchLimit:    getEnvAsInt("SEARCH_LIMIT", 100),
			ExpandKeywords: getEnvAsBool("EXPAND_KEYWORDS", false),
			Schedule:       getEnv("MINING_SCHEDULE", "0 0 3 * * *"),
		},

		MercadoLivre: MercadoLivreConfig{
			BaseURL:      getEnv("MELI_BASE_URL", "https://api.mercadolibre.com"),
			SiteID:       getEnv("MELI_SITE_ID", "MLB"),
			ClientID:     getEnv("MELI_CLIENT_ID", ""),
			ClientSecret: getEnv("MELI_CLIENT_SECRET", ""),
			AccessToken:  getEnv("MELI_ACCESS_TOKEN", ""),
			RefreshToken: getEnv("MELI_REFRESH_TOKEN", ""),
		},

		Amazon: AmazonConfig{
			AccessKey:  getEnv("AMAZON_ACCESS_KEY", ""),
			SecretKey:  getEnv("AMAZON_SECRET_KEY", ""),
			PartnerTag: getEnv("AMAZON_PARTNER_TAG", ""),
			Locale:     getEnv("AMAZON_LOCALE", "BR"),
		},

		Shopee: ShopeeConfig{
			BaseURL:    getEnv("SHOPEE_BASE_URL", "https://partner.shopeemobile.com/api/v2"),
			PartnerID:  getEnv("SHOPEE_PARTNER_ID", ""),
			PartnerKey: getEnv("SHOPEE_PARTNER_KEY", ""),
			ShopID:     getEnv("SHOPEE_SHOP_ID", ""),
		},

		Affiliate: AffiliateConfig{
			BaseURL: getEnv("AFFILIATE_BASE_URL", "https://www.mercadolivre.com.br/oferta?url="),
			ID:      getEnv("AFFILIATE_ID", ""),
		},

		Sheets: SheetsConfig{
			SpreadsheetID:       getEnv("GOOGLE_SPREADSHEET_ID", ""),
			ServiceAccountEmail: getEnv("GOOGLE_SERVICE_ACCOUNT_EMAIL", ""),
			PrivateKey:          normalizePrivateKey(getEnv("GOOGLE_PRIVATE_KEY", "")),
		},

		OpenAI: OpenAIConfig{
			APIKey:  getEnv("OPENAI_API_KEY", ""),
			Model:   getEnv("OPENAI_MODEL", "gpt-3.5-turbo"),
			BaseURL: getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
		},

		Social: SocialConfig{
			InstagramUserID: getEnv("INSTAGRAM_USER_ID", ""),
			InstagramToken:  getEnv("INSTAGRAM_ACCESS_TOKEN", ""),
			FacebookPageID:  getEnv("FACEBOOK_PAGE_ID", ""),
			FacebookToken:   getEnv("FACEBOOK_ACCESS_TOKEN", ""),
			Schedule:        getEnv("SOCIAL_SCHEDULE", "0 0 12 * * *"),
			PostDelay:       getEnvAsDuration("SOCIAL_POST_DELAY", "5m"),
			PostsPerRun:     getEnvAsInt("SOCIAL_POSTS_PER_RUN", 3),
		},

		APIPort: getEnv("API_PORT", "8080"),

		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	if c.Database.URL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if len(c.Mining.Niches) == 0 {
		return fmt.Errorf("NICHES must not be empty")
	}

	if c.Mining.TopPerNiche <= 0 {
		return fmt.Errorf("TOP_PER_NICHE must be positive")
	}

	return nil
}

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{
		".env",
	}

	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

// normalizePrivateKey restores newlines in a PEM key passed through the environment.
func normalizePrivateKey(key string) string {
	return strings.ReplaceAll(key, `\n`, "\n")
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}

	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	parts := strings.Split(valueStr, ",")
	values := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return defaultValue
	}
	return values
}
