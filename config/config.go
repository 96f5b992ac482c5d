package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

type Config struct {
	Database    DatabaseConfig
	Meilisearch MeilisearchConfig
	Indexer     IndexerConfig
	HTTP        HTTPConfig
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	Timeout  time.Duration
	SSL      SSLConfig
}

type SSLConfig struct {
	Mode     string
	RootCert string
	Cert     string
	Key      string
}

type MeilisearchConfig struct {
	Host     string
	APIKey   string
	IndexUID string
	Timeout  time.Duration
}

// IndexerConfig carries the batch tuning knobs plus the identity the
// service reports about itself (name, description, version).
type IndexerConfig struct {
	Site        string
	BatchSize   int
	Concurrency int

	Name        string
	Description string
	Version     string
	Enabled     bool
}

type HTTPConfig struct {
	Addr              string
	ReadHeaderTimeout time.Duration
}

func Load() (*Config, error) {
	dbConfig := &DatabaseConfig{
		Host:     getEnvRequired("DB_HOST"),
		Port:     getEnvRequired("DB_PORT"),
		Name:     getEnvRequired("DB_NAME"),
		User:     getEnvRequired("FORMS_INDEXER_DB_USER"),
		Password: getEnvRequired("FORMS_INDEXER_DB_PASSWORD"),
		Timeout:  DBTimeout,
		SSL: SSLConfig{
			Mode:     getEnvOrDefault("DB_SSL_MODE", "prefer"),
			RootCert: getEnvOrDefault("DB_SSL_ROOT_CERT", ""),
			Cert:     getEnvOrDefault("DB_SSL_CERT", ""),
			Key:      getEnvOrDefault("DB_SSL_KEY", ""),
		},
	}

	if err := dbConfig.ValidateSSLConfig(); err != nil {
		slog.Error("Invalid SSL configuration", "error", err)
		return nil, fmt.Errorf("SSL configuration error: %w", err)
	}

	cfg := &Config{
		Database: *dbConfig,
		Meilisearch: MeilisearchConfig{
			Host:     getEnvRequired("MEILISEARCH_HOST"),
			APIKey:   getEnvOrDefault("MEILISEARCH_API_KEY", ""),
			IndexUID: getEnvOrDefault("MEILISEARCH_INDEX_UID", "forms"),
			Timeout:  MeiliTimeout,
		},
		Indexer: IndexerConfig{
			Site:        getEnvOrDefault("INDEXER_SITE", "default"),
			BatchSize:   IndexBatchSize,
			Concurrency: IndexConcurrency,
			Name:        getEnvOrDefault("INDEXER_NAME", "FormsIndexer"),
			Description: getEnvOrDefault("INDEXER_DESCRIPTION", "Indexer service for form responses"),
			Version:     getEnvOrDefault("INDEXER_VERSION", "1.0.0"),
			Enabled:     getEnvOrDefault("INDEXER_ENABLE", "true") == "true",
		},
		HTTP: HTTPConfig{
			Addr:              HTTPAddr,
			ReadHeaderTimeout: 5 * time.Second,
		},
	}

	slog.Info("Configuration loaded",
		"db_host", cfg.Database.Host,
		"db_sslmode", cfg.Database.SSL.Mode,
		"meilisearch_host", cfg.Meilisearch.Host,
		"index_uid", cfg.Meilisearch.IndexUID,
		"batch_size", cfg.Indexer.BatchSize,
	)

	return cfg, nil
}

func (c *DatabaseConfig) GetDatabaseConnectionString() string {
	baseConn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSL.Mode,
	)

	if c.SSL.RootCert != "" {
		baseConn += fmt.Sprintf(" sslrootcert=%s", c.SSL.RootCert)
	}
	if c.SSL.Cert != "" {
		baseConn += fmt.Sprintf(" sslcert=%s", c.SSL.Cert)
	}
	if c.SSL.Key != "" {
		baseConn += fmt.Sprintf(" sslkey=%s", c.SSL.Key)
	}

	return baseConn
}

func (c *DatabaseConfig) GetDatabaseURL() string {
	baseURL := fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s",
		c.User, c.Password, c.Host, c.Port, c.Name,
	)

	params := fmt.Sprintf("?sslmode=%s", c.SSL.Mode)

	if c.SSL.RootCert != "" {
		params += fmt.Sprintf("&sslrootcert=%s", c.SSL.RootCert)
	}
	if c.SSL.Cert != "" {
		params += fmt.Sprintf("&sslcert=%s", c.SSL.Cert)
	}
	if c.SSL.Key != "" {
		params += fmt.Sprintf("&sslkey=%s", c.SSL.Key)
	}

	return baseURL + params
}

func (c *DatabaseConfig) ValidateSSLConfig() error {
	switch c.SSL.Mode {
	case "disable":
		return fmt.Errorf("SSL disable mode is not allowed")
	case "allow", "prefer":
		return nil
	case "require":
		return nil
	case "verify-ca", "verify-full":
		if c.SSL.RootCert == "" {
			return fmt.Errorf("SSL root certificate required for mode %s", c.SSL.Mode)
		}
		return nil
	default:
		return fmt.Errorf("invalid SSL mode: %s", c.SSL.Mode)
	}
}

func getEnvRequired(key string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	value := os.Getenv(key)
	if value == "" {
		panic(fmt.Sprintf("required environment variable %s is not set", key))
	}
	return value
}

func getEnvOrDefault(key, defaultValue string) string {
	// Check for _FILE suffix
	if fileValue := os.Getenv(key + "_FILE"); fileValue != "" {
		content, err := os.ReadFile(fileValue)
		if err == nil {
			return strings.TrimSpace(string(content))
		}
	}

	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
