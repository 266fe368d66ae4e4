package helper

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
)

// DatabaseConfiguration holds the connection parameters for PostgreSQL
type DatabaseConfiguration struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
	SSLMode  string
}

// NewDatabaseConfiguration creates a database configuration from environment variables.
// Required: RESOLVER_DB_HOST, RESOLVER_DB_PORT, RESOLVER_DB_USER, RESOLVER_DB_PASSWORD, RESOLVER_DB_NAME.
// Optional: RESOLVER_DB_SSLMODE (defaults to "disable").
func NewDatabaseConfiguration() (*DatabaseConfiguration, error) {
	// A missing .env file is fine, the variables may be set directly.
	_ = godotenv.Load()

	config := &DatabaseConfiguration{
		Host:     os.Getenv("RESOLVER_DB_HOST"),
		Port:     os.Getenv("RESOLVER_DB_PORT"),
		User:     os.Getenv("RESOLVER_DB_USER"),
		Password: os.Getenv("RESOLVER_DB_PASSWORD"),
		Name:     os.Getenv("RESOLVER_DB_NAME"),
		SSLMode:  os.Getenv("RESOLVER_DB_SSLMODE"),
	}

	if config.Host == "" || config.Port == "" || config.User == "" || config.Password == "" || config.Name == "" {
		return nil, NewError("database configuration", fmt.Errorf("missing required environment variables (RESOLVER_DB_HOST, RESOLVER_DB_PORT, RESOLVER_DB_USER, RESOLVER_DB_PASSWORD, RESOLVER_DB_NAME)"))
	}

	if config.SSLMode == "" {
		config.SSLMode = "disable"
	}

	return config, nil
}

// ConnectionString returns the lib/pq connection string for the configuration
func (c *DatabaseConfiguration) ConnectionString() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode,
	)
}

// Database wraps a sql.DB connection with a logger
type Database struct {
	Instance *sql.DB
	Logger   *slog.Logger
	Name     string
}

// NewDatabase opens a connection to the configured PostgreSQL database.
// It panics if the database is unreachable, since no handler can operate without it.
func NewDatabase(name string, config *DatabaseConfiguration, logger *slog.Logger) *Database {
	db, err := sql.Open("postgres", config.ConnectionString())
	if err != nil {
		logger.Error("Failed to open database connection", slog.String("error", err.Error()))
		panic(err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		logger.Error("Failed to ping database", slog.String("error", err.Error()))
		panic(err)
	}

	logger.Info("Connected to database", slog.String("name", name), slog.String("host", config.Host))

	return &Database{
		Instance: db,
		Logger:   logger,
		Name:     name,
	}
}

// Close closes the underlying database connection
func (d *Database) Close() error {
	return d.Instance.Close()
}
