package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Database     DatabaseConfig     `yaml:"database"`
	SMTP         SMTPConfig         `yaml:"smtp"`
	JWT          JWTConfig          `yaml:"jwt"`
	Log          LogConfig          `yaml:"log"`
	CpiGateway   CpiGatewayConfig   `yaml:"cpi_gateway"`
	Verification VerificationConfig `yaml:"verification"`
	Scheduler    SchedulerConfig    `yaml:"scheduler"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	PortalURL string `yaml:"portal_url"` // public base URL used in invitation emails
}

// DatabaseConfig contains PostgreSQL connection settings
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"ssl_mode"`
}

// SMTPConfig contains email service settings
type SMTPConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// JWTConfig contains invitation session token settings
type JWTConfig struct {
	Secret              string `yaml:"secret"`
	SessionTokenExpiry  int    `yaml:"session_token_expiry_minutes"`
}

// LogConfig contains logging settings
type LogConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "text"
}

// CpiGatewayConfig contains CPI API Gateway credentials and endpoints
type CpiGatewayConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	OauthURL     string `yaml:"oauth_url"` // CMS IDM token endpoint base
	BaseURL      string `yaml:"base_url"`
}

// VerificationConfig bounds the batch re-verification jobs
type VerificationConfig struct {
	AoMaxRecords     int `yaml:"ao_max_records"`
	AoLookbackHours  int `yaml:"ao_lookback_hours"`
	OrgMaxRecords    int `yaml:"org_max_records"`
	OrgLookbackHours int `yaml:"org_lookback_hours"`
}

// SchedulerConfig contains cron schedule settings
type SchedulerConfig struct {
	VerifyAos           string `yaml:"verify_aos"`
	VerifyOrganizations string `yaml:"verify_organizations"`
}

// Load reads configuration from a YAML file
func Load(configPath string) (*Config, error) {
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.overrideWithEnv()
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// overrideWithEnv overrides config values with environment variables
func (c *Config) overrideWithEnv() {
	// Database
	if val := os.Getenv("DB_HOST"); val != "" {
		c.Database.Host = val
	}
	if val := os.Getenv("DB_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.Database.Port = port
		}
	}
	if val := os.Getenv("DB_USER"); val != "" {
		c.Database.User = val
	}
	if val := os.Getenv("DB_PASSWORD"); val != "" {
		c.Database.Password = val
	}
	if val := os.Getenv("DB_NAME"); val != "" {
		c.Database.Database = val
	}

	// SMTP
	if val := os.Getenv("SMTP_HOST"); val != "" {
		c.SMTP.Host = val
	}
	if val := os.Getenv("SMTP_PORT"); val != "" {
		if port, err := strconv.Atoi(val); err == nil {
			c.SMTP.Port = port
		}
	}
	if val := os.Getenv("SMTP_USER"); val != "" {
		c.SMTP.User = val
	}
	if val := os.Getenv("SMTP_PASSWORD"); val != "" {
		c.SMTP.Password = val
	}

	// JWT
	if val := os.Getenv("JWT_SECRET"); val != "" {
		c.JWT.Secret = val
	}

	// CPI API Gateway
	if val := os.Getenv("CPI_API_GW_CLIENT_ID"); val != "" {
		c.CpiGateway.ClientID = val
	}
	if val := os.Getenv("CPI_API_GW_CLIENT_SECRET"); val != "" {
		c.CpiGateway.ClientSecret = val
	}
	if val := os.Getenv("CMS_IDM_OAUTH_URL"); val != "" {
		c.CpiGateway.OauthURL = val
	}
	if val := os.Getenv("CPI_API_GW_BASE_URL"); val != "" {
		c.CpiGateway.BaseURL = val
	}

	// Verification batch bounds. The AO job and the organization job read
	// differently named variables for historical reasons.
	if val := os.Getenv("MAX_RECORDS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Verification.AoMaxRecords = n
		}
	}
	if val := os.Getenv("LOOKBACK_HOURS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Verification.AoLookbackHours = n
		}
	}
	if val := os.Getenv("VERIFICATION_MAX_RECORDS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Verification.OrgMaxRecords = n
		}
	}
	if val := os.Getenv("VERIFICATION_LOOKBACK_HOURS"); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			c.Verification.OrgLookbackHours = n
		}
	}
}

func (c *Config) applyDefaults() {
	if c.Verification.AoMaxRecords == 0 {
		c.Verification.AoMaxRecords = 10
	}
	if c.Verification.AoLookbackHours == 0 {
		c.Verification.AoLookbackHours = 144
	}
	if c.Verification.OrgMaxRecords == 0 {
		c.Verification.OrgMaxRecords = 10
	}
	if c.Verification.OrgLookbackHours == 0 {
		c.Verification.OrgLookbackHours = 144
	}
	if c.JWT.SessionTokenExpiry == 0 {
		c.JWT.SessionTokenExpiry = 30
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
}

// Validate checks that required configuration values are present
func (c *Config) Validate() error {
	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}
	if c.Database.Database == "" {
		return fmt.Errorf("database name is required")
	}
	if c.CpiGateway.ClientID == "" {
		return fmt.Errorf("CPI gateway client id is required")
	}
	if c.CpiGateway.ClientSecret == "" {
		return fmt.Errorf("CPI gateway client secret is required")
	}
	if c.CpiGateway.OauthURL == "" {
		return fmt.Errorf("CMS IDM oauth url is required")
	}
	if c.CpiGateway.BaseURL == "" {
		return fmt.Errorf("CPI gateway base url is required")
	}
	if c.JWT.Secret == "" {
		return fmt.Errorf("JWT secret is required")
	}
	return nil
}

// GetDatabaseConnectionString returns the PostgreSQL connection string
func (c *Config) GetDatabaseConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Database,
		c.Database.SSLMode,
	)
}

// GetServerAddress returns the HTTP server address
func (c *Config) GetServerAddress() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}
