package config

import (
	"log"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	JWT       JWTConfig
	CORS      CORSConfig
	RateLimit RateLimitConfig
	Log       LogConfig
	Printer   PrinterConfig
	POS       POSConfig
	Kafka     KafkaConfig
	Metrics   MetricsConfig
}

type AppConfig struct {
	Name  string
	Env   string
	Port  string
	Debug bool
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	SSLMode  string
	Timezone string
}

type JWTConfig struct {
	Secret             string
	ExpiryHours        time.Duration
	RefreshExpiryHours time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
}

type RateLimitConfig struct {
	Requests int
	Duration int
}

type LogConfig struct {
	Level  string
	Format string
}

type PrinterConfig struct {
	Type      string
	USBPath   string
	Address   string
	CharWidth int
}

// POSConfig holds terminal settings.
type POSConfig struct {
	// AuthCodeHash is the bcrypt hash of the 6-digit discount passcode.
	AuthCodeHash string
	// AuthCode is a plaintext passcode, hashed at boot. Development only.
	AuthCode                string
	Denominations           string
	CurrencySymbol          string
	PasscodeAttemptsPerMin  int
	InvoicePrefix           string
	SubmissionTimeoutSecond int
}

type KafkaConfig struct {
	Brokers          string
	TopicSales       string
	TopicSettlements string
}

type MetricsConfig struct {
	Enabled bool
}

func Load() *Config {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Warning: .env file not found, using environment variables: %v", err)
	}

	// Set defaults
	viper.SetDefault("APP_NAME", "tillpoint-api")
	viper.SetDefault("APP_ENV", "development")
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("APP_DEBUG", true)
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_NAME", "tillpoint")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_SSL_MODE", "disable")
	viper.SetDefault("DB_TIMEZONE", "Asia/Manila")
	viper.SetDefault("JWT_SECRET", "change-this-secret-in-production")
	viper.SetDefault("JWT_EXPIRY_HOURS", 12)
	viper.SetDefault("JWT_REFRESH_EXPIRY_HOURS", 168)
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "http://localhost:3000")
	viper.SetDefault("CORS_ALLOWED_HEADERS", []string{})
	viper.SetDefault("RATE_LIMIT_REQUESTS", 300)
	viper.SetDefault("RATE_LIMIT_DURATION", 60)
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("LOG_FORMAT", "json")
	viper.SetDefault("PRINTER_TYPE", "none")
	viper.SetDefault("PRINTER_USB_PATH", "/dev/usb/lp0")
	viper.SetDefault("PRINTER_ADDRESS", "")
	viper.SetDefault("PRINTER_CHAR_WIDTH", 32)
	viper.SetDefault("POS_AUTH_CODE_HASH", "")
	viper.SetDefault("POS_AUTH_CODE", "")
	viper.SetDefault("POS_DENOMINATIONS", "1,5,10,20,50,100,200,500,1000")
	viper.SetDefault("POS_CURRENCY_SYMBOL", "PHP")
	viper.SetDefault("POS_PASSCODE_ATTEMPTS_PER_MINUTE", 5)
	viper.SetDefault("POS_INVOICE_PREFIX", "INV")
	viper.SetDefault("POS_SUBMISSION_TIMEOUT_SECONDS", 15)
	viper.SetDefault("KAFKA_BROKERS", "")
	viper.SetDefault("KAFKA_TOPIC_SALES", "pos.sales")
	viper.SetDefault("KAFKA_TOPIC_SETTLEMENTS", "pos.settlements")
	viper.SetDefault("METRICS_ENABLED", true)

	return &Config{
		App: AppConfig{
			Name:  viper.GetString("APP_NAME"),
			Env:   viper.GetString("APP_ENV"),
			Port:  viper.GetString("APP_PORT"),
			Debug: viper.GetBool("APP_DEBUG"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASSWORD"),
			SSLMode:  viper.GetString("DB_SSL_MODE"),
			Timezone: viper.GetString("DB_TIMEZONE"),
		},
		JWT: JWTConfig{
			Secret:             viper.GetString("JWT_SECRET"),
			ExpiryHours:        time.Duration(viper.GetInt("JWT_EXPIRY_HOURS")) * time.Hour,
			RefreshExpiryHours: time.Duration(viper.GetInt("JWT_REFRESH_EXPIRY_HOURS")) * time.Hour,
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(viper.GetStringSlice("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(viper.GetStringSlice("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(viper.GetStringSlice("CORS_ALLOWED_HEADERS")),
		},
		RateLimit: RateLimitConfig{
			Requests: viper.GetInt("RATE_LIMIT_REQUESTS"),
			Duration: viper.GetInt("RATE_LIMIT_DURATION"),
		},
		Log: LogConfig{
			Level:  viper.GetString("LOG_LEVEL"),
			Format: viper.GetString("LOG_FORMAT"),
		},
		Printer: PrinterConfig{
			Type:      viper.GetString("PRINTER_TYPE"),
			USBPath:   viper.GetString("PRINTER_USB_PATH"),
			Address:   viper.GetString("PRINTER_ADDRESS"),
			CharWidth: viper.GetInt("PRINTER_CHAR_WIDTH"),
		},
		POS: POSConfig{
			AuthCodeHash:            viper.GetString("POS_AUTH_CODE_HASH"),
			AuthCode:                viper.GetString("POS_AUTH_CODE"),
			Denominations:           viper.GetString("POS_DENOMINATIONS"),
			CurrencySymbol:          viper.GetString("POS_CURRENCY_SYMBOL"),
			PasscodeAttemptsPerMin:  viper.GetInt("POS_PASSCODE_ATTEMPTS_PER_MINUTE"),
			InvoicePrefix:           viper.GetString("POS_INVOICE_PREFIX"),
			SubmissionTimeoutSecond: viper.GetInt("POS_SUBMISSION_TIMEOUT_SECONDS"),
		},
		Kafka: KafkaConfig{
			Brokers:          viper.GetString("KAFKA_BROKERS"),
			TopicSales:       viper.GetString("KAFKA_TOPIC_SALES"),
			TopicSettlements: viper.GetString("KAFKA_TOPIC_SETTLEMENTS"),
		},
		Metrics: MetricsConfig{
			Enabled: viper.GetBool("METRICS_ENABLED"),
		},
	}
}

func (c *DatabaseConfig) DSN() string {
	return "host=" + c.Host +
		" user=" + c.User +
		" password=" + c.Password +
		" dbname=" + c.Name +
		" port=" + c.Port +
		" sslmode=" + c.SSLMode +
		" TimeZone=" + c.Timezone
}

// SubmissionTimeout bounds a single ledger call made on behalf of a terminal.
func (c *POSConfig) SubmissionTimeout() time.Duration {
	if c.SubmissionTimeoutSecond <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.SubmissionTimeoutSecond) * time.Second
}

// splitList accepts both repeated values and a single comma separated value,
// which is how list variables arrive from the environment.
func splitList(in []string) []string {
	var out []string
	for _, v := range in {
		for _, part := range strings.Split(v, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
