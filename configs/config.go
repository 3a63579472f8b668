package configs

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppPort     int
	AppTimezone string

	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBNameTest string
	DBSSLMode  string

	RedisHost     string
	RedisPort     int
	RedisPassword string
	RedisDB       int

	JWTSecret string
	JWTTTL    time.Duration

	// DeviceTokenKey seals device notification tokens at rest.
	DeviceTokenKey string

	LogDir     string
	LogConsole bool

	S3Bucket       string
	S3Region       string
	S3AccessKey    string
	S3SecretKey    string
	S3BaseEndpoint string
	S3PublicURL    string

	NotifyQueue   string
	NotifyTimeout time.Duration

	CacheTTL      time.Duration
	RateLimitMax  int
	WSRequireAuth bool
}

func LoadConfig() Config {
	// Muat file .env
	if err := godotenv.Load(); err != nil {
		// Hanya log jika tidak dalam mode test
		if os.Getenv("GO_ENV") != "test" {
			log.Println("No .env file found, using default values")
		}
	}

	return Config{
		AppPort:     getInt("APP_PORT", 3004),
		AppTimezone: getString("APP_TIMEZONE", "Local"),

		DBHost:     getString("DB_HOST", "localhost"),
		DBPort:     getInt("DB_PORT", 5432),
		DBUser:     getString("DB_USER", "postgres"),
		DBPassword: os.Getenv("DB_PASSWORD"),
		DBName:     getString("DB_NAME", "taskboard"),
		DBNameTest: getString("DB_NAME_TEST", "taskboard_test"),
		DBSSLMode:  getString("DB_SSLMODE", "disable"),

		RedisHost:     getString("REDIS_HOST", "localhost"),
		RedisPort:     getInt("REDIS_PORT", 6379),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       getInt("REDIS_DB", 0),

		JWTSecret: getString("JWT_SECRET", "secret"),
		JWTTTL:    getDuration("JWT_TTL", 24*time.Hour),

		DeviceTokenKey: getString("DEVICE_TOKEN_KEY", "MySecretEncryptionKey!"),

		LogDir:     getString("LOG_DIR", "logs"),
		LogConsole: getBool("LOG_CONSOLE", false),

		S3Bucket:       getString("S3_BUCKET", "profile-pictures"),
		S3Region:       getString("S3_REGION", "us-east-1"),
		S3AccessKey:    os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey:    os.Getenv("S3_SECRET_KEY"),
		S3BaseEndpoint: os.Getenv("S3_BASE_ENDPOINT"),
		S3PublicURL:    os.Getenv("S3_PUBLIC_URL"),

		NotifyQueue:   getString("NOTIFY_QUEUE", "notifications:push"),
		NotifyTimeout: getDuration("NOTIFY_TIMEOUT", 5*time.Second),

		CacheTTL:      getDuration("CACHE_TTL", time.Hour),
		RateLimitMax:  getInt("RATE_LIMIT_MAX", 100),
		WSRequireAuth: getBool("WS_REQUIRE_AUTH", true),
	}
}

// Location resolves AppTimezone, falling back to time.Local.
func (c Config) Location() *time.Location {
	if c.AppTimezone == "" || c.AppTimezone == "Local" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		log.Printf("Unknown APP_TIMEZONE %q, using local time", c.AppTimezone)
		return time.Local
	}
	return loc
}

func getString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

func getBool(key string, fallback bool) bool {
	v, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return v
}

// getDuration accepts Go durations ("90s") or a plain number of seconds.
func getDuration(key string, fallback time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return time.Duration(n) * time.Second
	}
	return fallback
}
