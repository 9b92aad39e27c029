package config

import (
	"fmt"
	"os"
	"path"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

// MaxJwtTTL caps how long an access token stays valid.
const MaxJwtTTL = time.Hour

type Config struct {
	Public  Public
	Private Private
}

type Public struct {
	Port     int    `yaml:"port" validate:"required"`
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	JwtTTL             time.Duration `yaml:"jwt_ttl"`
	SecureCookies      bool          `yaml:"secure_cookies"`
	CorsAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	LoginRateLimit     int           `yaml:"login_rate_limit"` // requests per minute per IP on /login and /register

	// Gallery uploads
	MaxUploadImages       int      `yaml:"max_upload_images" validate:"required"`
	MaxImageSizeBytes     int64    `yaml:"max_image_size_bytes" validate:"required"`
	MaxTotalUploadSize    int64    `yaml:"max_total_upload_size" validate:"required"`
	AllowedImageMimeTypes []string `yaml:"allowed_image_mime_types" validate:"required,min=1"`

	// Notice attachments
	MaxNoticeAttachmentSize int64    `yaml:"max_notice_attachment_size" validate:"required"`
	NoticeAllowedExtensions []string `yaml:"notice_allowed_extensions" validate:"required,min=1"`
	NoticeAllowedMimeTypes  []string `yaml:"notice_allowed_mime_types" validate:"required,min=1"`

	Blob Blob `yaml:"blob"`
	GC   GC   `yaml:"gc"`
}

type Blob struct {
	Backend string `yaml:"backend" validate:"omitempty,oneof=fs s3"`
	Root    string `yaml:"root"`
	S3      S3     `yaml:"s3"`
}

type S3 struct {
	Bucket   string `yaml:"bucket"`
	Region   string `yaml:"region"`
	Endpoint string `yaml:"endpoint"` // empty for AWS, set for R2/MinIO
	Prefix   string `yaml:"prefix"`
}

type GC struct {
	Enabled         bool          `yaml:"enabled"`
	Interval        time.Duration `yaml:"interval"`
	SafetyThreshold time.Duration `yaml:"safety_threshold"`
}

type Pg struct {
	Host     string `yaml:"host" validate:"required"`
	Port     int    `yaml:"port" validate:"required"`
	User     string `yaml:"user" validate:"required"`
	Password string `yaml:"password"`
	Dbname   string `yaml:"dbname" validate:"required"`
}

type S3Credentials struct {
	AccessKeyId     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
}

type Private struct {
	JwtKey string        `yaml:"jwt_key" validate:"required"`
	Pg     Pg            `yaml:"pg"`
	S3     S3Credentials `yaml:"s3"`
}

func (s *Config) JwtKey() string {
	return s.Private.JwtKey
}

func (s *Config) JwtTTL() time.Duration {
	return s.Public.JwtTTL
}

func mustLoadPath(configPath string, output interface{}) {
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		panic("config file does not exist: " + configPath)
	}
	configFile, err := os.ReadFile(configPath)
	if err != nil {
		panic("can't read config file: " + configPath)
	}

	if err = yaml.Unmarshal(configFile, output); err != nil {
		panic(fmt.Sprintf("can't unmarshal config file %s: %v", configPath, err))
	}
}

// MustLoad reads public.yaml and private.yaml from configFolder, applies
// environment overrides (a .env file in the working directory is honoured)
// and validates the result. It panics on any error.
func MustLoad(configFolder string) *Config {
	var public Public
	mustLoadPath(path.Join(configFolder, "public.yaml"), &public)

	var private Private
	mustLoadPath(path.Join(configFolder, "private.yaml"), &private)

	// .env is optional, real environment wins over it
	_ = godotenv.Load()

	cfg := &Config{Public: public, Private: private}
	applyEnv(cfg)
	applyDefaults(cfg)

	if err := validator.New(validator.WithRequiredStructEnabled()).Struct(cfg); err != nil {
		panic("invalid config: " + err.Error())
	}
	return cfg
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("EVENTBOARD_JWT_KEY"); v != "" {
		cfg.Private.JwtKey = v
	}
	if v := os.Getenv("EVENTBOARD_PG_HOST"); v != "" {
		cfg.Private.Pg.Host = v
	}
	if v := os.Getenv("EVENTBOARD_PG_PASSWORD"); v != "" {
		cfg.Private.Pg.Password = v
	}
	if v := os.Getenv("EVENTBOARD_S3_ACCESS_KEY_ID"); v != "" {
		cfg.Private.S3.AccessKeyId = v
	}
	if v := os.Getenv("EVENTBOARD_S3_SECRET_ACCESS_KEY"); v != "" {
		cfg.Private.S3.SecretAccessKey = v
	}
	if v := os.Getenv("PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Public.Port = port
		}
	}
}

func applyDefaults(cfg *Config) {
	if cfg.Public.JwtTTL <= 0 || cfg.Public.JwtTTL > MaxJwtTTL {
		cfg.Public.JwtTTL = MaxJwtTTL
	}
	if cfg.Public.Blob.Backend == "" {
		cfg.Public.Blob.Backend = "fs"
	}
	if cfg.Public.Blob.Root == "" {
		cfg.Public.Blob.Root = "data"
	}
	if cfg.Public.LoginRateLimit <= 0 {
		cfg.Public.LoginRateLimit = 10
	}
	if cfg.Public.GC.Interval <= 0 {
		cfg.Public.GC.Interval = time.Hour
	}
	if cfg.Public.GC.SafetyThreshold <= 0 {
		cfg.Public.GC.SafetyThreshold = 24 * time.Hour
	}
}
