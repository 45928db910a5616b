package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	ServerConfig struct {
		Host               string
		Port               int
		DebugHost          string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
		AllowedOrigins     []string
		CookieSecure       bool
		RateLimit          int           // requests per window per client
		RateLimitWindow    time.Duration // window for RateLimit
		BodyLimit          string
	}

	DatabaseConfig struct {
		Engine        string
		Host          string
		Port          int
		Name          string
		User          string
		Password      string
		AdminUser     string
		AdminPassword string
		DisableTLS    bool
	}

	RedisConfig struct {
		Enabled  bool
		Addr     string
		Password string
		DB       int
	}

	StorageConfig struct {
		Driver    string // "s3" | "local"
		Bucket    string
		Region    string
		AccessKey string
		SecretKey string
		Endpoint  string
		LocalDir  string
		BaseURL   string
	}

	Config struct {
		Env              string
		Build            string
		Debug            bool
		TestMode         bool
		AppName          string
		SecretKey        string
		WorkDir          string
		LogLevel         string
		LogFormat        string
		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridAPIKey   string
		RollbarToken     string
		GoogleClientID   string
		OTPExpiration    time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Storage  StorageConfig
	}
)

func (db DatabaseConfig) Address() string {
	return db.Host + ":" + strconv.Itoa(db.Port)
}

// NewConfig loads the configuration from defaults, an optional config/.env.<env> file and the environment.
func NewConfig() *Config {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("build", "dev")
	v.SetDefault("debug", true)
	v.SetDefault("appName", "LibDesk")
	v.SetDefault("secretKey", "k7#1bq-u9d!m0x4(w=2z&c8f_ly3$vja6eo+5prh)g^nst")
	v.SetDefault("logLevel", "info")
	v.SetDefault("logFormat", "console")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmail", "LibDesk <noreply@localhost>")
	v.SetDefault("sendgridAPIKey", "")
	v.SetDefault("rollbarToken", "")
	v.SetDefault("googleClientID", "")
	v.SetDefault("otpExpiration", 5*time.Minute)

	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", 5000)
	v.SetDefault("server.debugHost", "0.0.0.0:5050")
	v.SetDefault("server.shutdownTimeout", 5*time.Second)
	v.SetDefault("server.jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("server.allowedOrigins", []string{"http://localhost:3000"})
	v.SetDefault("server.cookieSecure", false)
	v.SetDefault("server.rateLimit", 200)
	v.SetDefault("server.rateLimitWindow", 15*time.Minute)
	v.SetDefault("server.bodyLimit", "10M")

	v.SetDefault("database.engine", "postgres")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 5432)
	v.SetDefault("database.name", "libdesk")
	v.SetDefault("database.user", "libdesk")
	v.SetDefault("database.password", "libdesk")
	v.SetDefault("database.adminUser", "")
	v.SetDefault("database.adminPassword", "")
	v.SetDefault("database.disableTLS", true)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.bucket", "")
	v.SetDefault("storage.region", "ap-south-1")
	v.SetDefault("storage.accessKey", "")
	v.SetDefault("storage.secretKey", "")
	v.SetDefault("storage.endpoint", "")
	v.SetDefault("storage.localDir", "uploads")
	v.SetDefault("storage.baseURL", "http://localhost:5000/uploads")

	env := strings.ToLower(os.Getenv("ENV")) // dev (local; default), test, qa, prod
	if env == "" {
		env = "dev"
	}
	if env == "test" {
		v.SetDefault("testMode", true)
	}

	workDir := Getwd()

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join(workDir, "config", ".env."+env)
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}

	v.SetEnvPrefix("libdesk")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	from, err := mail.ParseAddress(v.GetString("defaultFromEmail"))
	if err != nil {
		log.Fatalf("config.defaultFromEmail: %v", err)
	}

	return &Config{
		Env:              env,
		Build:            v.GetString("build"),
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		WorkDir:          workDir,
		LogLevel:         v.GetString("logLevel"),
		LogFormat:        v.GetString("logFormat"),
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		DefaultFromEmail: *from,
		SendgridAPIKey:   v.GetString("sendgridAPIKey"),
		RollbarToken:     v.GetString("rollbarToken"),
		GoogleClientID:   v.GetString("googleClientID"),
		OTPExpiration:    v.GetDuration("otpExpiration"),
		Server: ServerConfig{
			Host:               v.GetString("server.host"),
			Port:               v.GetInt("server.port"),
			DebugHost:          v.GetString("server.debugHost"),
			ShutdownTimeout:    v.GetDuration("server.shutdownTimeout"),
			JWTExpirationDelta: v.GetDuration("server.jwtExpirationDelta"),
			AllowedOrigins:     v.GetStringSlice("server.allowedOrigins"),
			CookieSecure:       v.GetBool("server.cookieSecure"),
			RateLimit:          v.GetInt("server.rateLimit"),
			RateLimitWindow:    v.GetDuration("server.rateLimitWindow"),
			BodyLimit:          v.GetString("server.bodyLimit"),
		},
		Database: DatabaseConfig{
			Engine:        v.GetString("database.engine"),
			Host:          v.GetString("database.host"),
			Port:          v.GetInt("database.port"),
			Name:          v.GetString("database.name"),
			User:          v.GetString("database.user"),
			Password:      v.GetString("database.password"),
			AdminUser:     v.GetString("database.adminUser"),
			AdminPassword: v.GetString("database.adminPassword"),
			DisableTLS:    v.GetBool("database.disableTLS"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Addr:     v.GetString("redis.addr"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
		},
		Storage: StorageConfig{
			Driver:    v.GetString("storage.driver"),
			Bucket:    v.GetString("storage.bucket"),
			Region:    v.GetString("storage.region"),
			AccessKey: v.GetString("storage.accessKey"),
			SecretKey: v.GetString("storage.secretKey"),
			Endpoint:  v.GetString("storage.endpoint"),
			LocalDir:  v.GetString("storage.localDir"),
			BaseURL:   v.GetString("storage.baseURL"),
		},
	}
}

// NewTestConfig returns a config suitable for unit tests; nothing is read from disk.
func NewTestConfig() *Config {
	return &Config{
		Env:              "test",
		Build:            "test",
		TestMode:         true,
		AppName:          "LibDesk",
		SecretKey:        "test-secret",
		LogLevel:         "debug",
		LogFormat:        "console",
		DefaultFromEmail: mail.Address{Name: "LibDesk", Address: "noreply@localhost"},
		OTPExpiration:    5 * time.Minute,
		Server: ServerConfig{
			JWTExpirationDelta: 7 * 24 * time.Hour,
			RateLimit:          200,
			RateLimitWindow:    15 * time.Minute,
			BodyLimit:          "10M",
		},
	}
}
