package core

import (
	"fmt"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type (
	Config struct {
		Env      string
		Debug    bool
		TestMode bool
		AppName  string

		SecretKey     []byte
		PaymentSecret []byte

		FrontendBaseURL  string
		DefaultFromEmail mail.Address
		SendgridAPIKey   string

		PasswordResetTimeoutDelta time.Duration

		Server   ServerConfig
		Database DatabaseConfig
		Redis    RedisConfig
		Rollbar  RollbarConfig
	}

	ServerConfig struct {
		Host                 string
		Port                 string
		JWTExpirationDelta   time.Duration
		ShutdownTimeout      time.Duration
		RateLimitPerMin      int
		LoginRateLimitPerMin int
	}

	DatabaseConfig struct {
		Engine     string
		Name       string
		User       string
		Password   string
		AdminUser  string
		AdminPass  string
		Host       string
		Port       string
		DisableTLS bool
	}

	RedisConfig struct {
		Addr     string
		QueueKey string
	}

	RollbarConfig struct {
		Token string
		Env   string
	}
)

func (c DatabaseConfig) Address() string { return c.Host + ":" + c.Port }

func (c ServerConfig) Address() string { return c.Host + ":" + c.Port }

// NewConfig loads the configuration from the environment (and an optional
// config/.env.<env> file), falling back to dev-friendly defaults.
func NewConfig() (*Config, error) {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	v.SetDefault("debug", true)
	v.SetDefault("appName", "Chuo")
	v.SetDefault("secretKey", "q0j=7bz&2l^$#ys5l*29m!$v%p(+a0f1u8_ce-x&d4tj7gqk3n")
	v.SetDefault("paymentSecret", "chuo-dev-payment-secret")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("defaultFromEmailName", "Chuo")
	v.SetDefault("defaultFromEmailAddr", "noreply@localhost")
	v.SetDefault("sendgridApiKey", "")
	v.SetDefault("passwordResetTimeoutDelta", 3*24*time.Hour)

	v.SetDefault("serverHost", "0.0.0.0")
	v.SetDefault("serverPort", "8000")
	v.SetDefault("jwtExpirationDelta", 24*time.Hour)
	v.SetDefault("shutdownTimeout", 20*time.Second)
	v.SetDefault("rateLimitPerMin", 300)
	v.SetDefault("loginRateLimitPerMin", 10)

	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbName", "chuo")
	v.SetDefault("dbUser", "chuo")
	v.SetDefault("dbPassword", "chuo")
	v.SetDefault("dbAdminUser", "")
	v.SetDefault("dbAdminPassword", "")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbPort", "5432")
	v.SetDefault("dbDisableTLS", true)

	v.SetDefault("redisAddr", "localhost:6379")
	v.SetDefault("redisQueueKey", "chuo:outbound")

	v.SetDefault("rollbarToken", "")

	env := strings.ToUpper(os.Getenv("ENV")) // DEV (default), TEST, QA, PROD
	if env == "" {
		env = "DEV"
	}
	if env == "TEST" {
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			return nil, fmt.Errorf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Env:           env,
		Debug:         v.GetBool("debug"),
		TestMode:      v.GetBool("testMode"),
		AppName:       v.GetString("appName"),
		SecretKey:     []byte(v.GetString("secretKey")),
		PaymentSecret: []byte(v.GetString("paymentSecret")),

		FrontendBaseURL: v.GetString("frontendBaseURL"),
		DefaultFromEmail: mail.Address{
			Name:    v.GetString("defaultFromEmailName"),
			Address: v.GetString("defaultFromEmailAddr"),
		},
		SendgridAPIKey:            v.GetString("sendgridApiKey"),
		PasswordResetTimeoutDelta: v.GetDuration("passwordResetTimeoutDelta"),

		Server: ServerConfig{
			Host:                 v.GetString("serverHost"),
			Port:                 v.GetString("serverPort"),
			JWTExpirationDelta:   v.GetDuration("jwtExpirationDelta"),
			ShutdownTimeout:      v.GetDuration("shutdownTimeout"),
			RateLimitPerMin:      v.GetInt("rateLimitPerMin"),
			LoginRateLimitPerMin: v.GetInt("loginRateLimitPerMin"),
		},
		Database: DatabaseConfig{
			Engine:     v.GetString("dbEngine"),
			Name:       v.GetString("dbName"),
			User:       v.GetString("dbUser"),
			Password:   v.GetString("dbPassword"),
			AdminUser:  v.GetString("dbAdminUser"),
			AdminPass:  v.GetString("dbAdminPassword"),
			Host:       v.GetString("dbHost"),
			Port:       v.GetString("dbPort"),
			DisableTLS: v.GetBool("dbDisableTLS"),
		},
		Redis: RedisConfig{
			Addr:     v.GetString("redisAddr"),
			QueueKey: v.GetString("redisQueueKey"),
		},
		Rollbar: RollbarConfig{
			Token: v.GetString("rollbarToken"),
			Env:   strings.ToLower(env),
		},
	}
	return conf, nil
}
