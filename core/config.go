package core

import (
	"log"
	"net/mail"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Conf holds the application configuration. It is loaded once at startup.
var Conf *Config

type Config struct {
	Debug            bool
	TestMode         bool
	Env              string
	Build            string
	AppName          string
	SecretKey        string
	DefaultFromEmail mail.Address
	FrontendBaseURL  string
	SendgridAPIKey   string
	RollbarToken     string

	Server struct {
		Host               string
		Address            string
		DebugAddress       string
		ShutdownTimeout    time.Duration
		JWTExpirationDelta time.Duration
	}

	Database struct {
		Engine     string
		Host       string
		Name       string
		User       string
		Password   string
		DisableTLS bool
	}

	Redis struct {
		URL     string
		CartTTL time.Duration
	}

	Ledger struct {
		BaseURL string
		Timeout time.Duration
	}

	Payment struct {
		// DeclinedCards lists card numbers the stand-in gateway must decline.
		DeclinedCards []string
	}
}

func init() {
	v := viper.New()
	v.SetTypeByDefaultValue(true)

	// defaults
	v.SetDefault("debug", true)
	v.SetDefault("build", "dev")
	v.SetDefault("appName", "Elimu")
	v.SetDefault("secretKey", "w3z&8yn0b$+57=dz!uoxh2(h#x)*c2(#yg4h^$cegm2UMY")
	v.SetDefault("defaultFromEmail", "noreply@localhost")
	v.SetDefault("frontendBaseURL", "http://localhost:3000")
	v.SetDefault("serverHost", "localhost")
	v.SetDefault("serverAddress", ":8000")
	v.SetDefault("serverDebugAddress", ":8001")
	v.SetDefault("serverShutdownTimeout", 5*time.Second)
	v.SetDefault("jwtExpirationDelta", 7*24*time.Hour)
	v.SetDefault("dbEngine", "postgres")
	v.SetDefault("dbHost", "localhost")
	v.SetDefault("dbName", "elimu")
	v.SetDefault("dbUser", "postgres")
	v.SetDefault("dbPassword", "postgres")
	v.SetDefault("dbDisableTLS", true)
	v.SetDefault("redisURL", "redis://localhost:6379/0")
	v.SetDefault("redisCartTTL", 24*time.Hour)
	v.SetDefault("ledgerBaseURL", "http://localhost:8080")
	v.SetDefault("ledgerTimeout", 10*time.Second)
	v.SetDefault("declinedCards", []string{"4000000000000002"})

	env := os.Getenv("ENV") // DEV (local; default), TEST, QA, PROD
	switch env {
	case "":
		env = "DEV"
	case "TEST":
		v.SetDefault("testMode", true)
	}
	v.SetEnvPrefix(env)

	// load .env if it exists (ignore if it does not)
	dotEnvPath := filepath.Join("config", ".env."+strings.ToLower(env))
	if _, err := os.Stat(dotEnvPath); err == nil {
		if err := godotenv.Load(dotEnvPath); err != nil {
			log.Fatalf("config.godotenv(%s): %v", dotEnvPath, err)
		}
	} else if !os.IsNotExist(err) {
		log.Fatalf("config.os.Stat(%s): %v", dotEnvPath, err)
	}
	v.AutomaticEnv()

	conf := &Config{
		Debug:            v.GetBool("debug"),
		TestMode:         v.GetBool("testMode"),
		Env:              env,
		Build:            v.GetString("build"),
		AppName:          v.GetString("appName"),
		SecretKey:        v.GetString("secretKey"),
		DefaultFromEmail: mail.Address{Name: v.GetString("appName"), Address: v.GetString("defaultFromEmail")},
		FrontendBaseURL:  v.GetString("frontendBaseURL"),
		SendgridAPIKey:   v.GetString("sendgridApiKey"),
		RollbarToken:     v.GetString("rollbarToken"),
	}
	conf.Server.Host = v.GetString("serverHost")
	conf.Server.Address = v.GetString("serverAddress")
	conf.Server.DebugAddress = v.GetString("serverDebugAddress")
	conf.Server.ShutdownTimeout = v.GetDuration("serverShutdownTimeout")
	conf.Server.JWTExpirationDelta = v.GetDuration("jwtExpirationDelta")
	conf.Database.Engine = v.GetString("dbEngine")
	conf.Database.Host = v.GetString("dbHost")
	conf.Database.Name = v.GetString("dbName")
	conf.Database.User = v.GetString("dbUser")
	conf.Database.Password = v.GetString("dbPassword")
	conf.Database.DisableTLS = v.GetBool("dbDisableTLS")
	conf.Redis.URL = v.GetString("redisURL")
	conf.Redis.CartTTL = v.GetDuration("redisCartTTL")
	conf.Ledger.BaseURL = v.GetString("ledgerBaseURL")
	conf.Ledger.Timeout = v.GetDuration("ledgerTimeout")
	conf.Payment.DeclinedCards = v.GetStringSlice("declinedCards")
	Conf = conf
}
