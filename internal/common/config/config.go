package config

import (
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/joho/godotenv"
)

type Config struct {
	Debug bool `env:"DEBUG" envDefault:"false"`

	Server struct {
		Port   int    `env:"PORT" envDefault:"8080"`
		Origin string `env:"ORIGIN" envDefault:"http://localhost:3000"`
	}

	Database struct {
		URL string `env:"DATABASE_URL,required"`
	}

	Redis struct {
		Host     string `env:"REDIS_HOST" envDefault:"localhost"`
		Port     int    `env:"REDIS_PORT" envDefault:"6379"`
		Password string `env:"REDIS_PASSWORD" envDefault:""`
		DB       int    `env:"REDIS_DB" envDefault:"0"`
	}

	JWT struct {
		Secret string        `env:"JWT_SECRET,required"`
		TTL    time.Duration `env:"JWT_TTL" envDefault:"720h"`
	}

	OTP struct {
		// Fixed throttling window per phone number and the max number of
		// requests inside it.
		Window      time.Duration `env:"OTP_WINDOW" envDefault:"10m"`
		MaxRequests int           `env:"OTP_MAX_REQUESTS" envDefault:"3"`
		TTL         time.Duration `env:"OTP_TTL" envDefault:"5m"`
	}

	Withdrawal struct {
		// Minimum amount in minor currency units (Rp 100,000).
		Minimum int64 `env:"MIN_WITHDRAWAL" envDefault:"100000"`
	}

	WhatsApp struct {
		AccessToken   string `env:"WHATSAPP_ACCESS_TOKEN" envDefault:""`
		PhoneNumberID string `env:"WHATSAPP_PHONE_NUMBER_ID" envDefault:""`
		TemplateName  string `env:"WHATSAPP_TEMPLATE_NAME" envDefault:"otp_verification"`
	}
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		// Ignore a missing .env file; in production the variables are set
		// directly in the environment.
	}

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		panic(err)
	}

	return cfg
}
