// Package config provides the structures and loader for the service config.
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the top-level structure holding every setting of the service.
type Config struct {
	Env                     string `yaml:"env" env:"ENV" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	PaymentGateway          `yaml:"payment_gateway"`
	OTPVerifier             `yaml:"otp_verifier"`
	RabbitConnection        `yaml:"rabbit_connection"`
}

// HTTPServer groups the settings of the HTTP listener.
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:"localhost:8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"4s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection groups the settings of the Redis account cache.
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
}

// JWTToken groups the settings of the session token maker.
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// PaymentGateway groups the settings of the external payment processor.
// The subscription price lives here, server-side, so a client can never
// supply its own amount.
type PaymentGateway struct {
	APIURL          string `yaml:"api_url" env:"GATEWAY_API_URL"`
	SecretKey       string `yaml:"secret_key" env:"GATEWAY_SECRET_KEY"`
	CallbackURL     string `yaml:"callback_url"`
	WebhookSecret   string `yaml:"webhook_secret" env:"GATEWAY_WEBHOOK_SECRET"`
	PriceMinorUnits int64  `yaml:"price_minor_units" env-default:"60000"`
}

// OTPVerifier groups the settings of the external identity verifier.
type OTPVerifier struct {
	AddressOTP string        `yaml:"addressotp" env:"OTP_VERIFIER_ADDRESS"`
	TimeoutOTP time.Duration `yaml:"timeoutotp" env-default:"10s"`
}

// RabbitConnection groups the settings of the lifecycle event publisher.
type RabbitConnection struct {
	URLRabbit string `yaml:"urlrabbit" env:"RABBIT_URL"`
	Exchange  string `yaml:"exchange" env-default:"premium-access"`
}

// MustLoad loads the config from the file named by CONFIG_PATH and exits
// the process when it is missing or unreadable.
func MustLoad() *Config {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		log.Fatal("CONFIG_PATH is not set")
	}
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		log.Fatalf("file: %s - does not exist", configPath)
	}
	var cfg Config

	if err := cleanenv.ReadConfig(configPath, &cfg); err != nil {
		log.Fatalf("cannot read config: %s", err)
	}
	return &cfg
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  DB: %d\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"PaymentGateway:\n"+
			"  APIURL: %s\n"+
			"  CallbackURL: %s\n"+
			"  PriceMinorUnits: %d\n"+
			"OTPVerifier:\n"+
			"  Address: %s\n"+
			"RabbitConnection:\n"+
			"  Exchange: %s\n",
		c.Env,
		c.StorageConnectionString,
		c.MigrationsPath,
		c.AddressRedis,
		c.DB,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		c.APIURL,
		c.CallbackURL,
		c.PriceMinorUnits,
		c.AddressOTP,
		c.Exchange,
	)
}
