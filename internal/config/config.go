// Package config предоставялет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string        `yaml:"env" env-default:"local"`
	GRPCAuthAddress         string        `yaml:"grpc_auth_address" env-default:":50051"`
	StorageConnectionString string        `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string        `yaml:"migrations_path" env-default:"./migrations"`
	UpstreamTimeout         time.Duration `yaml:"upstream_timeout" env-default:"10s"`
	RedisConnection         `yaml:"redis_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	RabbitMQ                RabbitMQ      `yaml:"rabbitmq"`
	SMTP                    SMTP          `yaml:"smtp"`
	OpenAI                  OpenAI        `yaml:"openai"`
	ObjectStorage           ObjectStorage `yaml:"object_storage"`
	Plan                    Plan          `yaml:"plan"`
	RateLimit               RateLimit     `yaml:"rate_limit"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"30s"`
	IdleTimeout time.Duration `yaml:"idle_timeout" env-default:"60s"`
}

// RedisConnection структура для настройки подключения к redis
type RedisConnection struct {
	AddressRedis string        `yaml:"addressredis"`
	Password     string        `yaml:"password"`
	User         string        `yaml:"user"`
	DB           int           `yaml:"db"`
	MaxRetries   int           `yaml:"max_retries"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	TimeoutRedis time.Duration `yaml:"timeoutredis"`
	AccountTTL   time.Duration `yaml:"account_ttl" env-default:"10m"`
}

// JWTToken структура для работы с jwt-токеном
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// RabbitMQ настройки подключения к брокеру уведомлений
type RabbitMQ struct {
	URL        string        `yaml:"url" env:"RABBITMQ_URL"`
	MaxRetries int           `yaml:"max_retries" env-default:"5"`
	RetryDelay time.Duration `yaml:"retry_delay" env-default:"3s"`
}

// SMTP настройки почтового сервера для отправки уведомлений
type SMTP struct {
	Host string `yaml:"host"`
	Port string `yaml:"port" env-default:"587"`
	User string `yaml:"user"`
	Pass string `yaml:"pass" env:"SMTP_PASS"`
}

// OpenAI настройки моделей распознавания, перевода и синтеза речи
type OpenAI struct {
	APIKey             string  `yaml:"api_key" env:"OPENAI_API_KEY"`
	BaseURL            string  `yaml:"base_url"`
	TranscriptionModel string  `yaml:"transcription_model" env-default:"whisper-1"`
	ChatModel          string  `yaml:"chat_model" env-default:"gpt-4"`
	SpeechModel        string  `yaml:"speech_model" env-default:"tts-1"`
	Temperature        float32 `yaml:"temperature" env-default:"0.3"`
}

// ObjectStorage настройки S3-совместимого хранилища для синтезированного аудио
type ObjectStorage struct {
	Endpoint   string        `yaml:"endpoint"`
	AccessKey  string        `yaml:"access_key" env:"S3_ACCESS_KEY"`
	SecretKey  string        `yaml:"secret_key" env:"S3_SECRET_KEY"`
	Bucket     string        `yaml:"bucket" env-default:"speech"`
	Region     string        `yaml:"region"`
	UseSSL     bool          `yaml:"use_ssl"`
	PresignTTL time.Duration `yaml:"presign_ttl" env-default:"1h"`
}

// Plan параметры тарифа: цена в минорных единицах валюты и длительность пробного периода
type Plan struct {
	PriceMinor int64  `yaml:"price_minor" env-default:"1999"`
	Currency   string `yaml:"currency" env-default:"EUR"`
	TrialDays  int    `yaml:"trial_days" env-default:"5"`
}

// RateLimit параметры ограничения частоты запросов на одного пользователя
type RateLimit struct {
	RPS   float64 `yaml:"rps" env-default:"1"`
	Burst int     `yaml:"burst" env-default:"3"`
}

// MustLoad функция для загрузки конфига, возвращает конфиг, сгенерированный из config/config.go
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

func mask(secret string) string {
	if secret == "" {
		return ""
	}
	return "***"
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"Env: %s\n"+
			"GRPCAuthAddress: %s\n"+
			"StorageConnectionString: %s\n"+
			"MigrationsPath: %s\n"+
			"UpstreamTimeout: %s\n"+
			"RedisConnection:\n"+
			"  Addr: %s\n"+
			"  Password: %s\n"+
			"  User: %s\n"+
			"  DB: %d\n"+
			"  AccountTTL: %s\n"+
			"HTTPServer:\n"+
			"  Address: %s\n"+
			"  Timeout: %s\n"+
			"  IdleTimeout: %s\n"+
			"JWTToken:\n"+
			"  JWTSecretKey: %s\n"+
			"  TokenTTL: %s\n"+
			"RabbitMQ:\n"+
			"  URL: %s\n"+
			"OpenAI:\n"+
			"  APIKey: %s\n"+
			"  ChatModel: %s\n"+
			"ObjectStorage:\n"+
			"  Endpoint: %s\n"+
			"  Bucket: %s\n"+
			"Plan:\n"+
			"  PriceMinor: %d\n"+
			"  Currency: %s\n"+
			"  TrialDays: %d\n",
		c.Env,
		c.GRPCAuthAddress,
		mask(c.StorageConnectionString),
		c.MigrationsPath,
		c.UpstreamTimeout,
		c.AddressRedis,
		mask(c.RedisConnection.Password),
		c.User,
		c.DB,
		c.AccountTTL,
		c.AddressHTTP,
		c.TimeoutHTTP,
		c.IdleTimeout,
		mask(c.JWTSecretKey),
		c.TokenTTL,
		mask(c.RabbitMQ.URL),
		mask(c.OpenAI.APIKey),
		c.OpenAI.ChatModel,
		c.ObjectStorage.Endpoint,
		c.ObjectStorage.Bucket,
		c.Plan.PriceMinor,
		c.Plan.Currency,
		c.Plan.TrialDays,
	)
}
