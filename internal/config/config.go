// Package config предоставляет структуры и функцию для парсинга и загрузки конфига
package config

import (
	"log"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config общая структура для хранения настроек
type Config struct {
	Env                     string `yaml:"env" env-default:"local"`
	StorageConnectionString string `yaml:"storage_connection_string" env:"STORAGE_CONNECTION_STRING"`
	MigrationsPath          string `yaml:"migrations_path" env-default:"./migrations"`
	RedisConnection         `yaml:"redis_connection"`
	RabbitConnection        `yaml:"rabbit_connection"`
	HTTPServer              `yaml:"http_server"`
	JWTToken                `yaml:"jwttoken"`
	Telegram                `yaml:"telegram"`
	Sweeper                 `yaml:"sweeper"`
	AdminAccounts           []AdminAccount `yaml:"admin_accounts"`
}

// HTTPServer структура для настройки сервера
type HTTPServer struct {
	AddressHTTP string        `yaml:"addresshttp" env-default:":8080"`
	TimeoutHTTP time.Duration `yaml:"timeouthttp" env-default:"10s"`
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
}

// RabbitConnection структура для настройки подключения к rabbitmq
type RabbitConnection struct {
	URLRabbit      string `yaml:"urlrabbit"`
	ExchangeRabbit string `yaml:"exchangerabbit" env-default:"gatekeeper.events"`
}

// JWTToken структура для работы с jwt-токеном администратора
type JWTToken struct {
	JWTSecretKey string        `yaml:"jwt_secret_key" env:"JWT_SECRET_KEY"`
	TokenTTL     time.Duration `yaml:"token_ttl" env-default:"24h"`
}

// Telegram структура для настройки бота, закрытого канала и приглашений
type Telegram struct {
	BotToken          string        `yaml:"bot_token" env:"BOT_TOKEN"`
	ChannelID         int64         `yaml:"channel_id" env:"CHANNEL_ID"`
	AdminIDs          []int64       `yaml:"admin_ids" env:"ADMIN_IDS" env-separator:","`
	InviteTTL         time.Duration `yaml:"invite_ttl" env-default:"5m"`
	InviteMemberLimit int           `yaml:"invite_member_limit" env-default:"1"`
}

// Sweeper структура для настройки периодической проверки истечений
type Sweeper struct {
	SweepInterval time.Duration `yaml:"sweep_interval" env-default:"5m"`
}

// AdminAccount учетная запись администратора для входа в HTTP API.
// TelegramID связывает учетную запись с identity из списка admin_ids.
type AdminAccount struct {
	Username     string `yaml:"username"`
	PasswordHash string `yaml:"password_hash"`
	TelegramID   int64  `yaml:"telegram_id"`
}

// MustLoad функция для загрузки конфига, путь берется из CONFIG_PATH
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
