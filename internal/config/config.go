package config

import (
	"os"
	"strconv"
	"sync"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type BotConfig struct {
	TelegramToken   string
	BaseAdminChatID int64
	DatabaseURL     string

	// RedisAddress is optional; empty disables the snapshot cache and the change feed.
	RedisAddress string
	UnitsFile    string

	DefaultAccessPassword string
	Debug                 bool
	LogLevel              logrus.Level
}

var instance *BotConfig
var once sync.Once

func GetBotConfig() *BotConfig {
	once.Do(func() {
		instance = &BotConfig{}

		if err := godotenv.Load(); err != nil {
			logrus.Warnf("no .env file loaded, using process environment: %s", err.Error())
		}

		instance.TelegramToken = getEnv("TELEGRAM_BOT_TOKEN", "")
		if instance.TelegramToken == "" {
			logrus.Fatal("could not get bot token")
		}

		instance.BaseAdminChatID = getEnvAsInt("BASE_ADMIN_CHAT_ID", -2)
		if instance.BaseAdminChatID == -2 {
			logrus.Fatal("could not get admin chat id")
		}

		instance.DatabaseURL = getEnv("DATABASE_URL", "frequencia.db")
		instance.RedisAddress = getEnv("REDIS_ADDRESS", "")
		instance.UnitsFile = getEnv("UNITS_FILE", "")
		instance.DefaultAccessPassword = getEnv("DEFAULT_ACCESS_PASSWORD", "")
		instance.Debug = getEnvAsBool("BOT_DEBUG", false)
		instance.LogLevel = getEnvAsLevel("LOG_LEVEL", logrus.InfoLevel)
	})

	return instance
}

func getEnv(key string, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}

	return defaultVal
}

func getEnvAsBool(name string, defaultVal bool) bool {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsInt(name string, defaultVal int64) int64 {
	valStr := getEnv(name, "")
	if val, err := strconv.ParseInt(valStr, 10, 64); err == nil {
		return val
	}

	return defaultVal
}

func getEnvAsLevel(name string, defaultVal logrus.Level) logrus.Level {
	valStr := getEnv(name, "")
	if level, err := logrus.ParseLevel(valStr); err == nil {
		return level
	}

	return defaultVal
}
