package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port                  string
	AllowedOrigin         string
	DatabaseURL           string
	RedisAddr             string
	RedisPassword         string
	RedisDB               int
	AuthSecret            string
	AccessTokenTTLMinutes int
	AIAPIKey              string
	AIModel               string
	InvitationTTLSeconds  int
	CheckoutDelayMillis   int
}

func Load() Config {
	redisDB, _ := strconv.Atoi(getEnv("REDIS_DB", "0"))
	invitationTTL, err := strconv.Atoi(getEnv("INVITATION_TTL_SECONDS", "3600"))
	if err != nil || invitationTTL < 1 {
		invitationTTL = 3600
	}
	tokenTTL, err := strconv.Atoi(getEnv("ACCESS_TOKEN_TTL_MINUTES", "480"))
	if err != nil || tokenTTL < 1 {
		tokenTTL = 480
	}
	checkoutDelay, err := strconv.Atoi(getEnv("CHECKOUT_DELAY_MS", "0"))
	if err != nil || checkoutDelay < 0 {
		checkoutDelay = 0
	}

	cfg := Config{
		Port:                  getEnv("PORT", "8080"),
		AllowedOrigin:         getEnv("ALLOWED_ORIGIN", "http://127.0.0.1:3000"),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
		RedisAddr:             os.Getenv("REDIS_ADDR"),
		RedisPassword:         os.Getenv("REDIS_PASSWORD"),
		RedisDB:               redisDB,
		AuthSecret:            strings.TrimSpace(os.Getenv("AUTH_SECRET")),
		AccessTokenTTLMinutes: tokenTTL,
		AIAPIKey:              strings.TrimSpace(os.Getenv("AI_API_KEY")),
		AIModel:               getEnv("AI_MODEL", "gemini-2.5-flash"),
		InvitationTTLSeconds:  invitationTTL,
		CheckoutDelayMillis:   checkoutDelay,
	}

	return cfg
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key string, fallback string) string {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	return val
}
