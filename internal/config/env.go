package config

import (
	"os"
	"strings"
)

type Env struct {
	AppAddr     string
	GinMode     string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBName      string
	RedisAddr   string
	JWTSecret   string
	CORSOrigins []string
}

func LoadEnv() Env {
	env := Env{
		AppAddr:    getenv("APP_ADDR", ":8080"),
		GinMode:    strings.TrimSpace(os.Getenv("GIN_MODE")),
		DBUser:     getenv("DB_USER", "root"),
		DBPassword: strings.TrimSpace(os.Getenv("DB_PASSWORD")),
		DBHost:     getenv("DB_HOST", "127.0.0.1:3306"),
		DBName:     getenv("DB_NAME", "ridemate"),
		RedisAddr:  getenv("REDIS_ADDR", "127.0.0.1:6379"),
		JWTSecret:  getenv("JWT_SECRET", "ridemate-secret"),
	}

	if raw := strings.TrimSpace(os.Getenv("CORS_ALLOWED_ORIGINS")); raw != "" {
		for _, o := range strings.Split(raw, ",") {
			o = strings.TrimSpace(o)
			if o != "" {
				env.CORSOrigins = append(env.CORSOrigins, o)
			}
		}
	} else {
		env.CORSOrigins = []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	}

	return env
}

func getenv(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
