package config

import (
	"os"
	"time"
)

type Config struct {
	Port                    string
	Env                     string
	ClientURL               string
	MongoURI                string
	MongoDBName             string
	PostgresConnStr         string
	JWTAccessSecret         string
	JWTRefreshSecret        string
	JWTAccessExpiry         time.Duration
	JWTRefreshExpiry        time.Duration
	FirebaseCredentialsPath string
}

func Load() *Config {
	return &Config{
		Port:                    getEnv("PORT", "8080"),
		Env:                     getEnv("ENV", "development"),
		ClientURL:               getEnv("CLIENT_URL", "http://localhost:3000"),
		MongoURI:                getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDBName:             getEnv("MONGO_DB", "orbit"),
		PostgresConnStr:         getEnv("POSTGRES_CONN_STR", ""),
		JWTAccessSecret:         getEnv("JWT_ACCESS_SECRET", "supersecretjwtkey"),
		JWTRefreshSecret:        getEnv("JWT_REFRESH_SECRET", "supersecretrefreshkey"),
		JWTAccessExpiry:         getDurationEnv("JWT_ACCESS_EXPIRES_IN", 24*time.Hour),
		JWTRefreshExpiry:        getDurationEnv("JWT_REFRESH_EXPIRES_IN", 30*24*time.Hour),
		FirebaseCredentialsPath: getEnv("FIREBASE_CREDENTIALS_PATH", ""),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
