package config

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port          int
	DataPath      string
	DBPath        string
	AudioPath     string
	JWTSecret     string
	AdminUsername string
	AdminPassword string
	TesseractLang string
	DeepLKey      string
	TTSURL        string
	TTSVoice      string
	TTSRate       float64
	CORSOrigins   []string
}

func Load() *Config {
	// Optional .env for local development; real env vars take precedence.
	godotenv.Load()

	port, _ := strconv.Atoi(getEnv("PORT", "8080"))
	dataPath := getEnv("DATA_PATH", "/data")

	// JWT secret: require explicit setting or generate random
	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		b := make([]byte, 32)
		if _, err := rand.Read(b); err != nil {
			log.Fatalf("Failed to generate random JWT secret: %v", err)
		}
		jwtSecret = hex.EncodeToString(b)
		log.Println("WARNING: JWT_SECRET not set, using random secret. Sessions will not survive restarts. Set JWT_SECRET env var for persistent sessions.")
	}

	rate, err := strconv.ParseFloat(getEnv("TTS_RATE", "1.0"), 64)
	if err != nil || rate <= 0 {
		rate = 1.0
	}

	// CORS origins: comma-separated list or "*" (default)
	corsOrigins := []string{"*"}
	if v := os.Getenv("CORS_ORIGINS"); v != "" {
		origins := strings.Split(v, ",")
		corsOrigins = make([]string, 0, len(origins))
		for _, o := range origins {
			o = strings.TrimSpace(o)
			if o != "" {
				corsOrigins = append(corsOrigins, o)
			}
		}
	}

	return &Config{
		Port:          port,
		DataPath:      dataPath,
		DBPath:        getEnv("DB_PATH", dataPath+"/mediexplain.db"),
		AudioPath:     getEnv("AUDIO_PATH", dataPath+"/audio"),
		JWTSecret:     jwtSecret,
		AdminUsername: getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword: getEnv("ADMIN_PASSWORD", "admin"),
		TesseractLang: getEnv("TESSERACT_LANG", "eng"),
		DeepLKey:      getEnv("DEEPL_API_KEY", ""),
		TTSURL:        getEnv("TTS_URL", ""),
		TTSVoice:      getEnv("TTS_VOICE", "alloy"),
		TTSRate:       rate,
		CORSOrigins:   corsOrigins,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
