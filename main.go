package main

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mediexplain/backend/internal/api"
	"github.com/mediexplain/backend/internal/auth"
	"github.com/mediexplain/backend/internal/config"
	"github.com/mediexplain/backend/internal/db"
	"github.com/mediexplain/backend/internal/ocr"
	"github.com/mediexplain/backend/internal/pipeline"
	"github.com/mediexplain/backend/internal/storage"
	"github.com/mediexplain/backend/internal/translate"
	"github.com/mediexplain/backend/internal/tts"
)

func main() {
	cfg := config.Load()

	// Ensure data directory exists
	os.MkdirAll(cfg.DataPath, 0755)

	// Initialize database
	database, err := db.NewSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	// Ensure admin user exists
	if err := database.EnsureAdmin(cfg.AdminUsername, cfg.AdminPassword); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}
	log.Printf("Admin user ensured: %s", cfg.AdminUsername)

	// Audio artifact store, with an hourly sweep of stale clips. Clips are
	// transient artifacts, not history.
	audioStore, err := storage.NewAudioStore(cfg.AudioPath)
	if err != nil {
		log.Fatalf("Failed to initialize audio store: %v", err)
	}
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if n, err := audioStore.Sweep(24 * time.Hour); err != nil {
				log.Printf("[storage] audio sweep failed: %v", err)
			} else if n > 0 {
				log.Printf("[storage] swept %d stale audio clips", n)
			}
		}
	}()

	// Capability engines resolve admin-editable settings from the DB on every
	// call, so PUT /api/settings takes effect without a restart; env vars are
	// the fallback.
	ocrEngine := ocr.NewTesseractEngine(func() string {
		return database.GetSetting("tesseract_lang", cfg.TesseractLang)
	})
	log.Printf("[ocr] registered Tesseract engine")

	translator := translate.NewService(func() string {
		return database.GetSetting("deepl_api_key", cfg.DeepLKey)
	})

	var synthesizer tts.Synthesizer
	if cfg.TTSURL != "" {
		synthesizer = tts.NewSpeechClient(cfg.TTSURL, func() string {
			return database.GetSetting("tts_voice", cfg.TTSVoice)
		}, cfg.TTSRate)
		log.Printf("[tts] registered speech engine at %s", cfg.TTSURL)
	} else {
		log.Printf("WARNING: TTS_URL not set, conversions will have no audio")
	}

	pl := pipeline.NewService(ocrEngine, translator, synthesizer)

	// Initialize JWT service
	jwtService := auth.NewJWTService(cfg.JWTSecret)

	// Create router
	router := api.NewRouter(database, jwtService, pl, audioStore, cfg.CORSOrigins)

	// Start server
	addr := fmt.Sprintf(":%d", cfg.Port)
	log.Printf("Starting server on %s", addr)
	log.Printf("Data path: %s", cfg.DataPath)

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		log.Println("Shutting down...")
		os.Exit(0)
	}()

	if err := http.ListenAndServe(addr, router); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
