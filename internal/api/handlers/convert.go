package handlers

import (
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mediexplain/backend/internal/api/middleware"
	"github.com/mediexplain/backend/internal/db"
	"github.com/mediexplain/backend/internal/pipeline"
	"github.com/mediexplain/backend/internal/storage"
)

// maxUploadSize caps prescription image uploads at 15 MB.
const maxUploadSize = 15 << 20

type ConvertHandler struct {
	db         *db.Database
	pipeline   *pipeline.Service
	audioStore *storage.AudioStore
}

func NewConvertHandler(database *db.Database, pl *pipeline.Service, audioStore *storage.AudioStore) *ConvertHandler {
	return &ConvertHandler{db: database, pipeline: pl, audioStore: audioStore}
}

type convertResponse struct {
	ID             int64  `json:"id"`
	FileName       string `json:"file_name"`
	ExtractedText  string `json:"extracted_text"`
	SimplifiedText string `json:"simplified_text"`
	AudioURL       string `json:"audio_url,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// Convert accepts a multipart upload (`file` + `lang`), runs the conversion
// pipeline and records the outcome in the caller's history. Partial results
// (empty text, missing audio) are still successes; only an undecodable image
// or a storage failure aborts the request.
func (h *ConvertHandler) Convert(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		jsonError(w, "upload too large or malformed", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		jsonError(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	imageData, err := io.ReadAll(file)
	if err != nil {
		jsonError(w, "failed to read upload", http.StatusBadRequest)
		return
	}

	result, err := h.pipeline.Process(r.Context(), pipeline.Request{
		Image:      imageData,
		FileName:   header.Filename,
		TargetLang: r.FormValue("lang"),
	})
	if err != nil {
		if errors.Is(err, pipeline.ErrBadImage) {
			jsonError(w, "could not decode image: upload a PNG or JPEG prescription photo", http.StatusBadRequest)
			return
		}
		jsonError(w, "conversion failed", http.StatusInternalServerError)
		return
	}

	recordID, err := h.db.SaveHistory(claims.Username, header.Filename, result.ExtractedText, result.SimplifiedText)
	if err != nil {
		jsonError(w, "failed to save history", http.StatusInternalServerError)
		return
	}

	resp := convertResponse{
		ID:             recordID,
		FileName:       header.Filename,
		ExtractedText:  result.ExtractedText,
		SimplifiedText: result.SimplifiedText,
		CreatedAt:      time.Now().UTC().Format(time.RFC3339),
	}

	if len(result.Audio) > 0 {
		audioID, err := h.audioStore.Save(claims.Username, result.Audio)
		if err != nil {
			// The history row is already written; a lost clip degrades to a
			// response without audio, like a failed synthesis stage.
			log.Printf("[convert] failed to store audio for %s: %v", claims.Username, err)
		} else {
			resp.AudioURL = "/api/convert/audio/" + audioID
		}
	}

	jsonResponse(w, resp, http.StatusOK)
}

// GetAudio serves a synthesized clip for playback or download. Clips are
// scoped to the user who produced them.
func (h *ConvertHandler) GetAudio(w http.ResponseWriter, r *http.Request) {
	claims := middleware.GetClaims(r)
	if claims == nil {
		jsonError(w, "unauthorized", http.StatusUnauthorized)
		return
	}

	id := chi.URLParam(r, "id")
	path, err := h.audioStore.Path(claims.Username, id)
	if err != nil {
		jsonError(w, "audio not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "audio/mpeg")
	http.ServeFile(w, r, path)
}
