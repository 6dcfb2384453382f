package handler

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"pulmoscan/internal/model"
	"pulmoscan/internal/service"
	"pulmoscan/internal/transport/rest/middleware"
)

// maxUploadBytes caps the multipart form size (10MB).
const maxUploadBytes = 10 << 20

// PredictHandler handles the triage endpoints.
type PredictHandler struct {
	svc *service.PredictionService
}

// NewPredictHandler creates a new prediction handler.
func NewPredictHandler(svc *service.PredictionService) *PredictHandler {
	return &PredictHandler{svc: svc}
}

// Health handles GET /api/health
func (h *PredictHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := h.svc.HealthStatus()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":       "ok",
		"model_loaded": status.Available,
		"mode":         string(status.Mode),
		"classes":      status.Classes,
	})
}

// Classes handles GET /api/classes
func (h *PredictHandler) Classes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"classes": model.ClassNames(),
	})
}

// Predict handles POST /api/predict
func (h *PredictHandler) Predict(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, http.StatusBadRequest, "No image provided. Send as multipart/form-data with key 'image'.")
		return
	}

	file, _, err := r.FormFile("image")
	if err != nil {
		// A part uploaded with an empty filename is parsed as a plain
		// form value, so it never reaches FormFile.
		if r.MultipartForm != nil && len(r.MultipartForm.Value["image"]) > 0 {
			writeError(w, http.StatusBadRequest, "Empty filename")
			return
		}
		writeError(w, http.StatusBadRequest, "No image provided. Send as multipart/form-data with key 'image'.")
		return
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		log.Printf("[predict %s] reading upload failed: %v", middleware.GetRequestID(r.Context()), err)
		writeError(w, http.StatusInternalServerError, "Failed to read upload")
		return
	}

	diagnosis, err := h.svc.Predict(r.Context(), imageBytes)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrInvalidInput):
			writeError(w, http.StatusBadRequest, "Invalid image. Supported formats: JPEG, PNG")
		case errors.Is(err, model.ErrNoModelLoaded):
			writeError(w, http.StatusServiceUnavailable, "No model loaded. Configure a model or enable the fallback.")
		default:
			log.Printf("[predict %s] inference error: %v", middleware.GetRequestID(r.Context()), err)
			writeError(w, http.StatusInternalServerError, "Prediction failed")
		}
		return
	}

	log.Printf("[predict %s] %s (%.1f%%) demo=%v", middleware.GetRequestID(r.Context()),
		diagnosis.PredictedClass, diagnosis.Confidence*100, diagnosis.DemoMode)
	writeJSON(w, http.StatusOK, diagnosis)
}

// Helper functions
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
