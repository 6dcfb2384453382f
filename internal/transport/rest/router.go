package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"pulmoscan/internal/service"
	"pulmoscan/internal/transport/rest/handler"
	"pulmoscan/internal/transport/rest/middleware"
)

// Container holds all dependencies for the router
type Container struct {
	PredictionService *service.PredictionService
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	predictHandler := handler.NewPredictHandler(c.PredictionService)

	r.Use(corsMiddleware)
	r.Use(middleware.RequestID)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", predictHandler.Health).Methods("GET", "OPTIONS")
	api.HandleFunc("/classes", predictHandler.Classes).Methods("GET", "OPTIONS")
	api.HandleFunc("/predict", predictHandler.Predict).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
