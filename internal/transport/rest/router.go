package rest

import (
	"net/http"
	"os"

	"commutesurvey/internal/service"
	"commutesurvey/internal/transport/rest/handler"
	"commutesurvey/internal/transport/rest/middleware"
	"commutesurvey/internal/transport/ws"

	"github.com/gorilla/mux"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	RecordStore    *service.RecordStore
	SessionService *service.SessionService
	WSHub          *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	infoHandler := handler.NewInfoHandler(c.RecordStore)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.SessionService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/info/{tokenOrSlug}", infoHandler.Get).Methods("GET", "OPTIONS")
	v1.HandleFunc("/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Session routes (require a token for that session)
	sessionRoutes := v1.NewRoute().Subrouter()
	sessionRoutes.Use(authMW.RequireSession)

	sessionRoutes.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	sessionRoutes.HandleFunc("/sessions/{id}/answers", sessionHandler.Answer).Methods("PATCH", "OPTIONS")
	sessionRoutes.HandleFunc("/sessions/{id}/next", sessionHandler.Next).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/sessions/{id}/previous", sessionHandler.Previous).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/sessions/{id}/comments", sessionHandler.Comments).Methods("PUT", "OPTIONS")
	sessionRoutes.HandleFunc("/sessions/{id}/finish", sessionHandler.Finish).Methods("POST", "OPTIONS")
	sessionRoutes.HandleFunc("/sessions/{id}/reset", sessionHandler.Reset).Methods("POST", "OPTIONS")

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
			allowedMethods = "GET, POST, PUT, PATCH, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization, Accept-Language"
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
