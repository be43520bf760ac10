package api

import (
	"net/http"

	"github.com/gorilla/mux"
)

// SetupRoutes configures all API routes
func SetupRoutes(handler *Handler, metrics http.Handler) *mux.Router {
	r := mux.NewRouter()
	r.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	r.NotFoundHandler = http.HandlerFunc(notFound)
	r.Use(handler.logRequests)

	r.HandleFunc("/health", handler.HealthCheck).Methods("GET")
	if metrics != nil {
		r.Handle("/metrics", metrics).Methods("GET")
	}

	// Netlify function paths stay routable for existing alert senders
	for _, path := range []string{"/webhook", "/.netlify/functions/webhook"} {
		r.HandleFunc(path, handler.HandleAlert).Methods("POST")
	}
	for _, path := range []string{"/test-discord", "/.netlify/functions/test-discord"} {
		r.HandleFunc(path, handler.HandleTest).Methods("GET", "POST")
	}

	return r
}
