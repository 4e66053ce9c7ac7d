// Package httpapi exposes the adaptive service over JSON/HTTP.
package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/abhisek/skillscope/internal/adaptive"
)

// NewRouter creates the API router with all endpoints.
func NewRouter(svc *adaptive.Service, logger *log.Logger) http.Handler {
	r := mux.NewRouter()
	h := NewHandler(svc)

	r.Use(requestLogger(logger))

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods("GET")

	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/attempts", h.RecordAttempts).Methods("POST")
	v1.HandleFunc("/students/{studentId}/apply", h.Apply).Methods("POST")
	v1.HandleFunc("/students/{studentId}/profile", h.Profile).Methods("GET")
	v1.HandleFunc("/students/{studentId}/history", h.History).Methods("GET")
	v1.HandleFunc("/students/{studentId}/next-skill", h.NextSkill).Methods("GET")
	v1.HandleFunc("/students/{studentId}/concepts/{conceptId}/attempts", h.Window).Methods("GET")

	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func requestLogger(logger *log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)
			logger.Printf("%s %s %d %s", r.Method, r.URL.Path, rec.status, time.Since(start).Round(time.Microsecond))
		})
	}
}
