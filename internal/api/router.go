package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/techresidents/indexsvc/internal/api/recovery"
)

// NewRouter builds the service's HTTP surface: health plus the index/index-all
// producer endpoints, wrapped in panic-recovery middleware.
func NewRouter(health *HealthHandler, index *IndexHandler) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", health.CheckHealth).Methods(http.MethodGet)
	r.HandleFunc("/index", index.Index).Methods(http.MethodPost)
	r.HandleFunc("/index-all", index.IndexAll).Methods(http.MethodPost)
	return recovery.Middleware(r)
}
