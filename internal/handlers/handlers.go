package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"media-cache/internal/config"
	"media-cache/internal/importer"
	"media-cache/internal/metrics"
	"media-cache/internal/middleware"
	"media-cache/internal/optimizer"
	"media-cache/internal/scanner"
	"media-cache/internal/store"
	"media-cache/internal/tasks"
)

// Handlers bundles the boundary API's dependencies.
type Handlers struct {
	cfg      *config.Manager
	store    *store.Store
	tasks    *tasks.Registry
	opt      *optimizer.Optimizer
	scanner  *scanner.Scanner
	importer *importer.Importer
}

// New creates the handler set.
func New(cfg *config.Manager, st *store.Store, registry *tasks.Registry, opt *optimizer.Optimizer, sc *scanner.Scanner, im *importer.Importer) *Handlers {
	return &Handlers{
		cfg:      cfg,
		store:    st,
		tasks:    registry,
		opt:      opt,
		scanner:  sc,
		importer: im,
	}
}

// Router builds the HTTP route table.
func (h *Handlers) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)

	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/folders", h.ListFolders).Methods(http.MethodGet)
	api.HandleFunc("/folders", h.RegisterFolder).Methods(http.MethodPost)
	api.HandleFunc("/folders", h.UnregisterFolder).Methods(http.MethodDelete)
	api.HandleFunc("/folders/clear-cache", h.ClearFolderCache).Methods(http.MethodPost)

	api.HandleFunc("/cache/path/{hash}", h.GetCachedPath).Methods(http.MethodGet)
	api.HandleFunc("/cache/entries", h.AddCacheEntry).Methods(http.MethodPost)
	api.HandleFunc("/cache/stats", h.CacheStats).Methods(http.MethodGet)
	api.HandleFunc("/cache/cleanup", h.CleanupOrphanedFolders).Methods(http.MethodPost)

	api.HandleFunc("/tasks", h.ListTasks).Methods(http.MethodGet)
	api.HandleFunc("/tasks", h.CreateTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks", h.RemoveTask).Methods(http.MethodDelete)
	api.HandleFunc("/tasks/status", h.TaskStatus).Methods(http.MethodGet)
	api.HandleFunc("/tasks/pause", h.PauseTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/resume", h.ResumeTask).Methods(http.MethodPost)
	api.HandleFunc("/tasks/stop", h.StopTask).Methods(http.MethodPost)

	api.HandleFunc("/optimize", h.OptimizeFile).Methods(http.MethodPost)
	api.HandleFunc("/optimize/batch", h.BatchOptimize).Methods(http.MethodPost)

	api.HandleFunc("/scan", h.ScanFolder).Methods(http.MethodPost)
	api.HandleFunc("/scan/import-source", h.ScanImportSource).Methods(http.MethodPost)
	api.HandleFunc("/scan/count", h.CountMediaFiles).Methods(http.MethodGet)

	api.HandleFunc("/import", h.Import).Methods(http.MethodPost)

	api.HandleFunc("/media", h.LoadMediaRecords).Methods(http.MethodGet)
	api.HandleFunc("/media", h.SaveMediaRecords).Methods(http.MethodPost)
	api.HandleFunc("/media", h.DeleteMediaRecord).Methods(http.MethodDelete)
	api.HandleFunc("/media/count", h.CountMediaRecords).Methods(http.MethodGet)

	return r
}
