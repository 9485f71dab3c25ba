package console

import (
	"net/http"

	"github.com/gorilla/mux"

	"ControlPagos/api/constants"
)

func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(cors)

	router.HandleFunc("/api/health", h.Health).Methods(http.MethodGet)
	router.HandleFunc("/api/default-date", h.DefaultDate).Methods(http.MethodGet)
	router.HandleFunc("/api/runs", h.StartRun).Methods(http.MethodPost)
	router.HandleFunc("/api/runs", h.ListRuns).Methods(http.MethodGet)
	router.HandleFunc("/api/runs/{id}", h.GetRun).Methods(http.MethodGet)
	router.HandleFunc("/api/runs/{id}/cancel", h.CancelRun).Methods(http.MethodPost)
	router.HandleFunc("/api/runs/{id}/events", h.RunEvents).Methods(http.MethodGet)
	router.HandleFunc("/api/notifications", h.ListNotifications).Methods(http.MethodGet)

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, constants.ErrMethodNotAllowed, http.StatusMethodNotAllowed)
	})
	return router
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(constants.HeaderAccessControlAllowOrigin, "*")
		w.Header().Set(constants.HeaderAccessControlAllowHeaders, "Content-Type")
		w.Header().Set(constants.HeaderAccessControlAllowMethods, "GET, POST, OPTIONS")
		next.ServeHTTP(w, r)
	})
}
