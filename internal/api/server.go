// Package api exposes the calculator over a JSON HTTP API.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/bher20/ecoenergy/internal/api/swagger"
	"github.com/bher20/ecoenergy/internal/auth"
	"github.com/bher20/ecoenergy/internal/consumption"
	"github.com/bher20/ecoenergy/internal/energy"
	"github.com/bher20/ecoenergy/internal/metrics"
	"github.com/bher20/ecoenergy/internal/notification"
	"github.com/bher20/ecoenergy/internal/report"
	"github.com/bher20/ecoenergy/internal/solar"
	"github.com/bher20/ecoenergy/internal/storage"
)

// Deps are the services the API is built on. Mailer may be nil.
type Deps struct {
	Store       storage.Storage
	Consumption *consumption.Service
	Auth        *auth.Service
	Reports     *report.Service
	Mailer      *notification.Service
	Logger      *zap.Logger
}

// Handler serves the /api/v1 routes.
type Handler struct {
	Deps
	log *zap.Logger
}

// NewMux constructs the HTTP mux with the API, metrics, health endpoints
// and API docs.
func NewMux(d Deps) *http.ServeMux {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	h := &Handler{Deps: d, log: log.Named("api")}
	mux := http.NewServeMux()

	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/readyz", h.ready)
	mux.HandleFunc("/livez", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("live"))
	})
	mux.Handle("/docs/", http.StripPrefix("/docs", swagger.Handler()))

	public := func(pattern, route string, fn http.HandlerFunc) {
		mux.Handle(pattern, instrument(route, fn))
	}
	guarded := func(pattern, route, obj, act string, fn http.HandlerFunc) {
		mux.Handle(pattern, instrument(route, d.Auth.Middleware(d.Auth.RequirePermission(obj, act, fn))))
	}

	public("POST /api/v1/register", "register", h.register)
	public("POST /api/v1/login", "login", h.login)
	public("POST /api/v1/logout", "logout", h.logout)

	guarded("GET /api/v1/appliances", "appliances", auth.ObjAppliances, auth.ActRead, h.listAppliances)
	guarded("POST /api/v1/appliances", "appliances", auth.ObjAppliances, auth.ActWrite, h.addAppliance)
	guarded("DELETE /api/v1/appliances", "appliances", auth.ObjAppliances, auth.ActWrite, h.resetAppliances)
	guarded("GET /api/v1/consumption", "consumption", auth.ObjConsumption, auth.ActRead, h.consumption)
	guarded("GET /api/v1/history", "history", auth.ObjHistory, auth.ActRead, h.listHistory)
	guarded("POST /api/v1/history", "history", auth.ObjHistory, auth.ActWrite, h.appendHistory)
	guarded("GET /api/v1/charts/{kind}", "charts", auth.ObjReport, auth.ActRead, h.chart)
	guarded("GET /api/v1/report", "report", auth.ObjReport, auth.ActRead, h.report)
	guarded("POST /api/v1/report/email", "report_email", auth.ObjReport, auth.ActRead, h.emailReport)

	public("GET /api/v1/tips", "tips", h.tips)
	public("GET /api/v1/solar", "solar", h.solar)
	public("GET /api/v1/tariffs", "tariffs", h.tariffs)
	public("GET /api/v1/catalog", "catalog", h.catalog)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		http.Redirect(w, r, "/docs/", http.StatusFound)
	})
	return mux
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Ping(r.Context()); err != nil {
		h.log.Warn("readyz: storage ping failed", zap.Error(err))
		http.Error(w, "storage not ready", http.StatusServiceUnavailable)
		return
	}
	if gs, ok := h.Store.(*storage.GormStorage); ok {
		if stats, err := gs.Stats(); err == nil {
			metrics.UpdateDBPoolMetrics(gs.Driver(), stats)
		}
	}
	_, _ = w.Write([]byte("ready"))
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request count, duration and error responses of route.
func instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		metrics.RequestsTotal.WithLabelValues(route).Inc()
		next.ServeHTTP(rec, r)
		metrics.RequestDurationSeconds.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		if rec.status >= 400 {
			metrics.RequestErrorsTotal.WithLabelValues(route, strconv.Itoa(rec.status)).Inc()
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrDuplicateAccount):
		return http.StatusConflict
	case errors.Is(err, storage.ErrAccountNotFound),
		errors.Is(err, report.ErrNothingToPlot):
		return http.StatusNotFound
	case errors.Is(err, energy.ErrInvalidInput),
		errors.Is(err, solar.ErrInvalidInput),
		errors.Is(err, auth.ErrMissingCredentials),
		errors.Is(err, notification.ErrInvalidRecipient):
		return http.StatusBadRequest
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenExpired):
		return http.StatusUnauthorized
	case errors.Is(err, notification.ErrDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err with its mapped status. Internal errors are logged and
// not echoed to the client.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
		http.Error(w, "internal error", status)
		return
	}
	http.Error(w, err.Error(), status)
}
