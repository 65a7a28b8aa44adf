// Package httpapi exposes the table manager as a JSON API: table lifecycle,
// every scoreboard and dice operation, and a PDF export of the scorecard.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/cory-johannsen/kniffel/internal/game/ruleset"
	"github.com/cory-johannsen/kniffel/internal/game/session"
)

// OriginHTTP is the table origin recorded for API-created tables.
const OriginHTTP = "http"

// HandlerDeps groups what the API needs from the rest of the server.
type HandlerDeps struct {
	Tables *session.Manager
	Sheet  *ruleset.Sheet
	// HoldBeforeFirstRoll lets hold run before the turn's first roll.
	HoldBeforeFirstRoll bool
	// AllowedOrigins is passed to the CORS middleware; empty allows none.
	AllowedOrigins []string
	Logger         *zap.Logger
}

// Handler serves the JSON API.
type Handler struct {
	tables              *session.Manager
	sheet               *ruleset.Sheet
	holdBeforeFirstRoll bool
	allowedOrigins      []string
	logger              *zap.Logger
}

// NewHandler creates a Handler.
//
// Precondition: deps.Tables, deps.Sheet and deps.Logger must be non-nil.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		tables:              deps.Tables,
		sheet:               deps.Sheet,
		holdBeforeFirstRoll: deps.HoldBeforeFirstRoll,
		allowedOrigins:      deps.AllowedOrigins,
		logger:              deps.Logger,
	}
}

// Router builds the chi router with every route mounted.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   h.allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Location"},
		AllowCredentials: false,
		MaxAge:           900,
	}))

	r.Get("/sheet", h.getSheet)

	r.Route("/tables", func(r chi.Router) {
		r.Get("/", h.listTables)
		r.Post("/", h.createTable)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(h.tableCtx)
			r.Get("/", h.getTable)
			r.Delete("/", h.deleteTable)
			r.Post("/reset", h.resetTable)
			r.Get("/scorecard.pdf", h.scorecardPDF)

			r.Post("/players", h.addPlayer)
			r.Delete("/players", h.removePlayer)
			r.Put("/players/{player}/name", h.renamePlayer)

			r.Put("/cells/{category}/{player}", h.setCell)
			r.Post("/cells/{category}/{player}/cycle", h.cycleCell)

			r.Route("/dice", func(r chi.Router) {
				r.Post("/roll", h.roll)
				r.Post("/hold/{die}", h.hold)
				r.Post("/reset", h.resetDice)
			})
		})
	})
	return r
}

type tableKey struct{}

// tableCtx resolves {id} to an open table or answers 404.
func (h *Handler) tableCtx(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		t, ok := h.tables.Get(id)
		if !ok {
			writeError(w, http.StatusNotFound, "table "+id+" not found")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), tableKey{}, t)))
	})
}

func tableFrom(r *http.Request) *session.Table {
	return r.Context().Value(tableKey{}).(*session.Table)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("http request",
			zap.String("request_id", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Int("bytes", ww.BytesWritten()),
			zap.Duration("elapsed", time.Since(start)),
		)
	})
}
