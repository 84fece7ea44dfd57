package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/eugenenazirov/kerkoapp/internal/analytics"
	"github.com/eugenenazirov/kerkoapp/internal/session"
)

// EventThemeToggled is captured each time a visitor switches theme.
const EventThemeToggled = "theme_toggled"

// Handler serves the application's own routes.
type Handler struct {
	sessions  *session.Store
	errs      *ErrorHandler
	searchURL string
	analytics analytics.Client
	logger    *zap.Logger

	clock func() time.Time
}

// HandlerOption configures Handler behaviour.
type HandlerOption func(*Handler)

// WithClock overrides the time source, primarily for tests.
func WithClock(clock func() time.Time) HandlerOption {
	return func(h *Handler) {
		h.clock = clock
	}
}

// WithAnalytics enables event capture.
func WithAnalytics(client analytics.Client) HandlerOption {
	return func(h *Handler) {
		h.analytics = client
	}
}

// WithLogger sets the logger used for non-fatal failures.
func WithLogger(logger *zap.Logger) HandlerOption {
	return func(h *Handler) {
		h.logger = logger
	}
}

// NewHandler constructs a Handler. searchURL is where the index redirects.
func NewHandler(sessions *session.Store, errs *ErrorHandler, searchURL string, opts ...HandlerOption) *Handler {
	h := &Handler{
		sessions:  sessions,
		errs:      errs,
		searchURL: searchURL,
		logger:    zap.NewNop(),
		clock: func() time.Time {
			return time.Now().UTC()
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.errs == nil {
		h.errs = NewErrorHandler(nil, h.logger)
	}
	return h
}

// Register adds the routes to r.
func (h *Handler) Register(r chi.Router) {
	r.Get("/", h.handleIndex)
	r.Get("/toggle-theme", h.handleToggleTheme)
	r.Get("/healthz", h.handleHealth)
}

func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, ScriptRoot(r.Context())+h.searchURL, http.StatusFound)
}

func (h *Handler) handleToggleTheme(w http.ResponseWriter, r *http.Request) {
	sess := session.FromContext(r.Context())
	theme := sess.ToggleTheme()

	if h.analytics != nil {
		event := analytics.Event{
			Name:       EventThemeToggled,
			DistinctID: sess.UserID(),
			Properties: map[string]any{"theme": theme},
		}
		if err := h.analytics.Capture(r.Context(), event); err != nil {
			h.logger.Warn("capture analytics event", zap.String("event", event.Name), zap.Error(err))
		}
	}

	if err := h.sessions.Save(w, sess); err != nil {
		h.errs.Render(w, r, err)
		return
	}

	target := r.Referer()
	if target == "" {
		target = ScriptRoot(r.Context()) + "/"
	}
	http.Redirect(w, r, target, http.StatusFound)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Timestamp: h.clock(),
	})
}

type healthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if status != 0 {
		w.WriteHeader(status)
	}
	_ = json.NewEncoder(w).Encode(payload)
}
