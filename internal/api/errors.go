package api

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/eugenenazirov/kerkoapp/internal/i18n"
)

// Renderer executes a named page template.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) error
}

// HTTPError carries the status code a failure should be reported with.
type HTTPError struct {
	Code int
	Err  error
}

// NewHTTPError wraps err with an HTTP status code.
func NewHTTPError(code int, err error) *HTTPError {
	return &HTTPError{Code: code, Err: err}
}

func (e *HTTPError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("%d %s: %v", e.Code, http.StatusText(e.Code), e.Err)
}

func (e *HTTPError) Unwrap() error {
	return e.Err
}

// handledCodes have a dedicated error page. Everything else uses the 500 page.
var handledCodes = map[int]struct{}{
	http.StatusBadRequest:          {},
	http.StatusForbidden:           {},
	http.StatusNotFound:            {},
	http.StatusInternalServerError: {},
	http.StatusServiceUnavailable:  {},
}

// ErrorTemplate returns the page template used for status code.
func ErrorTemplate(code int) string {
	if _, ok := handledCodes[code]; !ok {
		code = http.StatusInternalServerError
	}
	return fmt.Sprintf("kerkoapp/%d.html.tmpl", code)
}

// ErrorHandler renders error pages.
type ErrorHandler struct {
	renderer Renderer
	logger   *zap.Logger
}

// NewErrorHandler creates an ErrorHandler. A nil renderer produces plain text
// responses.
func NewErrorHandler(renderer Renderer, logger *zap.Logger) *ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ErrorHandler{renderer: renderer, logger: logger}
}

// Render reports err. The status is taken from an HTTPError in err's chain
// and defaults to 500.
func (h *ErrorHandler) Render(w http.ResponseWriter, r *http.Request, err error) {
	code := http.StatusInternalServerError
	var httpErr *HTTPError
	if errors.As(err, &httpErr) && httpErr.Code >= 400 && httpErr.Code <= 599 {
		code = httpErr.Code
	}

	if code >= http.StatusInternalServerError {
		h.logger.Error("request failed",
			zap.Int("status", code),
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFromContext(r.Context())),
			zap.Error(err),
		)
	}

	if h.renderer != nil {
		data := map[string]any{
			"locale":      i18n.FromContext(r.Context()),
			"status":      code,
			"status_text": http.StatusText(code),
		}
		renderErr := h.renderer.Render(w, r, code, ErrorTemplate(code), data)
		if renderErr == nil {
			return
		}
		h.logger.Error("render error page", zap.Int("status", code), zap.Error(renderErr))
	}
	http.Error(w, http.StatusText(code), code)
}

// Handler returns a handler that always reports code.
func (h *ErrorHandler) Handler(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.Render(w, r, NewHTTPError(code, nil))
	}
}
