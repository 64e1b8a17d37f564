// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/system/apierr"
	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// ErrorLogger logs handler failures with request context and writes the
// matching error envelope.
type ErrorLogger struct {
	log *zap.Logger
}

func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

func (e *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	fs := []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
	}
	if id := middleware.GetReqID(r.Context()); id != "" {
		fs = append(fs, zap.String("request_id", id))
	}
	if u, ok := auth.CurrentUser(r); ok {
		fs = append(fs, zap.String("user_id", u.ID))
	}
	if err != nil {
		fs = append(fs, zap.Error(err))
	}
	return fs
}

// LogBadRequest logs at Warn and writes a 400 with userMsg.
func (e *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, logMsg string, err error, userMsg string) {
	e.log.Warn(logMsg, e.fields(r, err)...)
	apierr.BadRequest(w, userMsg)
}

// LogServerError logs at Error and writes a generic 500.
func (e *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, logMsg string, err error) {
	e.log.Error(logMsg, e.fields(r, err)...)
	apierr.Internal(w)
}
