// internal/app/features/errors/logger.go
package errors

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/reqlog"
	"go.uber.org/zap"
)

// ErrorLogger logs a failure with request context and writes the matching
// JSON error. The internal error never reaches the client.
type ErrorLogger struct {
	log *zap.Logger
}

// NewErrorLogger returns an ErrorLogger writing to logger.
func NewErrorLogger(logger *zap.Logger) *ErrorLogger {
	return &ErrorLogger{log: logger}
}

func (l *ErrorLogger) fields(r *http.Request, err error) []zap.Field {
	return []zap.Field{
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.String("request_id", reqlog.RequestID(r.Context())),
		zap.Error(err),
	}
}

// LogServerError logs at error level and responds 500.
func (l *ErrorLogger) LogServerError(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	l.log.Error(msg, l.fields(r, err)...)
	WriteError(w, http.StatusInternalServerError, CodeInternal, userMsg)
}

// LogBadRequest logs at info level and responds 400.
func (l *ErrorLogger) LogBadRequest(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	l.log.Info(msg, l.fields(r, err)...)
	BadRequest(w, userMsg)
}

// LogUnavailable logs at warn level and responds 503 with retry set. Used
// for timeouts and other transient backend failures.
func (l *ErrorLogger) LogUnavailable(w http.ResponseWriter, r *http.Request, msg string, err error, userMsg string) {
	l.log.Warn(msg, l.fields(r, err)...)
	WriteJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: CodeUnavailable, Message: userMsg, Retry: true})
}
