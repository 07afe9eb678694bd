package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"

	"github.com/matzehuels/heatmap/pkg/errors"
)

// errorBody is the JSON error envelope.
type errorBody struct {
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

func errNotFound(path string) error {
	return errors.New(errors.ErrCodeNotFound, "no route for %s", path)
}

// statusFor maps an error to its HTTP status and envelope.
func statusFor(err error) (int, errorBody) {
	var rl *errors.RateLimitedError
	if stderrors.As(err, &rl) {
		msg := rl.Message
		if msg == "" {
			msg = rl.Error()
		}
		return http.StatusTooManyRequests, errorBody{Code: rl.Code(), Message: msg}
	}

	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return http.StatusRequestEntityTooLarge, errorBody{
			Code:    errors.ErrCodeInvalidInput,
			Message: "request body too large",
		}
	}

	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, context.DeadlineExceeded) {
		return http.StatusServiceUnavailable, errorBody{Code: errors.ErrCodeInternal, Message: "request cancelled"}
	}

	code := errors.GetCode(err)
	switch {
	case errors.IsValidation(err):
		return http.StatusBadRequest, errorBody{Code: code, Message: errors.UserMessage(err)}
	case code == errors.ErrCodeNotFound, code == errors.ErrCodeFileNotFound, code == errors.ErrCodeSchemeNotFound:
		return http.StatusNotFound, errorBody{Code: code, Message: errors.UserMessage(err)}
	case code == errors.ErrCodeUnsupported:
		return http.StatusNotImplemented, errorBody{Code: code, Message: errors.UserMessage(err)}
	}
	return http.StatusInternalServerError, errorBody{Code: errors.ErrCodeInternal, Message: "internal error"}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, body := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "id", RequestID(r.Context()), "error", err)
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
