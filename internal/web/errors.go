package web

// errors.go turns run errors into JSON responses.
//
// The technical error is logged with the request id; the client receives
// the message from core.MapError and a status derived from the error class.

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"

	"github.com/JonMunkholm/productimport/internal/core"
	"github.com/JonMunkholm/productimport/internal/logging"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Action  string `json:"action,omitempty"`
	Code    string `json:"code"`
}

// statusFor picks the HTTP status of a run error.
func statusFor(err error) int {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, core.ErrTooManyImports):
		return http.StatusServiceUnavailable
	case errors.Is(err, core.ErrConfig), errors.Is(err, core.ErrSource):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs err and writes its user message.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error, statusCode int) {
	userMsg := core.MapError(err)

	logging.FromContext(r.Context()).Error("request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", statusCode,
		"error", err.Error(),
		"code", userMsg.Code,
	)

	if statusCode == http.StatusServiceUnavailable {
		w.Header().Set("Retry-After", "5")
	}
	respondErrorJSON(w, userMsg, statusCode)
}

func respondErrorJSON(w http.ResponseWriter, msg core.UserMessage, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error:   msg.Message,
		Message: msg.Message,
		Action:  msg.Action,
		Code:    msg.Code,
	})
}

// badRequest answers with a plain 400 for malformed requests that never
// reached the importer.
func badRequest(w http.ResponseWriter, message string) {
	respondErrorJSON(w, core.UserMessage{
		Message: message,
		Action:  "Check the request and try again",
		Code:    "REQ001",
	}, http.StatusBadRequest)
}
