// internal/app/features/errors/errors.go
package errors

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/bluestream/channelhub/internal/domain/usererrors"
)

// envelope is the error body every API endpoint returns.
type envelope struct {
	Error body `json:"error"`
}

type body struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Render writes err as the standard JSON error envelope. Categorized user
// errors keep their status and message; anything else is a 500 whose detail
// goes to the log, not the client.
func Render(w http.ResponseWriter, log *zap.Logger, err error) {
	if ue, ok := usererrors.From(err); ok {
		write(w, ue.Status, string(ue.Kind), ue.Message)
		return
	}
	log.Error("unhandled error", zap.Error(err))
	write(w, http.StatusInternalServerError, "internal_error", "Internal server error")
}

func write(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(envelope{Error: body{Code: code, Message: message}})
}
