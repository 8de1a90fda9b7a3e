// internal/app/features/shared/respond.go
package shared

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/bluestream/channelhub/internal/domain/usererrors"
)

// JSON writes v with the given status. Encoding failures are ignored; by the
// time they can occur the status line is already on the wire.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// DecodeJSON reads the request body into dst, translating malformed input
// into a property-invalid user error.
func DecodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return usererrors.PropertyInvalid("Request body is not valid JSON")
	}
	return nil
}

// PathObjectID extracts a Mongo object id from a chi URL parameter.
func PathObjectID(r *http.Request, name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	if err != nil {
		return primitive.NilObjectID, usererrors.IDInvalid()
	}
	return id, nil
}

// AmountResponse is the body of every */amount endpoint.
type AmountResponse struct {
	Amount int64 `json:"amount"`
}
