package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/google/uuid"

	"github.com/DukeRupert/certum/internal/domain"
)

// maxJSONBody bounds JSON request bodies.
const maxJSONBody = 1 << 20

// decodeJSON reads a single JSON object from the request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	const op = "request.decode"

	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		switch {
		case errors.As(err, &maxErr):
			return domain.TooLarge(op, "request body is too large")
		case errors.Is(err, io.EOF):
			return domain.Invalid(op, "request body is required")
		default:
			return domain.Invalid(op, "request body is not valid JSON")
		}
	}
	return nil
}

// pathID parses the named path value as a UUID. A malformed id cannot name
// anything, so it reads as not found.
func pathID(r *http.Request, name, resource string) (uuid.UUID, error) {
	raw := r.PathValue(name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NotFound("request.path_id", resource, raw)
	}
	return id, nil
}
