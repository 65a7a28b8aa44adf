package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/cory-johannsen/kniffel/internal/game/dice"
	"github.com/cory-johannsen/kniffel/internal/game/scoreboard"
	"github.com/cory-johannsen/kniffel/internal/game/session"
)

var (
	// errBadRequest marks malformed bodies and path parameters.
	errBadRequest = errors.New("bad request")
	// errConflict marks requests the current table state refuses.
	errConflict = errors.New("conflict")
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// fail maps a model or request error to its status code.
func fail(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, session.ErrTableLimit):
		return http.StatusTooManyRequests
	case errors.Is(err, session.ErrTableNotFound):
		return http.StatusNotFound
	case errors.Is(err, session.ErrPlayerLimit), errors.Is(err, errConflict):
		return http.StatusConflict
	case errors.Is(err, errBadRequest),
		errors.Is(err, scoreboard.ErrCategoryOutOfRange),
		errors.Is(err, scoreboard.ErrPlayerOutOfRange),
		errors.Is(err, scoreboard.ErrNotEditable),
		errors.Is(err, scoreboard.ErrNotFixedCategory),
		errors.Is(err, dice.ErrDieOutOfRange):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// decode reads a single JSON value of type T, rejecting unknown fields.
func decode[T any](body io.Reader) (T, error) {
	var payload T
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		return payload, fmt.Errorf("%w: decoding body: %v", errBadRequest, err)
	}
	return payload, nil
}
