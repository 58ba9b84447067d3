package competitionhandlers

import (
	"encoding/json"
	"errors"
	"net/http"

	competitionservice "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/application"
)

// statusFor maps a service error onto an HTTP status code.
func statusFor(err error) int {
	switch {
	case errors.Is(err, competitionservice.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, competitionservice.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, competitionservice.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, competitionservice.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, competitionservice.ErrTooManyRounds),
		errors.Is(err, competitionservice.ErrCannotRemove),
		errors.Is(err, competitionservice.ErrNoNextRound):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
