package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BTreeMap/Brenda/internal/models"
)

const msgInternalError = "internal server error"

// encodeFailureBody is written when a response cannot be encoded.
var encodeFailureBody = mustMarshal(models.Error(msgInternalError))

func mustMarshal(v interface{}) []byte {
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("api: failed to marshal static response: %v", err))
	}
	return data
}

// statusForError maps domain errors onto HTTP status codes.
func statusForError(err error) int {
	switch {
	case errors.Is(err, models.ErrEmptyUserID),
		errors.Is(err, models.ErrEmptyBody),
		errors.Is(err, models.ErrInvalidPhone):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrLeadNotFound),
		errors.Is(err, models.ErrCourseNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes the error envelope for err. Server-side failures get a
// generic message so store details never reach the caller.
func writeError(w http.ResponseWriter, err error) {
	status := statusForError(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = msgInternalError
	}
	writeJSONResponse(w, status, models.Error(msg))
}

// writeJSONResponse marshals response before writing headers so an encoding
// failure still yields a well-formed 500.
func writeJSONResponse(w http.ResponseWriter, statusCode int, response interface{}) {
	body, err := json.Marshal(response)
	if err != nil {
		slog.Error("Server.writeJSONResponse: failed to encode response", "error", err, "status", statusCode)
		body = encodeFailureBody
		statusCode = http.StatusInternalServerError
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if _, err := w.Write(body); err != nil {
		slog.Debug("Server.writeJSONResponse: client went away", "error", err)
	}
}
