package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/andrescamacho/mediator-go/internal/domain/shared"
)

// Problem is the JSON body of every error response
type Problem struct {
	Kind     shared.ErrorKind    `json:"kind"`
	Message  string              `json:"message"`
	Fields   []shared.FieldError `json:"fields,omitempty"`
	Metadata map[string]string   `json:"metadata,omitempty"`
}

// StatusFor maps a failure to its HTTP status
func StatusFor(err *shared.Error) int {
	switch err.Kind {
	case shared.KindNotFound, shared.KindHandlerNotFound:
		return http.StatusNotFound
	case shared.KindValidation:
		return http.StatusUnprocessableEntity
	case shared.KindConflict:
		return http.StatusConflict
	case shared.KindUnauthorized:
		return http.StatusUnauthorized
	case shared.KindForbidden:
		return http.StatusForbidden
	case shared.KindCancelled:
		if err.Metadata["reason"] == "rate_limited" {
			return http.StatusTooManyRequests
		}
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func problemFor(err *shared.Error) Problem {
	p := Problem{Kind: err.Kind, Message: err.Message, Fields: err.Fields}
	switch err.Kind {
	case shared.KindUnexpected, shared.KindInvalidState, shared.KindDuplicateRegistration:
		// internals stay in the logs
		p.Message = "internal error"
	default:
		p.Metadata = err.Metadata
	}
	return p
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeProblem(w http.ResponseWriter, err *shared.Error) {
	writeJSON(w, StatusFor(err), problemFor(err))
}
