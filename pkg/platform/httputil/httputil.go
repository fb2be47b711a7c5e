// Package httputil centralizes JSON encoding and domain error translation so
// every handler produces the same envelopes.
package httputil

import (
	"encoding/json"
	"errors"
	"net/http"

	dErrors "practiceops/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeInvalidInput:        http.StatusBadRequest,
	dErrors.CodeInvalidRange:        http.StatusBadRequest,
	dErrors.CodeAlreadyDecided:      http.StatusConflict,
	dErrors.CodeOverlapConflict:     http.StatusConflict,
	dErrors.CodeLeaveConflict:       http.StatusConflict,
	dErrors.CodeDuplicateAssignment: http.StatusConflict,
	dErrors.CodeNotFound:            http.StatusNotFound,
	dErrors.CodeUnauthorized:        http.StatusUnauthorized,
	dErrors.CodeForbidden:           http.StatusForbidden,
	dErrors.CodeTimeout:             http.StatusGatewayTimeout,
	dErrors.CodeAuditWriteFailure:   http.StatusInternalServerError,
	dErrors.CodeInternal:            http.StatusInternalServerError,
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteJSON writes a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Detailer is implemented by conflict errors that can name the entity they
// collide with. Its details land in the envelope under "conflict".
type Detailer interface {
	ErrorDetails() map[string]any
}

// WriteError translates a domain error into a JSON error envelope. Internal
// failures omit the description so storage details never leak to clients;
// validation errors keep it, because the presentation layer is expected to
// explain conflicts, not just reject them.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeInternal
	message := ""
	var de *dErrors.Error
	if errors.As(err, &de) {
		code = de.Code
		message = de.Message
	}

	body := map[string]any{"error": string(code)}
	if message != "" && code != dErrors.CodeInternal && code != dErrors.CodeAuditWriteFailure {
		body["error_description"] = message
	}
	var d Detailer
	if errors.As(err, &d) {
		body["conflict"] = d.ErrorDetails()
	}
	WriteJSON(w, ToHTTPStatus(code), body)
}

// Decode parses a JSON request body into T, returning a coded error on
// malformed input.
func Decode[T any](r *http.Request) (T, error) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return req, dErrors.Wrap(err, dErrors.CodeInvalidInput, "malformed request body")
	}
	return req, nil
}
