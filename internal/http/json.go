package httpx

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	apperrors "github.com/epharmacy/locator-web/internal/errors"
)

// WriteJSON writes a JSON response with the given status code and data.
func WriteJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	// Response writer errors (e.g., client disconnect) can't be recovered from here.
	_, _ = buf.WriteTo(w)
}

// ErrorParams groups parameters for WriteError to adhere to the ≤3 params guideline.
type ErrorParams struct {
	Code    int
	ErrCode string
	Err     error
}

// WriteError writes a JSON error response using ErrorParams.
func WriteError(w http.ResponseWriter, p ErrorParams) {
	msg := http.StatusText(p.Code)
	if p.Err != nil {
		msg = p.Err.Error()
	}
	WriteJSON(w, p.Code, map[string]string{"error": p.ErrCode, "message": msg})
}

// WriteAppError maps an application error to its HTTP status and writes it.
// Internal causes are not echoed to the client.
func WriteAppError(w http.ResponseWriter, err error) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: string(apperrors.ErrCodeInternal)})
		return
	}
	status := http.StatusInternalServerError
	switch appErr.Code {
	case apperrors.ErrCodeNotFound:
		status = http.StatusNotFound
	case apperrors.ErrCodeValidation:
		status = http.StatusBadRequest
	case apperrors.ErrCodeUnavailable:
		status = http.StatusServiceUnavailable
	case apperrors.ErrCodeTimeout:
		status = http.StatusGatewayTimeout
	}
	if status == http.StatusInternalServerError {
		WriteError(w, ErrorParams{Code: status, ErrCode: string(appErr.Code)})
		return
	}
	WriteError(w, ErrorParams{Code: status, ErrCode: string(appErr.Code), Err: errors.New(appErr.Message)})
}
