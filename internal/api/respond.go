package api

import (
	"encoding/json"
	"net/http"

	stderrors "errors"

	"github.com/pystudio/pystudio/pkg/errors"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error struct {
		Code     errors.Code `json:"code"`
		Message  string      `json:"message"`
		Residual []string    `json:"residual,omitempty"`
	} `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps a structured error to an HTTP status and JSON body.
func writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = errors.UserMessage(err)

	var pie *errors.PartialInstallError
	if stderrors.As(err, &pie) {
		body.Error.Residual = pie.Residual
	}

	writeJSON(w, statusFor(code), body)
}

func statusFor(code errors.Code) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeInvalidPath, errors.ErrCodeInvalidScript:
		return http.StatusBadRequest
	case errors.ErrCodeNotFound, errors.ErrCodeEnvNotFound,
		errors.ErrCodeSessionNotFound, errors.ErrCodeFileNotFound:
		return http.StatusNotFound
	case errors.ErrCodeInstallBusy, errors.ErrCodeSessionBusy:
		return http.StatusConflict
	case errors.ErrCodeEnvNotReady:
		return http.StatusConflict
	case errors.ErrCodePartialInstall:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
