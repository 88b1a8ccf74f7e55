package handler

import (
	"net/http"

	"github.com/mossfern/verdant/internal/domain"
	"github.com/mossfern/verdant/internal/middleware"
)

// ErrorCodeToHTTPStatus maps domain error codes to HTTP status codes
func ErrorCodeToHTTPStatus(code string) int {
	switch code {
	case domain.EINVALID:
		return http.StatusBadRequest
	case domain.EUNAUTHORIZED:
		return http.StatusUnauthorized
	case domain.EPAYMENT:
		return http.StatusPaymentRequired
	case domain.ENOTFOUND:
		return http.StatusNotFound
	case domain.ECONFLICT:
		return http.StatusConflict
	case domain.EINTERNAL:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

type errorBody struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// ErrorResponse writes a JSON error response derived from a domain error.
// Internal errors are logged with their operation and cause; the client
// only ever sees the safe message.
func ErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	code := domain.ErrorCode(err)
	status := ErrorCodeToHTTPStatus(code)

	if code == domain.EINTERNAL {
		middleware.GetLogger(r.Context()).Error("internal error",
			"op", domain.ErrorOp(err),
			"error", err,
		)
	}

	var body errorBody
	body.Error.Code = code
	body.Error.Message = domain.ErrorMessage(err)

	writeJSON(w, status, body)
}
