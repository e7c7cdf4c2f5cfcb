package gateway

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/parleyai/parley/internal/apperrors"
)

// errorResponse renders err as the gateway's JSON error shape with the
// HTTP status §7 maps its apperrors.Code to. Non-apperrors errors map to
// 500 internal.
func errorResponse(c echo.Context, err error) error {
	status, detail := statusFor(err)
	return c.JSON(status, map[string]string{"detail": detail})
}

func statusFor(err error) (int, string) {
	code := apperrors.CodeOf(err, apperrors.CodeInternal)
	switch code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest, err.Error()
	case apperrors.CodeNotFound:
		return http.StatusNotFound, err.Error()
	case apperrors.CodeProviderAuth, apperrors.CodeProviderRateLimit, apperrors.CodeProviderTimeout,
		apperrors.CodeProviderUpstream, apperrors.CodeMalformedLLMOutput:
		return http.StatusBadGateway, err.Error()
	case apperrors.CodeStorage:
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, err.Error()
	}
}
