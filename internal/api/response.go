package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "raffle/internal/errors"
	"raffle/internal/logger"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func statusOf(code apperrors.Code) int {
	switch code {
	case apperrors.CodeValidation:
		return http.StatusBadRequest
	case apperrors.CodeNotAuthorized:
		return http.StatusForbidden
	case apperrors.CodeNotFound:
		return http.StatusNotFound
	case apperrors.CodeMissingFunds:
		return http.StatusPaymentRequired
	case apperrors.CodeNotActive,
		apperrors.CodeAlreadyClaimed,
		apperrors.CodeNotSoldOut,
		apperrors.CodeSalesPeriodOver,
		apperrors.CodeSoldOut,
		apperrors.CodeInsufficientTicketSupply:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// RespondError maps engine error codes to HTTP statuses. Internal errors are
// logged and reported without their cause.
func RespondError(c *gin.Context, err error) {
	code := apperrors.CodeOf(err)
	status := statusOf(code)

	message := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("api: request failed", zap.String("path", c.FullPath()), zap.Error(err))
		message = "internal error"
	}

	c.JSON(status, ErrorEnvelope{
		Error: APIError{
			Message: message,
			Code:    string(code),
		},
	})
}

func RespondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, ErrorEnvelope{
		Error: APIError{
			Message: err.Error(),
			Code:    string(apperrors.CodeValidation),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
