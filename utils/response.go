package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dinehub/restaurant-pos/apperrors"
)

type JSONResponse struct {
	Status  bool        `json:"status"`
	Message string      `json:"message"`
	Error   string      `json:"error,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

func RespondJSON(c *gin.Context, code int, message string, data interface{}) {
	c.JSON(code, JSONResponse{
		Status:  code >= 200 && code < 300,
		Message: message,
		Data:    data,
	})
}

func RespondError(c *gin.Context, code int, err error) {
	c.JSON(code, JSONResponse{
		Status:  false,
		Message: err.Error(),
	})
}

// RespondAppError maps a service-layer error kind onto an HTTP status
// and keeps the kind name in the payload so clients can branch on it.
func RespondAppError(c *gin.Context, err error) {
	kind := apperrors.KindOf(err)
	c.JSON(statusFor(kind), JSONResponse{
		Status:  false,
		Message: err.Error(),
		Error:   kind.String(),
	})
}

func statusFor(kind apperrors.Kind) int {
	switch kind {
	case apperrors.KindValidation:
		return http.StatusUnprocessableEntity
	case apperrors.KindNotFound:
		return http.StatusNotFound
	case apperrors.KindOrderNotEditable,
		apperrors.KindInvalidTransition,
		apperrors.KindTableNotAvailable:
		return http.StatusConflict
	case apperrors.KindTransitionFailed:
		return http.StatusInternalServerError
	}
	return http.StatusInternalServerError
}
