package response

import (
	"errors"
	"net/http"

	"checkout-payments/pkg/apperror"

	"github.com/gin-gonic/gin"
)

// ErrorBody is the wire shape for failed requests. Details and Code carry
// processor-reported diagnostics and are omitted for purely local errors.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
	Code    string `json:"code,omitempty"`
}

// OK sends a 200 response with the given body.
func OK(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error sends an error response. It checks if err is an *apperror.AppError
// and maps it accordingly, otherwise returns 500.
func Error(c *gin.Context, err error) {
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		c.JSON(appErr.HTTPStatus, ErrorBody{
			Error:   appErr.Message,
			Details: appErr.Details,
			Code:    appErr.RemoteCode,
		})
		return
	}

	// Unknown error -> 500
	c.JSON(http.StatusInternalServerError, ErrorBody{
		Error: "Internal server error",
	})
}
