package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/examprep-backend/internal/platform/apierr"
)

// ErrorCodeKey is the gin context key the failure code is stored under for
// the access log.
const ErrorCodeKey = "error_code"

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	Kind    string `json:"kind,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondError renders err with the status its kind maps to. Internal
// failures never leak their message.
func RespondError(c *gin.Context, err error) {
	status := apierr.HTTPStatus(err)
	if status < http.StatusBadRequest {
		status = http.StatusInternalServerError
	}
	msg := "internal error"
	if status < http.StatusInternalServerError || apierr.KindOf(err) == apierr.KindDependencyUnavailable {
		msg = err.Error()
	}
	c.Set(ErrorCodeKey, apierr.CodeOf(err))
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{
			Message: msg,
			Code:    apierr.CodeOf(err),
			Kind:    string(apierr.KindOf(err)),
		},
	})
}

// RespondStatus is for transport-level failures that never reached a service.
func RespondStatus(c *gin.Context, status int, code, message string) {
	c.Set(ErrorCodeKey, code)
	c.AbortWithStatusJSON(status, ErrorEnvelope{
		Error: APIError{Message: message, Code: code},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}

func RespondCreated(c *gin.Context, payload any) {
	c.JSON(http.StatusCreated, payload)
}
