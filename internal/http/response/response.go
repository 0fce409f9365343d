package response

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/skillhub-backend/internal/platform/apierr"
	"github.com/yungbote/skillhub-backend/internal/platform/ctxutil"
)

type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
	// RequestID lets a caller quote the failing request in a bug report.
	RequestID string `json:"requestId,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// RespondFrom writes err as an error envelope. The status and the public
// message come from apierr, so internal causes never reach the body; the full
// error is attached to the gin context for the request logger.
func RespondFrom(c *gin.Context, err error) {
	ae := apierr.From(err)
	if ae == nil {
		ae = apierr.New(http.StatusInternalServerError, "internal", nil)
	} else {
		_ = c.Error(err)
	}

	body := APIError{Message: ae.Error(), Code: ae.Code}
	if td := ctxutil.GetTraceData(c.Request.Context()); td != nil {
		body.RequestID = td.RequestID
	}
	c.AbortWithStatusJSON(ae.Status, ErrorEnvelope{Error: body})
}

// RespondOK writes a JSON payload that must not be cached by intermediaries.
func RespondOK(c *gin.Context, payload any) {
	c.Header("Cache-Control", "no-store")
	c.JSON(http.StatusOK, payload)
}
