package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/hotel-reservation-prediction/internal/platform/apierr"
)

type APIError struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

func RespondError(c *gin.Context, err error) {
	ae := apierr.From(err)
	msg := http.StatusText(ae.Status)
	if ae.Err != nil && ae.Status < 500 {
		msg = ae.Err.Error()
	}
	c.JSON(ae.Status, ErrorEnvelope{
		Error: APIError{
			Message:   msg,
			Code:      ae.Code,
			RequestID: c.GetString("request_id"),
		},
	})
}

func RespondOK(c *gin.Context, payload any) {
	c.JSON(http.StatusOK, payload)
}
