package web

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const (
	toastSuccess = "success"
	toastError   = "error"

	toastDuration = 5000
)

type toast struct {
	Message  string `json:"message"`
	Type     string `json:"type"`
	Duration int    `json:"duration"`
}

func isHTMX(c *gin.Context) bool {
	return c.GetHeader("HX-Request") != ""
}

// setToast asks the client to show a toast. A later call replaces an earlier one.
func setToast(c *gin.Context, message, kind string) {
	payload, err := json.Marshal(map[string]toast{
		"showToast": {Message: message, Type: kind, Duration: toastDuration},
	})
	if err != nil {
		zap.L().Error("Unable to encode toast", zap.Error(err))
		return
	}
	c.Header("HX-Trigger", string(payload))
}

func setRedirect(c *gin.Context, location string) {
	c.Header("HX-Redirect", location)
}

// toastText sets an error toast and answers with the same message as text.
func toastText(c *gin.Context, status int, message string) {
	setToast(c, message, toastError)
	c.String(status, message)
}
