package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/apperr"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/response"
)

// writeError translates a service error to HTTP exactly once. Typed errors
// carry their own status and message; anything else is logged and answered
// with an opaque 500 so store or broker failures never leak, and never
// masquerade as a domain answer like "user not found".
func writeError(c *gin.Context, logger *logrus.Logger, err error) {
	var ae *apperr.Error
	if errors.As(err, &ae) {
		response.Error[any](c, ae.Status, ae.Message, nil)
		return
	}
	if logger != nil {
		logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	response.Error[any](c, http.StatusInternalServerError, "internal error", nil)
}
