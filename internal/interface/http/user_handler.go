package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	authapp "github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/application"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/interface/middleware"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/response"
)

// UserHandler serves the protected profile surface.
type UserHandler struct {
	Svc    *authapp.Service
	Logger *logrus.Logger
}

func NewUserHandler(svc *authapp.Service, logger *logrus.Logger) *UserHandler {
	return &UserHandler{Svc: svc, Logger: logger}
}

// Me GET /users/me
func (h *UserHandler) Me(c *gin.Context) {
	uid := c.GetString(middleware.CtxUserIDKey)
	p, err := h.Svc.GetProfile(uid)
	if err != nil {
		writeError(c, h.Logger, err)
		return
	}
	response.Success(c, http.StatusOK, p, "profile")
}
