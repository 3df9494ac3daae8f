package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/interface/http"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/interface/middleware"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/helpers"
)

// UserModule wires the protected profile routes behind the JWT middleware.
type UserModule struct {
	Handler *handlers.UserHandler
	JWT     *helpers.JWTManager
	Redis   *redis.Client
}

func NewUserModule(h *handlers.UserHandler, jwt *helpers.JWTManager, rdb *redis.Client) *UserModule {
	return &UserModule{Handler: h, JWT: jwt, Redis: rdb}
}

func (m *UserModule) Register(rg *gin.RouterGroup) {
	users := rg.Group("/users")
	users.Use(middleware.Auth(m.JWT))
	users.Use(middleware.RateLimit(m.Redis, 120, time.Minute, middleware.KeyByUserID()))
	{
		users.GET("/me", m.Handler.Me)
	}
}
