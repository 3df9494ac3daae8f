package modules

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	handlers "github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/interface/http"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/interface/middleware"
)

// AuthModule wires the public authentication routes. Every route carries an
// IP-based rate limit; the OTP issuers get the tightest windows.
type AuthModule struct {
	Handler *handlers.AuthHandler
	Redis   *redis.Client
}

func NewAuthModule(h *handlers.AuthHandler, rdb *redis.Client) *AuthModule {
	return &AuthModule{Handler: h, Redis: rdb}
}

func (m *AuthModule) Register(rg *gin.RouterGroup) {
	signupLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIPAndPath())
	signinLimiter := middleware.RateLimit(m.Redis, 10, time.Minute, middleware.KeyByIP())
	otpLimiter := middleware.RateLimit(m.Redis, 5, time.Minute, middleware.KeyByIPAndPath())
	refreshLimiter := middleware.RateLimit(m.Redis, 60, time.Minute, middleware.KeyByIP())
	passwordLimiter := middleware.RateLimit(m.Redis, 30, time.Minute, middleware.KeyByIPAndPath())

	auth := rg.Group("/auth")
	{
		auth.POST("/signup", signupLimiter, m.Handler.SignUp)
		auth.POST("/signin", signinLimiter, m.Handler.SignIn)
		auth.GET("/logout/:id", m.Handler.Logout)
		auth.GET("/get-otp/:email", otpLimiter, m.Handler.GetOTP)
		auth.PUT("/verify-otp", passwordLimiter, m.Handler.VerifyOTP)
		auth.PATCH("/refresh/:id", refreshLimiter, m.Handler.Refresh)
		auth.POST("/reset-password/:email", otpLimiter, m.Handler.ResetPassword)
		auth.PUT("/update-password", passwordLimiter, m.Handler.UpdatePassword)
	}
}
