package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	authapp "github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/internal/application"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/response"
	"github.com/Anas-Rajpoot/Bx-Buy-Sell-marketplace-sub003/pkg/validation"
)

// AuthHandler exposes the authentication routes. It binds and validates
// payloads, delegates to the service, and translates typed errors to HTTP
// exactly once in respondErr.
type AuthHandler struct {
	Svc    *authapp.Service
	Logger *logrus.Logger
}

func NewAuthHandler(svc *authapp.Service, logger *logrus.Logger) *AuthHandler {
	return &AuthHandler{Svc: svc, Logger: logger}
}

type signUpRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required,pwd"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
	FirstName       string `json:"first_name" binding:"required"`
	LastName        string `json:"last_name" binding:"required"`
}

type signInRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type verifyOTPRequest struct {
	Email   string `json:"email" binding:"required,email"`
	OTPCode string `json:"otp_code" binding:"required,otp"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type updatePasswordRequest struct {
	Email           string `json:"email" binding:"required,email"`
	OTPCode         string `json:"otp_code" binding:"required,otp"`
	NewPassword     string `json:"new_password" binding:"required,pwd"`
	ConfirmPassword string `json:"confirm_password" binding:"required"`
}

func (h *AuthHandler) respondErr(c *gin.Context, err error) {
	writeError(c, h.Logger, err)
}

// SignUp POST /auth/signup
func (h *AuthHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.SignUp(c.Request.Context(), authapp.SignUpInput{
		Email:           req.Email,
		Password:        req.Password,
		ConfirmPassword: req.ConfirmPassword,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "account created")
}

// SignIn POST /auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req signInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "signed in")
}

// Logout GET /auth/logout/:id
func (h *AuthHandler) Logout(c *gin.Context) {
	ok, err := h.Svc.Logout(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, ok, "logged out")
}

// GetOTP GET /auth/get-otp/:email
func (h *AuthHandler) GetOTP(c *gin.Context) {
	res, err := h.Svc.GetOTP(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, res.Message)
}

// VerifyOTP PUT /auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.VerifyOTP(c.Request.Context(), req.Email, req.OTPCode)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, res.Message)
}

// Refresh PATCH /auth/refresh/:id
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.RotateRefreshToken(c.Request.Context(), c.Param("id"), req.RefreshToken)
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, "token refreshed")
}

// ResetPassword POST /auth/reset-password/:email
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	res, err := h.Svc.ResetPassword(c.Request.Context(), c.Param("email"))
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, res.Message)
}

// UpdatePassword PUT /auth/update-password
func (h *AuthHandler) UpdatePassword(c *gin.Context) {
	var req updatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	res, err := h.Svc.UpdatePassword(c.Request.Context(), authapp.UpdatePasswordInput{
		Email:           req.Email,
		OTPCode:         req.OTPCode,
		NewPassword:     req.NewPassword,
		ConfirmPassword: req.ConfirmPassword,
	})
	if err != nil {
		h.respondErr(c, err)
		return
	}
	response.Success(c, http.StatusOK, res, res.Message)
}
