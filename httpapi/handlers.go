package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/jmcadam/authflow"
)

// Handler carries the service and the dependencies the health endpoint
// reports on.
type Handler struct {
	service *authflow.Service

	// ping checks storage reachability for the health endpoint. Optional.
	ping func(context.Context) error
	// emailConfigured is surfaced by the health endpoint so operators can
	// tell a silent mail outage from a deliberately unconfigured notifier.
	emailConfigured bool
}

func NewHandler(service *authflow.Service, ping func(context.Context) error, emailConfigured bool) *Handler {
	return &Handler{
		service:         service,
		ping:            ping,
		emailConfigured: emailConfigured,
	}
}

func (h *Handler) Register(c *gin.Context) {
	var req struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Email     string `json:"email"`
		Password  string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	user, err := h.service.Register(c.Request.Context(), authflow.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		respondError(c, err, "", "Server error during registration")
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful! Please check your email to verify your account.",
		"user":    user,
	})
}

func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	result, err := h.service.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err, "", "Server error during login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Login successful",
		"token":   result.Token,
		"user":    result.Account,
	})
}

func (h *Handler) VerifyEmail(c *gin.Context) {
	user, err := h.service.VerifyEmail(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondError(c, err, "Invalid or expired verification token", "Server error during email verification")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"message":         "Email verified successfully! You can now login.",
		"isFullyVerified": user.IsVerified,
	})
}

func (h *Handler) ResendVerification(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.service.ResendVerification(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "", "Server error while sending verification email")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Verification email sent successfully",
	})
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.service.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondError(c, err, "", "Server error while sending password reset email")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password reset instructions sent to your email",
	})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req struct {
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := h.service.ResetPassword(c.Request.Context(), c.Param("token"), req.Password); err != nil {
		respondError(c, err, "Invalid or expired reset token", "Server error while resetting password")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Password reset successfully",
	})
}

// Dashboard returns the authenticated account's profile. RequireAuth must run
// first.
func (h *Handler) Dashboard(c *gin.Context) {
	accountID, ok := AccountID(c)
	if !ok {
		fail(c, http.StatusUnauthorized, msgUnauthorized)
		return
	}

	user, err := h.service.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		respondError(c, err, "", msgGenericFailure)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user":    user,
	})
}

func (h *Handler) Health(c *gin.Context) {
	database := "connected"
	healthy := true
	if h.ping != nil {
		if err := h.ping(c.Request.Context()); err != nil {
			database = "disconnected"
			healthy = false
		}
	}

	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, gin.H{
		"success":         healthy,
		"status":          "API is running",
		"timestamp":       time.Now().UTC().Format(time.RFC3339),
		"database":        database,
		"emailConfigured": h.emailConfigured,
	})
}

func (h *Handler) NotFound(c *gin.Context) {
	fail(c, http.StatusNotFound, "API route not found")
}
