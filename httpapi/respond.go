package httpapi

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jmcadam/authflow"
)

const (
	msgValidationFailed = "Validation failed"
	msgEmailExists      = "User with this email address already exists"
	msgInvalidCreds     = "Invalid credentials"
	msgAccountLocked    = "Account is temporarily locked due to too many failed login attempts. Please try again later."
	msgNeedsVerify      = "Please verify your email address before logging in"
	msgAccountNotFound  = "User with this email address not found"
	msgAlreadyVerified  = "Email is already verified"
	msgInvalidBody      = "Invalid request body"
	msgGenericFailure   = "Something went wrong!"
)

// respondError translates a service error into a status and JSON body.
// tokenMsg is the route's wording for an unusable token; serverMsg is the
// route's wording for an unexpected failure.
func respondError(c *gin.Context, err error, tokenMsg, serverMsg string) {
	var verr *authflow.ValidationError
	if errors.As(err, &verr) {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": msgValidationFailed,
			"errors":  verr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, authflow.ErrEmailExists):
		fail(c, http.StatusBadRequest, msgEmailExists)
	case errors.Is(err, authflow.ErrAccountLocked):
		fail(c, http.StatusLocked, msgAccountLocked)
	case errors.Is(err, authflow.ErrAccountUnverified):
		c.JSON(http.StatusBadRequest, gin.H{
			"success":           false,
			"message":           msgNeedsVerify,
			"needsVerification": true,
		})
	case errors.Is(err, authflow.ErrInvalidCredentials):
		fail(c, http.StatusBadRequest, msgInvalidCreds)
	case errors.Is(err, authflow.ErrAccountNotFound):
		fail(c, http.StatusNotFound, msgAccountNotFound)
	case errors.Is(err, authflow.ErrAlreadyVerified):
		fail(c, http.StatusBadRequest, msgAlreadyVerified)
	case errors.Is(err, authflow.ErrTokenInvalid):
		fail(c, http.StatusBadRequest, tokenMsg)
	default:
		fail(c, http.StatusInternalServerError, serverMsg)
	}
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"message": message,
	})
}
