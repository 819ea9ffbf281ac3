package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"weeklychef/internal/account"
	"weeklychef/internal/auth"
	"weeklychef/internal/store"

	"github.com/gin-gonic/gin"
)

// statusFor maps service errors onto a status code and a client message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, account.ErrInvalidInput):
		return http.StatusBadRequest, clientMessage(err, account.ErrInvalidInput)
	case errors.Is(err, account.ErrInvalidCredentials):
		return http.StatusForbidden, "wrong user data given"
	case errors.Is(err, account.ErrTooManyAttempts):
		return http.StatusTooManyRequests, "too many failed login attempts, try again later"

	case errors.Is(err, auth.ErrNotARefreshToken):
		return http.StatusBadRequest, "a refresh token is required"
	case errors.Is(err, auth.ErrUnknownSubject):
		return http.StatusBadRequest, "user no longer exists"
	case errors.Is(err, auth.ErrMalformedToken):
		return http.StatusBadRequest, "malformed token"
	case errors.Is(err, auth.ErrInvalidSignature):
		return http.StatusUnauthorized, "invalid token"
	case errors.Is(err, auth.ErrExpired):
		return http.StatusUnauthorized, "token expired"

	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, store.ErrConflict):
		return http.StatusConflict, "conflicts with an existing row"
	case errors.Is(err, store.ErrInvalidReference):
		return http.StatusBadRequest, "references a row that does not exist"
	case errors.Is(err, store.ErrInvalidValue):
		return http.StatusBadRequest, "invalid field value"

	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// clientMessage drops the package prefix of a wrapped sentinel.
func clientMessage(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error())
	msg = strings.TrimPrefix(msg, ": ")
	if msg == "" {
		return strings.TrimPrefix(sentinel.Error(), "account: ")
	}
	return msg
}

func abortWithError(c *gin.Context, err error) {
	status, msg := statusFor(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": msg})
}
