package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"two_point_controller/internal/service"
)

const (
	ctxOperatorID = "operatorId"

	errMissingAuth   = "missing Authorization header"
	errAuthFormat    = "invalid Authorization header format"
	errInvalidToken  = "invalid or expired token"
	bearerAuthScheme = "Bearer"
)

// operatorMiddleware authenticates the caller and attaches its user ID to the
// gin context and to the request context, where attribute writes pick it up
// for the control history.
func (h *Handler) operatorMiddleware(c *gin.Context) {
	token, errMsg := bearerToken(c.GetHeader("Authorization"))
	if errMsg != "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errMsg})
		return
	}

	userID, err := h.services.ParseToken(token)
	if err != nil {
		if h.log != nil {
			h.log.Debugw("auth_token_rejected", "path", c.FullPath(), "err", err)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": errInvalidToken})
		return
	}

	c.Set(ctxOperatorID, userID)
	c.Request = c.Request.WithContext(service.WithOperator(c.Request.Context(), userID))
	c.Next()
}

// writableMiddleware guards attribute writes. A controller whose target is
// fixed by configuration refuses them before the body is read.
func (h *Handler) writableMiddleware(c *gin.Context) {
	if h.services.Controller.Writable() {
		c.Next()
		return
	}
	if h.log != nil {
		h.log.Infow("controller_write_refused", "path", c.FullPath(), "user_id", c.GetInt(ctxOperatorID))
	}
	c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": errReadOnly})
}

// bearerToken extracts the token from an Authorization header. The second
// result is the client-facing error, empty on success.
func bearerToken(header string) (string, string) {
	if header == "" {
		return "", errMissingAuth
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != bearerAuthScheme || strings.TrimSpace(token) == "" {
		return "", errAuthFormat
	}
	return strings.TrimSpace(token), ""
}
