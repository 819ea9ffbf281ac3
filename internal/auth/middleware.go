package auth

import (
	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"

// ResolveIdentity attaches the caller Identity to the request context.
// It never aborts; authorization decisions belong to internal/permission.
func ResolveIdentity(r *Resolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := r.Resolve(c.GetHeader(authorizationHeader))

		ctx := WithIdentity(c.Request.Context(), id)
		c.Request = c.Request.WithContext(ctx)

		if uid, ok := id.ID(); ok {
			c.Set("user_id", uid)
		}
		c.Next()
	}
}

// IdentityFromGin is a convenience for handlers.
func IdentityFromGin(c *gin.Context) Identity {
	return FromContext(c.Request.Context())
}
