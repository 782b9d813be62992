package middleware

import (
	"net/http"
	"strings"

	"taskmate/backend/internal/models"
	"taskmate/backend/internal/services"

	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid"
	"gorm.io/gorm"
)

// UserIDKey is where the resolved caller identity lives on the gin context.
// Handlers read it once and pass the owner id explicitly into service calls.
const UserIDKey = "user_id"

// AuthMiddleware resolves the caller from a bearer token before any task
// route runs: the token must be present, cryptographically valid, unexpired,
// and reference a user that still exists. Every failure mode collapses to
// the same 401 body so callers cannot tell a bad token from a deleted user.
func AuthMiddleware(db *gorm.DB, tokens services.TokenService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			abortUnauthorized(c)
			return
		}

		userID, err := tokens.Verify(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			abortUnauthorized(c)
			return
		}

		var user models.User
		if err := db.Select("id").Where("id = ?", userID).First(&user).Error; err != nil {
			abortUnauthorized(c)
			return
		}

		c.Set(UserIDKey, userID.String())
		c.Next()
	}
}

// CallerID extracts the identity the gate attached to the request.
func CallerID(c *gin.Context) (uuid.UUID, bool) {
	idStr, ok := c.Get(UserIDKey)
	if !ok {
		return uuid.Nil, false
	}
	s, ok := idStr.(string)
	if !ok {
		return uuid.Nil, false
	}
	id, err := uuid.FromString(s)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func abortUnauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"message": "unauthorized",
	})
}
