package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// JWTAuth requires an HMAC signed bearer token. When requiredRole is set the
// token's "roles" claim (string or list) must contain it.
func JWTAuth(secret, requiredRole string) gin.HandlerFunc {
	key := []byte(secret)
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if !strings.HasPrefix(authHeader, "Bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "No bearer token"})
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenStr, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return key, nil
		})
		if err != nil || !token.Valid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid claims"})
			return
		}

		if requiredRole != "" && !hasRole(claims["roles"], requiredRole) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": requiredRole + " access only"})
			return
		}

		c.Set("user_id", claims["sub"])
		c.Next()
	}
}

func hasRole(raw interface{}, want string) bool {
	switch roles := raw.(type) {
	case []interface{}:
		for _, r := range roles {
			if s, ok := r.(string); ok && s == want {
				return true
			}
		}
	case []string:
		for _, s := range roles {
			if s == want {
				return true
			}
		}
	case string:
		return roles == want
	}
	return false
}
