// internal/middleware/helpers.go
package middleware

import "github.com/gin-gonic/gin"

// MustGetUserID gets the authenticated user ID from context or panics.
func MustGetUserID(c *gin.Context) int64 {
	v, exists := c.Get("user_id")
	if !exists {
		panic("user_id not found in context")
	}
	id, ok := v.(int64)
	if !ok {
		panic("user_id has unexpected type")
	}
	return id
}

// GetRole gets the caller's role from context.
func GetRole(c *gin.Context) string {
	v, exists := c.Get("role")
	if !exists {
		return ""
	}
	role, ok := v.(string)
	if !ok {
		return ""
	}
	return role
}

// IsAdmin checks if the caller is an admin.
func IsAdmin(c *gin.Context) bool {
	return GetRole(c) == "ADMIN"
}
