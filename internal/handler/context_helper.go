package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/middleware"
	"github.com/YousefElmenshawy/University-Course-Registration-Website/internal/models"
)

// currentUser extracts the authenticated claims placed by the JWT middleware.
func currentUser(c *gin.Context) (*models.JWTClaims, bool) {
	claimsValue, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return nil, false
	}
	claims, ok := claimsValue.(*models.JWTClaims)
	return claims, ok
}
