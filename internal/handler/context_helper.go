package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/ssp-workflow-api/internal/middleware"
	"github.com/noah-isme/ssp-workflow-api/internal/models"
)

// currentActor extracts the authenticated actor from the gin context. The
// JWT middleware guarantees the claims are present on protected routes.
func currentActor(c *gin.Context) models.Actor {
	value, exists := c.Get(middleware.ContextUserKey)
	if !exists {
		return models.Actor{}
	}
	claims, ok := value.(*models.JWTClaims)
	if !ok {
		return models.Actor{}
	}
	return models.ActorFromClaims(claims)
}
