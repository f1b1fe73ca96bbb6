package controllers

import (
	"errors"
	"net/http"

	"civicsync-issues/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// respondError maps the error taxonomy onto status codes. Storage and
// provider details are logged and never sent to the client.
func respondError(c *gin.Context, log *zap.Logger, err error) {
	var (
		verr *models.ValidationError
		serr *models.StorageError
		xerr *models.ExternalServiceError
	)

	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": verr.Error(), "fields": verr.Fields})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"success": false, "message": "Issue not found"})
	case errors.Is(err, models.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"success": false, "message": "Not authorized, please log in"})
	case errors.As(err, &xerr):
		log.Warn("external service failure", zap.String("service", xerr.Service), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "message": "Upstream service unavailable"})
	case errors.As(err, &serr):
		log.Error("storage failure", zap.String("op", serr.Op), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong"})
	default:
		log.Error("unexpected error", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"success": false, "message": "Something went wrong"})
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, gin.H{"success": false, "message": message})
}
