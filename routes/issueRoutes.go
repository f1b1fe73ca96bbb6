package routes

import (
	"civicsync-issues/controllers"

	"github.com/gin-gonic/gin"
)

// IssueRoutes sets up the issue routes. Reads are public; writes go through
// requireAuth, and creation additionally through limitCreate.
func IssueRoutes(r *gin.Engine, ic *controllers.IssueController, requireAuth, limitCreate gin.HandlerFunc) {
	issues := r.Group("/api/issues")
	{
		issues.GET("", ic.GetAllIssues)
		issues.GET("/map", ic.GetMapIssues)
		issues.GET("/:id", ic.GetIssue)

		issues.POST("", requireAuth, limitCreate, ic.CreateIssue)
		issues.POST("/create", requireAuth, limitCreate, ic.CreateIssue)
		issues.PUT("/:id", requireAuth, ic.UpdateIssue)
		issues.DELETE("/:id", requireAuth, ic.DeleteIssue)
	}
}
