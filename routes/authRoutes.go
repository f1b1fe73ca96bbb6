package routes

import (
	"civicsync-issues/controllers"

	"github.com/gin-gonic/gin"
)

// AuthRoutes sets up the authentication routes
func AuthRoutes(r *gin.Engine, ac *controllers.AuthController) {
	user := r.Group("/api/user")
	{
		user.POST("/signup", ac.Signup)
		user.POST("/login", ac.Login)
		user.POST("/Login", ac.Login)
		user.POST("/google-signup", ac.GoogleSignup)
		user.POST("/logout", ac.Logout)
		user.GET("/verify", ac.Verify)
	}
}
