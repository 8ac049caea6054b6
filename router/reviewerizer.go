package router

import (
	"net/http"

	"wemind/controllers"
	"wemind/models"

	"github.com/gin-gonic/gin"
)

// Reviewerizer blocks access when user is not a reviewer.
func Reviewerizer() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := controllers.GetUserLogged(c)
		if !ok {
			controllers.RespondError(c, "unauthorized", http.StatusUnauthorized)
			c.Abort()
			return
		}
		if user.Role != models.USER_ROLE_REVIEWER {
			controllers.RespondError(c, "reviewer required", http.StatusForbidden)
			c.Abort()
			return
		}
		c.Next()
	}
}
