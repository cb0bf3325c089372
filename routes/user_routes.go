package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/controllers"
)

func SetupUserRoutes(protected *gin.RouterGroup, userController *controllers.UserController) {
	users := protected.Group("/user")
	{
		users.GET("", userController.GetMe)
		users.PATCH("/bio", userController.UpdateBio)
		users.PATCH("/picture", userController.UpdatePicture)
	}
}
