package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/controllers"
)

func SetupBlockRoutes(protected *gin.RouterGroup, blockController *controllers.BlockController) {
	blocks := protected.Group("/block")
	{
		blocks.POST("/user/:user_id", blockController.BlockUser)
		blocks.POST("/post/:post_id", blockController.BlockPost)
		blocks.POST("/comment/:comment_id", blockController.BlockComment)
	}
}
