package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/controllers"
)

func SetupPostRoutes(protected *gin.RouterGroup, postController *controllers.PostController,
	commentController *controllers.CommentController) {
	posts := protected.Group("/post")
	{
		posts.POST("", postController.CreatePost)
		posts.GET("", postController.ListPosts)
		posts.GET("/:post_id", postController.GetPost)
		posts.PUT("/:post_id", postController.UpdatePost)
		posts.DELETE("/:post_id", postController.DeletePost)
		posts.POST("/:post_id/like", postController.LikePost)

		posts.POST("/:post_id/comment", commentController.CreateComment)
		posts.GET("/:post_id/comment", commentController.ListComments)
		posts.DELETE("/:post_id/comment/:comment_id", commentController.DeleteComment)
	}
}
