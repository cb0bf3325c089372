package routes

import (
	"crypto/rsa"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/controllers"
	"github.com/town-square/api-go/middleware"
	"github.com/town-square/api-go/objectstore"
	"github.com/town-square/api-go/storage"
	"github.com/town-square/api-go/verification"
)

// Deps carries everything the handlers need wired in.
type Deps struct {
	Store        storage.Storage
	Verification *verification.Service
	Objects      *objectstore.Client
	PrivateKey   *rsa.PrivateKey
	PublicKey    *rsa.PublicKey
	AccessTTL    time.Duration
	RefreshTTL   time.Duration
}

func SetupRoutes(r *gin.Engine, deps Deps) {
	authController := controllers.NewAuthController(deps.Store, deps.Verification, deps.Objects,
		deps.PrivateKey, deps.PublicKey, deps.AccessTTL, deps.RefreshTTL)
	userController := controllers.NewUserController(deps.Store, deps.Objects)
	postController := controllers.NewPostController(deps.Store, deps.Objects)
	commentController := controllers.NewCommentController(deps.Store)
	blockController := controllers.NewBlockController(deps.Store)

	// Public routes: registration and the phone verification round-trips.
	public := r.Group("/api")
	{
		public.POST("/user", authController.Register)
		public.POST("/user/authentication/phone", authController.SendPhoneCode)
		public.PUT("/user/authentication/phone", authController.VerifyPhone)
		public.PATCH("/user/authentication", authController.RefreshToken)
	}

	protected := r.Group("/api")
	protected.Use(middleware.AuthMiddleware(deps.PublicKey, deps.Store))
	{
		SetupUserRoutes(protected, userController)
		SetupPostRoutes(protected, postController, commentController)
		SetupBlockRoutes(protected, blockController)
	}
}
