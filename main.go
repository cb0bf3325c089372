package main

import (
	"log"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/town-square/api-go/config"
	"github.com/town-square/api-go/objectstore"
	"github.com/town-square/api-go/routes"
	"github.com/town-square/api-go/sms"
	"github.com/town-square/api-go/storage/postgres"
	"github.com/town-square/api-go/verification"
)

func main() {
	// Set up logging to stdout
	log.SetOutput(os.Stdout)
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, relying on environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration:", err)
	}

	privateKey, err := cfg.PrivateKey()
	if err != nil {
		log.Fatal("Failed to load signing key:", err)
	}
	publicKey, err := cfg.PublicKey()
	if err != nil {
		log.Fatal("Failed to load verification key:", err)
	}

	db := config.InitDB(cfg)
	store := postgres.New(db)

	smsClient := sms.NewClient(sms.Config{
		BaseURL: cfg.AligoBaseURL,
		APIKey:  cfg.AligoAPIKey,
		UserID:  cfg.AligoUserID,
		Sender:  cfg.AligoSender,
	})

	objects := objectstore.NewClient(objectstore.Config{
		Region:          cfg.AWSRegion,
		Bucket:          cfg.S3Bucket,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
		Endpoint:        cfg.S3Endpoint,
		PublicURL:       cfg.S3PublicURL,
	})

	r := gin.Default()

	routes.SetupRoutes(r, routes.Deps{
		Store:        store,
		Verification: verification.NewService(store, smsClient),
		Objects:      objects,
		PrivateKey:   privateKey,
		PublicKey:    publicKey,
		AccessTTL:    cfg.AccessTokenTTL,
		RefreshTTL:   cfg.RefreshTokenTTL,
	})

	log.Printf("Starting server on port %s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Server stopped:", err)
	}
}
