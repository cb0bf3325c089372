// Package config loads application configuration from environment variables
// and an optional .env file, and owns the database bootstrap.
package config

import (
	"crypto/rsa"
	"fmt"
	"os"
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/spf13/viper"
)

type Config struct {
	Port string `mapstructure:"PORT"`

	DBHost     string `mapstructure:"DB_HOST"`
	DBPort     string `mapstructure:"DB_PORT"`
	DBUser     string `mapstructure:"DB_USER"`
	DBPassword string `mapstructure:"DB_PASSWORD"`
	DBName     string `mapstructure:"DB_NAME"`
	DBSSLMode  string `mapstructure:"DB_SSLMODE"`

	JWTPrivateKeyFile string        `mapstructure:"JWT_PRIVATE_KEY_FILE"`
	JWTPublicKeyFile  string        `mapstructure:"JWT_PUBLIC_KEY_FILE"`
	AccessTokenTTL    time.Duration `mapstructure:"ACCESS_TOKEN_TTL"`
	RefreshTokenTTL   time.Duration `mapstructure:"REFRESH_TOKEN_TTL"`

	AWSRegion          string `mapstructure:"AWS_REGION"`
	AWSAccessKeyID     string `mapstructure:"AWS_ACCESS_KEY_ID"`
	AWSSecretAccessKey string `mapstructure:"AWS_SECRET_ACCESS_KEY"`
	S3Bucket           string `mapstructure:"S3_BUCKET"`
	S3Endpoint         string `mapstructure:"S3_ENDPOINT"`
	S3PublicURL        string `mapstructure:"S3_PUBLIC_URL"`

	AligoBaseURL string `mapstructure:"ALIGO_BASE_URL"`
	AligoAPIKey  string `mapstructure:"ALIGO_API_KEY"`
	AligoUserID  string `mapstructure:"ALIGO_USER_ID"`
	AligoSender  string `mapstructure:"ALIGO_SENDER"`
}

func Load() (*Config, error) {
	viper.AutomaticEnv()

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DB_HOST", "localhost")
	viper.SetDefault("DB_PORT", "5432")
	viper.SetDefault("DB_USER", "postgres")
	viper.SetDefault("DB_PASSWORD", "postgres")
	viper.SetDefault("DB_NAME", "town_square")
	viper.SetDefault("DB_SSLMODE", "disable")
	viper.SetDefault("JWT_PRIVATE_KEY_FILE", "keys/jwt_rsa")
	viper.SetDefault("JWT_PUBLIC_KEY_FILE", "keys/jwt_rsa.pub")
	viper.SetDefault("ACCESS_TOKEN_TTL", "2h")
	viper.SetDefault("REFRESH_TOKEN_TTL", "720h")
	viper.SetDefault("AWS_REGION", "ap-northeast-2")
	viper.SetDefault("ALIGO_BASE_URL", "https://kakaoapi.aligo.in")

	// viper.AutomaticEnv alone does not surface env vars through Unmarshal,
	// so bind each key explicitly.
	keys := []string{
		"PORT",
		"DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE",
		"JWT_PRIVATE_KEY_FILE", "JWT_PUBLIC_KEY_FILE", "ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL",
		"AWS_REGION", "AWS_ACCESS_KEY_ID", "AWS_SECRET_ACCESS_KEY",
		"S3_BUCKET", "S3_ENDPOINT", "S3_PUBLIC_URL",
		"ALIGO_BASE_URL", "ALIGO_API_KEY", "ALIGO_USER_ID", "ALIGO_SENDER",
	}
	for _, key := range keys {
		if err := viper.BindEnv(key); err != nil {
			return nil, fmt.Errorf("config: bind %s: %w", key, err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) PrivateKey() (*rsa.PrivateKey, error) {
	pem, err := os.ReadFile(c.JWTPrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("config: read private key: %w", err)
	}

	key, err := jwt.ParseRSAPrivateKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("config: parse private key: %w", err)
	}
	return key, nil
}

func (c *Config) PublicKey() (*rsa.PublicKey, error) {
	pem, err := os.ReadFile(c.JWTPublicKeyFile)
	if err != nil {
		return nil, fmt.Errorf("config: read public key: %w", err)
	}

	key, err := jwt.ParseRSAPublicKeyFromPEM(pem)
	if err != nil {
		return nil, fmt.Errorf("config: parse public key: %w", err)
	}
	return key, nil
}
