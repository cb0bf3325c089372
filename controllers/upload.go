package controllers

import (
	"mime/multipart"

	"github.com/gin-gonic/gin"

	"github.com/town-square/api-go/apperr"
	"github.com/town-square/api-go/objectstore"
)

func uploadFormFile(c *gin.Context, objects *objectstore.Client, file *multipart.FileHeader, key string) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", apperr.ErrInvalidRequest
	}
	defer src.Close()

	contentType := file.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	return objects.PushFile(c.Request.Context(), src, key, contentType)
}
