package handlers

import (
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"

	"taskboard/internal/middleware"
	"taskboard/internal/repository"
	"taskboard/pkg/logger"
	"taskboard/pkg/storage"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

const maxPictureSize = 5 << 20

var pictureTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".webp": "image/webp",
}

// Fungsi untuk validasi file gambar profil
func validatePicture(file *multipart.FileHeader) (string, error) {
	if file.Size > maxPictureSize {
		return "", fiber.NewError(fiber.StatusBadRequest, "File size exceeds the limit of 5MB")
	}
	contentType, ok := pictureTypes[strings.ToLower(filepath.Ext(file.Filename))]
	if !ok {
		return "", fiber.NewError(fiber.StatusBadRequest, "File type not allowed")
	}
	if !strings.HasPrefix(file.Header.Get("Content-Type"), "image/") {
		return "", fiber.NewError(fiber.StatusBadRequest, "File must be an image")
	}
	return contentType, nil
}

// UploadProfilePicture menerima multipart field "file" dan menyimpannya
// sebagai foto profil user.
func (h *Handler) UploadProfilePicture(c *fiber.Ctx) error {
	userID := middleware.UserID(c)

	file, err := c.FormFile("file")
	if err != nil {
		return fail(c, fiber.StatusBadRequest, "File is required")
	}
	contentType, err := validatePicture(file)
	if err != nil {
		var fe *fiber.Error
		errors.As(err, &fe)
		return fail(c, fe.Code, fe.Message)
	}

	src, err := file.Open()
	if err != nil {
		logger.ErrorLogger.Error("Error opening uploaded file", zap.Error(err))
		return failInternal(c, "Error reading file", err)
	}
	defer src.Close()
	data, err := io.ReadAll(src)
	if err != nil {
		logger.ErrorLogger.Error("Error reading uploaded file", zap.Error(err))
		return failInternal(c, "Error reading file", err)
	}

	payload := "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
	user, err := h.profiles.SetPicture(c.UserContext(), userID, payload)
	switch {
	case errors.Is(err, storage.ErrInvalidImage):
		return fail(c, fiber.StatusBadRequest, "Invalid image")
	case errors.Is(err, repository.ErrNotFound):
		return fail(c, fiber.StatusNotFound, "User not found")
	case err != nil:
		logger.ErrorLogger.Error("Error uploading profile picture", zap.String("user_id", userID), zap.Error(err))
		return failInternal(c, "Error uploading profile picture", err)
	}

	logger.AuditLogger.Info("Profile picture uploaded", zap.String("user_id", userID))
	return respond(c, fiber.StatusOK, "Profile picture uploaded successfully", user)
}
