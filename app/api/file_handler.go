package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/gofiber/fiber/v2"

	"ragchat/types"
)

type Ingester interface {
	AddDocument(ctx context.Context, path string) (*types.Document, error)
}

type UploadHandler struct {
	ingester Ingester
	tempDir  string
	logger   *slog.Logger
}

func NewUploadHandler(ingester Ingester, tempDir string, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		ingester: ingester,
		tempDir:  tempDir,
		logger:   logger,
	}
}

// HandleUpload stores the multipart field "file" in a private temporary
// directory under its own name, ingests it and removes the directory
// whatever the outcome.
func (h *UploadHandler) HandleUpload(c *fiber.Ctx) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return NewValidationError(map[string]string{"file": "failed on 'required' tag"})
	}

	name := filepath.Base(fileHeader.Filename)
	if name == "." || name == string(filepath.Separator) {
		return NewValidationError(map[string]string{"file": "missing file name"})
	}

	if err := os.MkdirAll(h.tempDir, 0o755); err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	dir, err := os.MkdirTemp(h.tempDir, "upload-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			h.logger.Warn("failed to remove upload temp dir", "dir", dir, "error", err)
		}
	}()

	path := filepath.Join(dir, name)
	if err := c.SaveFile(fileHeader, path); err != nil {
		return fmt.Errorf("save upload: %w", err)
	}
	h.logger.Info("file uploaded", "file", name, "size", fileHeader.Size)

	if _, err := h.ingester.AddDocument(c.UserContext(), path); err != nil {
		return err
	}

	return c.JSON(types.UploadResponse{Status: "success", Filename: name})
}
