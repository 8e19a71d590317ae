package storage

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrUnsupportedFileType is returned for uploads whose extension is not a
// receipt format the analyzer understands.
var ErrUnsupportedFileType = errors.New("unsupported file type")

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
	".heic": true,
	".pdf":  true,
}

// UploadStorage persists uploaded receipt files so the analyzer can read
// them from disk.
type UploadStorage interface {
	// SaveUpload stores an upload under the user's directory and returns
	// the path it was written to.
	SaveUpload(userID, originalName string, content io.Reader) (string, error)

	// Remove deletes a stored upload.
	Remove(path string) error
}

// LocalUploadStorage implements UploadStorage on the local filesystem.
type LocalUploadStorage struct {
	baseDir string
	folders *FolderManager
	logger  *zap.Logger
}

// NewLocalUploadStorage creates an upload store rooted at baseDir.
func NewLocalUploadStorage(baseDir string, logger *zap.Logger) *LocalUploadStorage {
	return &LocalUploadStorage{
		baseDir: baseDir,
		folders: NewFolderManager(baseDir, logger),
		logger:  logger,
	}
}

// SaveUpload writes the upload to <baseDir>/<userID>/<uuid><ext>. The
// original name only contributes its extension, so hostile filenames cannot
// steer the write location.
func (s *LocalUploadStorage) SaveUpload(userID, originalName string, content io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if !allowedExtensions[ext] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFileType, ext)
	}

	userDir, err := s.folders.CreateUserFolder(userID)
	if err != nil {
		return "", err
	}

	fullPath := filepath.Join(userDir, uuid.NewString()+ext)
	if err := s.validatePath(fullPath); err != nil {
		return "", err
	}

	f, err := os.Create(fullPath)
	if err != nil {
		return "", fmt.Errorf("failed to create upload file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, content)
	if err != nil {
		os.Remove(fullPath)
		return "", fmt.Errorf("failed to write upload: %w", err)
	}

	s.logger.Debug("Upload saved",
		zap.String("path", fullPath),
		zap.Int64("size", size))

	return fullPath, nil
}

// Remove deletes a stored upload after validating it lives under baseDir.
func (s *LocalUploadStorage) Remove(path string) error {
	if err := s.validatePath(path); err != nil {
		return err
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("failed to remove upload: %w", err)
	}
	return nil
}

// validatePath checks that the path resolves inside baseDir.
func (s *LocalUploadStorage) validatePath(fullPath string) error {
	absPath, err := filepath.Abs(fullPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	absBase, err := filepath.Abs(s.baseDir)
	if err != nil {
		return fmt.Errorf("failed to resolve base path: %w", err)
	}

	if !strings.HasPrefix(absPath, absBase+string(filepath.Separator)) && absPath != absBase {
		return fmt.Errorf("path escapes base directory: %s", fullPath)
	}

	return nil
}

