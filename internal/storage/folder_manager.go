package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"
)

// FolderManager manages per-user upload folders.
type FolderManager struct {
	baseDir string
	logger  *zap.Logger
}

// NewFolderManager creates a FolderManager rooted at baseDir.
func NewFolderManager(baseDir string, logger *zap.Logger) *FolderManager {
	return &FolderManager{
		baseDir: baseDir,
		logger:  logger,
	}
}

// CreateUserFolder creates uploads/{userID}/ and returns its path.
func (m *FolderManager) CreateUserFolder(userID string) (string, error) {
	if userID == "" {
		return "", fmt.Errorf("cannot create folder: empty user ID")
	}

	folderPath := m.UserFolderPath(userID)
	if err := os.MkdirAll(folderPath, 0755); err != nil {
		m.logger.Error("Failed to create user folder",
			zap.String("user_id", userID),
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return "", fmt.Errorf("failed to create folder: %w", err)
	}

	return folderPath, nil
}

// UserFolderPath returns the folder path for a user without creating it.
func (m *FolderManager) UserFolderPath(userID string) string {
	return filepath.Join(m.baseDir, m.SanitizeFolderName(userID))
}

// DeleteUserFolder removes a user's folder and all stored uploads.
// Deleting a missing folder is not an error.
func (m *FolderManager) DeleteUserFolder(userID string) error {
	folderPath := m.UserFolderPath(userID)

	if _, err := os.Stat(folderPath); os.IsNotExist(err) {
		return nil
	}

	if err := os.RemoveAll(folderPath); err != nil {
		m.logger.Error("Failed to delete user folder",
			zap.String("user_id", userID),
			zap.String("folder_path", folderPath),
			zap.Error(err))
		return fmt.Errorf("failed to delete folder: %w", err)
	}

	m.logger.Debug("Deleted user folder",
		zap.String("user_id", userID),
		zap.String("folder_path", folderPath))

	return nil
}

var unsafeFolderChars = regexp.MustCompile(`[^a-zA-Z0-9\-_]`)

// SanitizeFolderName returns a filesystem-safe version of the name.
// Path separators and parent references are stripped so a hostile user ID
// cannot escape the base directory.
func (m *FolderManager) SanitizeFolderName(name string) string {
	name = strings.ReplaceAll(name, "..", "")
	name = strings.ReplaceAll(name, "/", "")
	name = strings.ReplaceAll(name, "\\", "")
	name = unsafeFolderChars.ReplaceAllString(name, "")
	if name == "" {
		name = "_"
	}
	return name
}
