package utils

import (
	"fmt"
	"os"
	"path/filepath"
)

// FormatFileSize formats file size in human readable format
func FormatFileSize(size int64) string {
	const unit = 1024
	if size < unit {
		return fmt.Sprintf("%d B", size)
	}
	div, exp := int64(unit), 0
	for n := size / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(size)/float64(div), "KMGTPE"[exp])
}

// ResolveDestinationDir validates that destPath can serve as the directory a
// received file is written into. The file name itself comes from the
// transfer metadata.
func ResolveDestinationDir(destPath string) (string, error) {
	if info, err := os.Stat(destPath); err == nil {
		if info.IsDir() {
			return destPath, nil
		}
		return "", fmt.Errorf("destination path '%s' exists but is not a directory", destPath)
	} else if os.IsNotExist(err) {
		// Parent must exist; the directory itself is created when needed.
		dir := filepath.Dir(destPath)
		if info, dirErr := os.Stat(dir); dirErr == nil && info.IsDir() {
			return destPath, nil
		}
		return "", fmt.Errorf("parent directory does not exist: %s", dir)
	} else {
		return "", fmt.Errorf("cannot access destination path: %w", err)
	}
}

// WriteReceivedFile writes a reassembled payload into destDir under the
// original file name, creating the directory if needed.
func WriteReceivedFile(destDir, fileName string, payload []byte) (string, error) {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create destination directory: %w", err)
	}

	destPath := filepath.Join(destDir, filepath.Base(fileName))
	if err := os.WriteFile(destPath, payload, 0644); err != nil {
		return "", fmt.Errorf("failed to write received file: %w", err)
	}

	return destPath, nil
}
