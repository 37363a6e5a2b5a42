package model

import (
	"path/filepath"
	"strings"
)

const (
	fileRefScheme  = "file://"
	redisRefScheme = "redis://"
)

// NormalizeRequestRef checks a model reference supplied by a caller and
// returns its canonical form. Redis references pass unchanged. File
// references must be relative and stay inside the model search dirs, so
// absolute paths and any ".." step are rejected. The file:// prefix is
// dropped and the path cleaned, so spellings of one file share a cache entry.
func NormalizeRequestRef(ref string) (string, []string) {
	if strings.HasPrefix(ref, redisRefScheme) {
		if strings.TrimPrefix(ref, redisRefScheme) == "" {
			return "", []string{"model redis key must not be empty"}
		}
		return ref, nil
	}

	path := strings.TrimPrefix(ref, fileRefScheme)
	if strings.TrimSpace(path) == "" {
		return "", []string{"model must not be empty"}
	}
	path = filepath.ToSlash(path)
	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") || filepath.VolumeName(path) != "" {
		return "", []string{"model must be a path relative to the model directory"}
	}
	for _, part := range strings.Split(path, "/") {
		if part == ".." {
			return "", []string{"model must not leave the model directory"}
		}
	}
	return filepath.ToSlash(filepath.Clean(path)), nil
}
