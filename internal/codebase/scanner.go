// Package codebase discovers source files under a root directory and
// assembles their contents into a single prompt payload.
package codebase

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/codechat-ai/codebase-chat/internal/config"
	"github.com/codechat-ai/codebase-chat/internal/model"
	"github.com/codechat-ai/codebase-chat/pkg/logger"
)

// Scanner walks a directory tree and returns the files eligible for
// prompt assembly.
type Scanner struct {
	extensions []string
	special    map[string]bool
	ignored    map[string]bool
	logger     *logger.Logger
}

// NewScanner creates a scanner from the process configuration.
func NewScanner(cfg *config.Config, log *logger.Logger) *Scanner {
	special := make(map[string]bool, len(cfg.SpecialFiles))
	for _, name := range cfg.SpecialFiles {
		special[name] = true
	}
	ignored := make(map[string]bool, len(cfg.IgnoreFolders))
	for _, name := range cfg.IgnoreFolders {
		ignored[name] = true
	}
	return &Scanner{
		extensions: append([]string(nil), cfg.SupportedExtensions...),
		special:    special,
		ignored:    ignored,
		logger:     log,
	}
}

// Scan walks root and returns the absolute paths of all matching files,
// sorted ascending. Directories with any ignored path segment are pruned
// wholesale, so nothing beneath them is visited.
func (s *Scanner) Scan(root string) ([]string, error) {
	if root == "" {
		return nil, model.NewError(model.CodeInvalidInput, "no directory selected")
	}

	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, model.WrapError(model.CodeNotFound, fmt.Sprintf("directory does not exist: %s", root), err)
		}
		if errors.Is(err, fs.ErrPermission) {
			return nil, model.WrapError(model.CodePermissionDenied, fmt.Sprintf("directory is not readable: %s", root), err)
		}
		return nil, model.WrapError(model.CodeNotFound, fmt.Sprintf("cannot access directory: %s", root), err)
	}
	if !info.IsDir() {
		return nil, model.NewError(model.CodeNotADirectory, fmt.Sprintf("not a directory: %s", root))
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, model.WrapError(model.CodeInvalidInput, fmt.Sprintf("cannot resolve directory: %s", root), err)
	}

	var files []string
	walkErr := filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtree; skip rather than abort the whole scan.
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			if path != abs && s.pathIgnored(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if s.matches(d.Name()) {
			files = append(files, path)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("scan failed: %w", walkErr)
	}

	sort.Strings(files)

	if s.logger != nil {
		s.logger.Debug("scan completed",
			zap.String("root", abs),
			zap.Int("files", len(files)),
		)
	}

	return files, nil
}

// Validate performs cheap pre-flight checks on a root directory without
// raising: existence, is-a-directory, readability. The reason string is
// suitable for direct display.
func (s *Scanner) Validate(root string) (bool, string) {
	if root == "" {
		return false, "no directory selected"
	}
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, "directory does not exist"
		}
		if errors.Is(err, fs.ErrPermission) {
			return false, "directory is not readable"
		}
		return false, fmt.Sprintf("cannot access directory: %v", err)
	}
	if !info.IsDir() {
		return false, "path is not a directory"
	}
	f, err := os.Open(root)
	if err != nil {
		return false, "directory is not readable"
	}
	defer f.Close()
	// An empty directory returns io.EOF here, which is fine.
	if _, err := f.Readdirnames(1); err != nil && !errors.Is(err, io.EOF) {
		return false, "directory is not readable"
	}
	return true, ""
}

// pathIgnored reports whether any segment of path matches the ignore set.
func (s *Scanner) pathIgnored(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if s.ignored[seg] {
			return true
		}
	}
	return false
}

// matches reports whether a file name is eligible: supported extension or
// exact special-file name. The two checks are independent.
func (s *Scanner) matches(name string) bool {
	if s.special[name] {
		return true
	}
	for _, ext := range s.extensions {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}
