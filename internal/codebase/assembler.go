package codebase

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/codechat-ai/codebase-chat/internal/config"
	"github.com/codechat-ai/codebase-chat/pkg/logger"
	"github.com/codechat-ai/codebase-chat/pkg/metrics"
)

// Assembler concatenates file contents into a single prompt payload.
type Assembler struct {
	ignored map[string]bool
	logger  *logger.Logger
}

// NewAssembler creates an assembler from the process configuration.
func NewAssembler(cfg *config.Config, log *logger.Logger) *Assembler {
	ignored := make(map[string]bool, len(cfg.IgnoreFolders))
	for _, name := range cfg.IgnoreFolders {
		ignored[name] = true
	}
	return &Assembler{ignored: ignored, logger: log}
}

// Assemble reads each file and concatenates the contents with per-file
// header delimiters, in input order. Paths with an ignored segment are
// dropped even when passed explicitly; selections can outlive a rescan.
// A file that cannot be read contributes an inline error marker instead
// of aborting the rest of the assembly. An empty selection yields the
// empty string exactly. The count covers files whose contents made it
// into the payload, so dropped paths and error markers are excluded.
func (a *Assembler) Assemble(paths []string) (string, int) {
	var sb strings.Builder
	count := 0
	for _, path := range paths {
		if a.pathIgnored(path) {
			continue
		}
		sb.WriteString(fmt.Sprintf("\n\n=== File: %s ===\n", filepath.Base(path)))
		data, err := os.ReadFile(path)
		if err != nil {
			if a.logger != nil {
				a.logger.Warn("failed to read file during assembly",
					zap.String("path", path),
					zap.Error(err),
				)
			}
			sb.WriteString(fmt.Sprintf("[error reading file: %v]", err))
			continue
		}
		sb.Write(data)
		count++
	}

	content := sb.String()
	metrics.RecordAssembly(count, len(content))
	return content, count
}

// Relativize converts each path to a form relative to base, falling back
// to the bare file name when no relative form exists. It never fails.
func (a *Assembler) Relativize(paths []string, base string) []string {
	out := make([]string, len(paths))
	for i, path := range paths {
		rel, err := filepath.Rel(base, path)
		if err != nil {
			out[i] = filepath.Base(path)
			continue
		}
		out[i] = rel
	}
	return out
}

func (a *Assembler) pathIgnored(path string) bool {
	for _, seg := range strings.Split(filepath.ToSlash(path), "/") {
		if a.ignored[seg] {
			return true
		}
	}
	return false
}
