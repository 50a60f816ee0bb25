package codebase

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codechat-ai/codebase-chat/internal/config"
	"github.com/codechat-ai/codebase-chat/internal/model"
)

func testConfig() *config.Config {
	return &config.Config{
		SupportedExtensions: []string{".py"},
		SpecialFiles:        []string{".env"},
		IgnoreFolders:       []string{"venv", "__pycache__", ".git"},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestScanner_Scan(t *testing.T) {
	scanner := NewScanner(testConfig(), nil)

	t.Run("empty root is invalid input", func(t *testing.T) {
		_, err := scanner.Scan("")
		require.Error(t, err)
		assert.Equal(t, model.CodeInvalidInput, model.CodeOf(err))
	})

	t.Run("missing root is not found", func(t *testing.T) {
		_, err := scanner.Scan(filepath.Join(t.TempDir(), "does-not-exist"))
		require.Error(t, err)
		assert.Equal(t, model.CodeNotFound, model.CodeOf(err))
	})

	t.Run("file root is not a directory", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.py"), "x=1")
		_, err := scanner.Scan(filepath.Join(root, "a.py"))
		require.Error(t, err)
		assert.Equal(t, model.CodeNotADirectory, model.CodeOf(err))
	})

	t.Run("empty directory returns empty sequence", func(t *testing.T) {
		files, err := scanner.Scan(t.TempDir())
		require.NoError(t, err)
		assert.Empty(t, files)
	})

	t.Run("matches extension or special name, excludes the rest", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.py"), "x=1")
		writeFile(t, filepath.Join(root, ".env"), "K=v")
		writeFile(t, filepath.Join(root, "script.js"), "var x")
		writeFile(t, filepath.Join(root, "notes.txt"), "hi")

		files, err := scanner.Scan(root)
		require.NoError(t, err)

		names := baseNames(files)
		assert.Equal(t, []string{".env", "a.py"}, names)
	})

	t.Run("ignored directories are pruned at any depth", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.py"), "x=1")
		writeFile(t, filepath.Join(root, "venv", "b.py"), "x=2")
		writeFile(t, filepath.Join(root, "venv", "lib", "deep", "c.py"), "x=3")
		writeFile(t, filepath.Join(root, "src", "__pycache__", "d.py"), "x=4")
		writeFile(t, filepath.Join(root, "src", "e.py"), "x=5")

		files, err := scanner.Scan(root)
		require.NoError(t, err)

		for _, f := range files {
			for _, seg := range strings.Split(filepath.ToSlash(f), "/") {
				assert.NotEqual(t, "venv", seg)
				assert.NotEqual(t, "__pycache__", seg)
			}
		}
		assert.Equal(t, []string{"a.py", "e.py"}, baseNames(files))
	})

	t.Run("result is sorted and deterministic", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "z.py"), "")
		writeFile(t, filepath.Join(root, "a.py"), "")
		writeFile(t, filepath.Join(root, "m", "k.py"), "")

		first, err := scanner.Scan(root)
		require.NoError(t, err)
		assert.True(t, sort.StringsAreSorted(first))

		second, err := scanner.Scan(root)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})

	t.Run("typical python project layout", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.py"), "x=1")
		writeFile(t, filepath.Join(root, "venv", "b.py"), "x=2")
		writeFile(t, filepath.Join(root, ".env"), "K=v")

		files, err := scanner.Scan(root)
		require.NoError(t, err)
		assert.Equal(t, []string{".env", "a.py"}, baseNames(files))
	})
}

func TestScanner_Validate(t *testing.T) {
	scanner := NewScanner(testConfig(), nil)

	t.Run("empty root", func(t *testing.T) {
		ok, reason := scanner.Validate("")
		assert.False(t, ok)
		assert.Equal(t, "no directory selected", reason)
	})

	t.Run("missing root", func(t *testing.T) {
		ok, reason := scanner.Validate(filepath.Join(t.TempDir(), "nope"))
		assert.False(t, ok)
		assert.Equal(t, "directory does not exist", reason)
	})

	t.Run("file instead of directory", func(t *testing.T) {
		root := t.TempDir()
		writeFile(t, filepath.Join(root, "a.py"), "")
		ok, reason := scanner.Validate(filepath.Join(root, "a.py"))
		assert.False(t, ok)
		assert.Equal(t, "path is not a directory", reason)
	})

	t.Run("valid directory", func(t *testing.T) {
		ok, reason := scanner.Validate(t.TempDir())
		assert.True(t, ok)
		assert.Empty(t, reason)
	})
}

func baseNames(paths []string) []string {
	names := make([]string, len(paths))
	for i, p := range paths {
		names[i] = filepath.Base(p)
	}
	return names
}
