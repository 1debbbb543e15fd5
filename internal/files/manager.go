package files

import (
	"bufio"
	"compress/gzip"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Manager provides file access relative to a base directory
type Manager struct {
	basePath string
}

// NewManager creates a new file manager instance
func NewManager(basePath string) *Manager {
	return &Manager{basePath: basePath}
}

// FileExists checks if a file exists at the given path
func (m *Manager) FileExists(path string) bool {
	fullPath := m.resolvePath(path)
	_, err := os.Stat(fullPath)
	exists := err == nil

	slog.Debug("FileExists check",
		slog.String("path", path),
		slog.String("full_path", fullPath),
		slog.Bool("exists", exists))

	return exists
}

// Open opens a file for reading, decompressing .gz files
func (m *Manager) Open(path string) (io.ReadCloser, error) {
	return Open(m.resolvePath(path))
}

// Create creates a file for writing together with its parent directories,
// compressing .gz files
func (m *Manager) Create(path string) (io.WriteCloser, error) {
	return Create(m.resolvePath(path))
}

// ListFiles returns all files in a directory (non-recursive)
func (m *Manager) ListFiles(dir string) ([]string, error) {
	fullPath := m.resolvePath(dir)

	slog.Debug("Listing files",
		slog.String("dir", dir),
		slog.String("full_path", fullPath))
	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if !entry.IsDir() {
			files = append(files, entry.Name())
		}
	}

	return files, nil
}

// Resolve returns the absolute location of path
func (m *Manager) Resolve(path string) string {
	return m.resolvePath(path)
}

func (m *Manager) resolvePath(path string) string {
	if filepath.IsAbs(path) || m.basePath == "" {
		return path
	}
	return filepath.Join(m.basePath, path)
}

// IsGzip reports whether path names a gzip compressed file
func IsGzip(path string) bool {
	return strings.HasSuffix(strings.ToLower(path), ".gz")
}

type gzipReader struct {
	*gzip.Reader
	file *os.File
}

func (g *gzipReader) Close() error {
	err := g.Reader.Close()
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Open opens path for reading, decompressing .gz files
func Open(path string) (io.ReadCloser, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	if !IsGzip(path) {
		return file, nil
	}
	zr, err := gzip.NewReader(bufio.NewReader(file))
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to open gzip stream %s: %w", path, err)
	}
	return &gzipReader{Reader: zr, file: file}, nil
}

type gzipWriter struct {
	*gzip.Writer
	buf  *bufio.Writer
	file *os.File
}

func (g *gzipWriter) Close() error {
	err := g.Writer.Close()
	if ferr := g.buf.Flush(); err == nil {
		err = ferr
	}
	if cerr := g.file.Close(); err == nil {
		err = cerr
	}
	return err
}

// Create creates path and its parent directories, compressing .gz files
func Create(path string) (io.WriteCloser, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	if !IsGzip(path) {
		return file, nil
	}
	buf := bufio.NewWriter(file)
	return &gzipWriter{Writer: gzip.NewWriter(buf), buf: buf, file: file}, nil
}
