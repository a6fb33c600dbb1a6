package files

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"chemviz/internal/storage"
)

// Manager keeps raw upload bytes in a flat directory.
type Manager struct {
	root   string
	logger *slog.Logger
}

// NewManager creates the root directory if needed.
func NewManager(root string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if root == "" {
		return nil, errors.New("source directory is empty")
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create source directory: %w", err)
	}
	return &Manager{
		root:   root,
		logger: logger.With(slog.String("component", "source_files")),
	}, nil
}

// Root returns the directory sources are written to.
func (m *Manager) Root() string {
	return m.root
}

// Save writes data under a fresh reference derived from filename.
func (m *Manager) Save(ctx context.Context, filename string, data []byte) (string, error) {
	ref := uuid.NewString() + "_" + sanitizeName(filename)
	fullPath := filepath.Join(m.root, ref)

	m.logger.InfoContext(ctx, "Writing source file",
		slog.String("ref", ref),
		slog.Int("size_bytes", len(data)))

	tmp := fullPath + ".part"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write source file: %w", err)
	}
	if err := os.Rename(tmp, fullPath); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("failed to finalize source file: %w", err)
	}
	return ref, nil
}

// Load reads the source behind ref.
func (m *Manager) Load(ctx context.Context, ref string) ([]byte, error) {
	fullPath, err := m.resolve(ref)
	if err != nil {
		return nil, err
	}

	m.logger.DebugContext(ctx, "Reading source file", slog.String("ref", ref))

	data, err := os.ReadFile(fullPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", storage.ErrSourceMissing, ref)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read source file: %w", err)
	}
	return data, nil
}

// Remove deletes the source behind ref. Removing a missing source is not an error.
func (m *Manager) Remove(ctx context.Context, ref string) error {
	fullPath, err := m.resolve(ref)
	if err != nil {
		return err
	}

	m.logger.InfoContext(ctx, "Deleting source file", slog.String("ref", ref))

	if err := os.Remove(fullPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete source file: %w", err)
	}
	return nil
}

// FileExists reports whether ref currently resolves to a file.
func (m *Manager) FileExists(ref string) bool {
	fullPath, err := m.resolve(ref)
	if err != nil {
		return false
	}
	info, err := os.Stat(fullPath)
	return err == nil && !info.IsDir()
}

func (m *Manager) resolve(ref string) (string, error) {
	if ref == "" || ref != filepath.Base(ref) || ref == "." || ref == ".." || strings.ContainsAny(ref, `/\`) {
		return "", fmt.Errorf("%w: invalid reference %q", storage.ErrSourceMissing, ref)
	}
	return filepath.Join(m.root, ref), nil
}

// sanitizeName keeps the base name and replaces anything outside [A-Za-z0-9._-].
func sanitizeName(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, `\`, "/"))
	if base == "." || base == "/" || base == "" {
		return "upload.csv"
	}

	var b strings.Builder
	for _, r := range base {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '.', r == '-', r == '_':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}

	out := strings.TrimLeft(b.String(), ".")
	if out == "" {
		return "upload.csv"
	}
	if len(out) > 100 {
		out = out[len(out)-100:]
	}
	return out
}
