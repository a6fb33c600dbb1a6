package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
}

// IsCSV reports whether name has a .csv extension, ignoring case.
func IsCSV(name string) bool {
	return strings.EqualFold(filepath.Ext(name), ".csv")
}

// FindCSVFiles lists the CSV files directly inside dir, oldest first.
func FindCSVFiles(dir string) ([]FileInfo, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", dir, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() || !IsCSV(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, FileInfo{
			Path:    filepath.Join(dir, entry.Name()),
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool {
		if files[i].ModTime.Equal(files[j].ModTime) {
			return files[i].Name < files[j].Name
		}
		return files[i].ModTime.Before(files[j].ModTime)
	})
	return files, nil
}

// OutputPath returns the sibling path a report for csvPath is written to.
func OutputPath(csvPath, suffix string) string {
	return strings.TrimSuffix(csvPath, filepath.Ext(csvPath)) + suffix
}

// PendingCSVFiles returns CSV files in dir that have no report with the given
// suffix next to them, or whose report is older than the CSV.
func PendingCSVFiles(dir, suffix string) ([]FileInfo, error) {
	all, err := FindCSVFiles(dir)
	if err != nil {
		return nil, err
	}

	var pending []FileInfo
	for _, f := range all {
		info, err := os.Stat(OutputPath(f.Path, suffix))
		if err != nil || info.ModTime().Before(f.ModTime) {
			pending = append(pending, f)
		}
	}
	return pending, nil
}
