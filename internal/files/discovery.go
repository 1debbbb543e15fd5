package files

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/cast"

	"charmcli/internal/config"
)

// FileInfo represents information about a discovered file
type FileInfo struct {
	Path    string
	Name    string
	Size    int64
	ModTime time.Time
	IsDir   bool
}

// HourlyFile is a smartwatch export covering one clock hour
type HourlyFile struct {
	FileInfo
	Hour time.Time
}

// Discovery provides file discovery operations
type Discovery struct {
	basePath string
}

// NewDiscovery creates a new file discovery instance
func NewDiscovery(basePath string) *Discovery {
	return &Discovery{basePath: basePath}
}

func (d *Discovery) resolve(dir string) string {
	if dir == "" {
		return d.basePath
	}
	if filepath.IsAbs(dir) {
		return dir
	}
	return filepath.Join(d.basePath, dir)
}

// FindCSVFiles finds all CSV files, compressed or not, in the specified directory
func (d *Discovery) FindCSVFiles(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var files []FileInfo
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !IsCSV(name) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}

		files = append(files, FileInfo{
			Path:    filepath.Join(fullPath, name),
			Name:    name,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, nil
}

// ListDirectories lists all subdirectories in the specified directory
func (d *Discovery) ListDirectories(dir string) ([]FileInfo, error) {
	fullPath := d.resolve(dir)

	entries, err := os.ReadDir(fullPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read directory %s: %w", fullPath, err)
	}

	var dirs []FileInfo
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		dirs = append(dirs, FileInfo{
			Path:    filepath.Join(fullPath, entry.Name()),
			Name:    entry.Name(),
			ModTime: info.ModTime(),
			IsDir:   true,
		})
	}

	return dirs, nil
}

// Participants returns the numeric folder names below the base path in
// numeric order. Other folders are ignored.
func (d *Discovery) Participants() ([]string, error) {
	dirs, err := d.ListDirectories("")
	if err != nil {
		return nil, err
	}

	type entry struct {
		name string
		num  int
	}
	var ids []entry
	for _, dir := range dirs {
		if !isDigits(dir.Name) {
			continue
		}
		ids = append(ids, entry{name: dir.Name, num: cast.ToInt(strings.TrimLeft(dir.Name, "0"))})
	}
	sort.SliceStable(ids, func(i, j int) bool { return ids[i].num < ids[j].num })

	out := make([]string, len(ids))
	for i, e := range ids {
		out[i] = e.name
	}
	return out, nil
}

// HourlyFiles lists the hourly exports of a device folder in chronological
// order. Files whose name does not encode an hour are skipped.
func (d *Discovery) HourlyFiles(dir string) ([]HourlyFile, error) {
	csvs, err := d.FindCSVFiles(dir)
	if err != nil {
		return nil, err
	}

	var hourly []HourlyFile
	for _, f := range csvs {
		hour, ok := ParseHourlyName(f.Name)
		if !ok {
			continue
		}
		hourly = append(hourly, HourlyFile{FileInfo: f, Hour: hour})
	}
	sort.SliceStable(hourly, func(i, j int) bool { return hourly[i].Hour.Before(hourly[j].Hour) })
	return hourly, nil
}

// ParseHourlyName extracts the hour from a dd.mm.yy_HH.csv file name
func ParseHourlyName(name string) (time.Time, bool) {
	base := TrimCSVExt(filepath.Base(name))
	hour, err := time.Parse(config.HourlyFileLayout, base)
	if err != nil {
		return time.Time{}, false
	}
	return hour, true
}

// HourlyName is the file name of the export covering hour
func HourlyName(hour time.Time) string {
	return hour.Format(config.HourlyFileLayout) + ".csv"
}

// HoursInWindow keeps the files whose hour may hold samples in [start, end).
// The list must be sorted; iteration stops at the first hour past end.
func HoursInWindow(files []HourlyFile, start, end time.Time) []HourlyFile {
	var out []HourlyFile
	lower := start.Add(-time.Hour)
	for _, f := range files {
		if f.Hour.After(end) {
			break
		}
		if f.Hour.After(lower) && f.Hour.Before(end) {
			out = append(out, f)
		}
	}
	return out
}

// IsCSV reports whether name is a plain or gzip compressed CSV file
func IsCSV(name string) bool {
	lower := strings.ToLower(name)
	return strings.HasSuffix(lower, ".csv") || strings.HasSuffix(lower, ".csv.gz")
}

// TrimCSVExt removes a .csv or .csv.gz extension
func TrimCSVExt(name string) string {
	lower := strings.ToLower(name)
	switch {
	case strings.HasSuffix(lower, ".csv.gz"):
		return name[:len(name)-len(".csv.gz")]
	case strings.HasSuffix(lower, ".csv"):
		return name[:len(name)-len(".csv")]
	}
	return name
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
