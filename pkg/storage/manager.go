package storage

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// TermFileSuffix ends every per-term output file name
const TermFileSuffix = ".emails.txt"

// Manager owns the per-term email files and the collated file
type Manager struct {
	outputDir    string
	collatedPath string
	mu           sync.Mutex
}

// NewManager creates a new storage manager rooted at outputDir
func NewManager(outputDir, collatedPath string) (*Manager, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	return &Manager{
		outputDir:    outputDir,
		collatedPath: collatedPath,
	}, nil
}

// TermFileName maps a search term to its output file name, spaces becoming '+'
func TermFileName(term string) string {
	return strings.ReplaceAll(term, " ", "+") + TermFileSuffix
}

// TermPath returns the per-term file for term
func (m *Manager) TermPath(term string) string {
	return filepath.Join(m.outputDir, TermFileName(term))
}

// CollatedPath returns the collated output file
func (m *Manager) CollatedPath() string {
	return m.collatedPath
}

// GetOutputDir returns the output directory path
func (m *Manager) GetOutputDir() string {
	return m.outputDir
}

// Exists reports whether path exists
func (m *Manager) Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// AppendEmails appends emails to the term's file as "a,b," creating it if needed.
// An empty slice leaves the file untouched.
func (m *Manager) AppendEmails(term string, emails []string) error {
	if len(emails) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	path := m.TermPath(term)
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	var buf bytes.Buffer
	// a deduplicated file has no trailing comma
	needsSep, err := lacksTrailingComma(file)
	if err != nil {
		return fmt.Errorf("failed to inspect %s: %w", path, err)
	}
	if needsSep {
		buf.WriteByte(',')
	}
	buf.WriteString(strings.Join(emails, ","))
	buf.WriteByte(',')

	if _, err := file.Write(buf.Bytes()); err != nil {
		return fmt.Errorf("failed to append to %s: %w", path, err)
	}
	return nil
}

func lacksTrailingComma(f *os.File) (bool, error) {
	info, err := f.Stat()
	if err != nil {
		return false, err
	}
	if info.Size() == 0 {
		return false, nil
	}

	last := make([]byte, 1)
	if _, err := f.ReadAt(last, info.Size()-1); err != nil {
		return false, err
	}
	return last[0] != ',', nil
}

// ReadSet parses the file at path. A missing file yields an empty set and false.
func (m *Manager) ReadSet(path string) (EmailSet, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewEmailSet(), false, nil
		}
		return nil, false, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseSet(string(data)), true, nil
}

// WriteSet replaces the file at path with the set's sorted record
func (m *Manager) WriteSet(path string, set EmailSet) error {
	return writeFileAtomic(path, []byte(set.Join()))
}

// Dedupe rewrites the file at path with its unique members and returns their count.
// A missing file stays missing.
func (m *Manager) Dedupe(path string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	set, ok, err := m.ReadSet(path)
	if err != nil || !ok {
		return 0, err
	}
	if err := m.WriteSet(path, set); err != nil {
		return 0, err
	}
	return set.Len(), nil
}

// DedupeTerm deduplicates the per-term file for term
func (m *Manager) DedupeTerm(term string) (int, error) {
	return m.Dedupe(m.TermPath(term))
}

// ListTermFiles returns every per-term file in the output directory, sorted
func (m *Manager) ListTermFiles() ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(m.outputDir, "*"+TermFileSuffix))
	if err != nil {
		return nil, fmt.Errorf("failed to list term files: %w", err)
	}

	collated, _ := filepath.Abs(m.collatedPath)
	files := matches[:0]
	for _, f := range matches {
		if abs, _ := filepath.Abs(f); abs == collated {
			continue
		}
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// Concat writes the raw contents of srcs to dst, each followed by a comma
func (m *Manager) Concat(dst string, srcs []string) error {
	var buf bytes.Buffer
	for _, src := range srcs {
		f, err := os.Open(src)
		if err != nil {
			return fmt.Errorf("failed to open %s: %w", src, err)
		}
		_, err = io.Copy(&buf, f)
		f.Close()
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", src, err)
		}
		buf.WriteByte(',')
	}
	return writeFileAtomic(dst, buf.Bytes())
}

// writeFileAtomic writes data to a temp file next to path and renames it into place
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	out, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	tempFile := out.Name()

	_, err = out.Write(data)
	if err == nil {
		err = out.Sync()
	}
	closeErr := out.Close()

	if err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if closeErr != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to close file: %w", closeErr)
	}

	if err := os.Rename(tempFile, path); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temporary file: %w", err)
	}
	return nil
}
