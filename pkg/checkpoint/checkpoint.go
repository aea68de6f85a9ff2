package checkpoint

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"pubmedscraper/pkg/errors"
	"pubmedscraper/pkg/logger"
)

// Position is the next page to fetch for the search term at TermIndex
type Position struct {
	TermIndex int
	Page      int
}

// Start is where a scan without a checkpoint begins
var Start = Position{TermIndex: 0, Page: 1}

func (p Position) String() string {
	return fmt.Sprintf("%d,%d", p.TermIndex, p.Page)
}

// NextTerm returns the first page of the following term
func (p Position) NextTerm() Position {
	return Position{TermIndex: p.TermIndex + 1, Page: 1}
}

// Checkpoint is a decoded checkpoint record
type Checkpoint struct {
	Position  Position
	Complete  bool
	UpdatedAt time.Time
}

// Manager handles checkpoint operations
type Manager struct {
	checkpointPath string
	logger         logger.Logger
}

// NewManager creates a checkpoint manager for the record at path
func NewManager(path string, log logger.Logger) *Manager {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Manager{
		checkpointPath: path,
		logger:         log,
	}
}

// Path returns the checkpoint file location
func (m *Manager) Path() string {
	return m.checkpointPath
}

// Load reads the checkpoint record.
// It returns nil, nil when no record exists.
func (m *Manager) Load() (*Checkpoint, error) {
	data, err := os.ReadFile(m.checkpointPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read checkpoint file: %w", err)
	}

	var updatedAt time.Time
	if info, err := os.Stat(m.checkpointPath); err == nil {
		updatedAt = info.ModTime()
	}

	record := strings.TrimSpace(string(data))
	if record == "" {
		m.logger.Debug("Checkpoint marks scan complete")
		return &Checkpoint{Complete: true, UpdatedAt: updatedAt}, nil
	}

	pos, err := Parse(record)
	if err != nil {
		return nil, err
	}

	m.logger.InfoWithFields("Checkpoint loaded", map[string]interface{}{
		"term_index": pos.TermIndex,
		"page":       pos.Page,
		"path":       m.checkpointPath,
	})

	return &Checkpoint{Position: pos, UpdatedAt: updatedAt}, nil
}

// Parse decodes a "<termIndex>,<page>" record
func Parse(record string) (Position, error) {
	corrupt := func(reason string) error {
		return errors.Wrap(errors.ErrorTypeCheckpoint,
			fmt.Sprintf("record %q: %s", record, reason), errors.ErrCorruptCheckpoint)
	}

	fields := strings.Split(record, ",")
	if len(fields) != 2 {
		return Position{}, corrupt(fmt.Sprintf("expected 2 fields, got %d", len(fields)))
	}

	index, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return Position{}, corrupt("term index is not an integer")
	}
	page, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return Position{}, corrupt("page is not an integer")
	}

	if index < 0 {
		return Position{}, corrupt("negative term index")
	}
	if page < 1 {
		return Position{}, corrupt("page must be at least 1")
	}

	return Position{TermIndex: index, Page: page}, nil
}

// Save records pos as the next page to fetch
func (m *Manager) Save(pos Position) error {
	if err := m.write(pos.String()); err != nil {
		return err
	}

	m.logger.DebugWithFields("Checkpoint saved", map[string]interface{}{
		"term_index": pos.TermIndex,
		"page":       pos.Page,
	})
	return nil
}

// MarkComplete writes the empty record meaning every term is exhausted
func (m *Manager) MarkComplete() error {
	if err := m.write(""); err != nil {
		return err
	}

	m.logger.Info("Checkpoint marked complete")
	return nil
}

// Reset removes the checkpoint file
func (m *Manager) Reset() error {
	if err := os.Remove(m.checkpointPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete checkpoint: %w", err)
	}

	m.logger.Info("Checkpoint deleted")
	return nil
}

// Exists checks if a checkpoint file exists
func (m *Manager) Exists() bool {
	_, err := os.Stat(m.checkpointPath)
	return err == nil
}

// write replaces the checkpoint file atomically
func (m *Manager) write(record string) error {
	dir := filepath.Dir(m.checkpointPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create checkpoint directory: %w", err)
	}

	file, err := os.CreateTemp(dir, filepath.Base(m.checkpointPath)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary checkpoint file: %w", err)
	}
	tempPath := file.Name()

	if _, err := file.WriteString(record); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to write checkpoint: %w", err)
	}

	// Ensure data is written to disk
	if err := file.Sync(); err != nil {
		file.Close()
		os.Remove(tempPath)
		return fmt.Errorf("failed to sync checkpoint file: %w", err)
	}

	if err := file.Close(); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to close checkpoint file: %w", err)
	}

	if err := os.Rename(tempPath, m.checkpointPath); err != nil {
		os.Remove(tempPath)
		return fmt.Errorf("failed to replace checkpoint file: %w", err)
	}

	return nil
}
