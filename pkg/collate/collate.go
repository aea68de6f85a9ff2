// Package collate merges every per-term email file into one deduplicated file.
package collate

import (
	"fmt"
	"time"

	"pubmedscraper/pkg/logger"
	"pubmedscraper/pkg/storage"
)

// Result describes a collation
type Result struct {
	Path string
	// Built is true when the collated file was assembled from term files
	// in this call rather than found on disk
	Built       bool
	SourceFiles []string
	Unique      int
	Duration    time.Duration
}

// Collator builds the collated file from the store's term files
type Collator struct {
	store  *storage.Manager
	logger logger.Logger
}

// New creates a Collator
func New(store *storage.Manager, log logger.Logger) *Collator {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Collator{
		store:  store,
		logger: log.WithField("component", "collator"),
	}
}

// Run builds the collated file if it is missing, then rewrites it
// deduplicated. Running it again yields the same set.
func (c *Collator) Run() (*Result, error) {
	started := time.Now()
	result := &Result{Path: c.store.CollatedPath()}

	if !c.store.Exists(result.Path) {
		files, err := c.store.ListTermFiles()
		if err != nil {
			return nil, err
		}
		if err := c.store.Concat(result.Path, files); err != nil {
			return nil, fmt.Errorf("failed to build collated file: %w", err)
		}
		result.Built = true
		result.SourceFiles = files

		c.logger.InfoWithFields("Collated term files", map[string]interface{}{
			"files": len(files),
			"path":  result.Path,
		})
	} else {
		c.logger.DebugWithFields("Collated file exists, deduplicating only", map[string]interface{}{
			"path": result.Path,
		})
	}

	unique, err := c.store.Dedupe(result.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to deduplicate collated file: %w", err)
	}
	result.Unique = unique
	result.Duration = time.Since(started)

	c.logger.InfoWithFields("Unique emails collated", map[string]interface{}{
		"unique": unique,
		"path":   result.Path,
	})
	return result, nil
}
