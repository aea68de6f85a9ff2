// Package logger provides structured logging for the PubMed scraper.
//
// It wraps zerolog behind a small Logger interface so that components can
// receive a logger explicitly and tests can swap in TestLogger or
// NewNopLogger.
//
// Output format is chosen by LoggingConfig.Format:
//   - auto: colored console lines on a terminal, JSON lines otherwise
//   - console: always colored console lines
//   - json: always JSON lines
//
// When LoggingConfig.File is set, JSON lines are also appended to that file.
//
// Basic Usage:
//
//	err := logger.Initialize(&cfg.Logging)
//	log := logger.GetLogger().WithField("component", "crawler")
//	log.InfoWithFields("Crawl progress", map[string]interface{}{
//	    "term": "mirna",
//	    "page": 50,
//	})
package logger
