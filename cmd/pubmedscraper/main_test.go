package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pubmedscraper/pkg/config"
)

func execute(t *testing.T, args ...string) error {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	t.Cleanup(func() {
		configFile, logLevel, outputDir = "", "", ""
		terms, restart, foldCase = nil, false, false
		yearFrom, yearTo, maxPagesPerTerm = 0, 0, 0
		maxDuration, rateLimit = 0, 0
		rootCmd.SetArgs(nil)
	})
	rootCmd.SetArgs(args)
	return rootCmd.ExecuteContext(context.Background())
}

func TestConfigInitWritesLoadableFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "pubmedscraper.yaml")

	require.NoError(t, execute(t, "config", "init", "--config", path, "--no-color"))

	cfg := config.DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.DefaultConfig().Search, cfg.Search)
	assert.Equal(t, config.DefaultConfig().Crawl.MaxDelay, cfg.Crawl.MaxDelay)
}

func TestConfigInitRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pubmedscraper.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}"), 0644))

	err := execute(t, "config", "init", "--config", path, "--no-color")
	assert.ErrorContains(t, err, "already exists")
}

func TestStatusReadsOutputDirectory(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint.txt"), []byte("1,3"), 0644))

	assert.NoError(t, execute(t, "status", "--output", dir, "--log-level", "error", "--no-color"))
}

func TestStatusRejectsCorruptCheckpoint(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint.txt"), []byte("one,two"), 0644))

	assert.Error(t, execute(t, "status", "--output", dir, "--log-level", "error", "--no-color"))
}

func TestCollateBuildsCollatedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mirna.emails.txt"), []byte("a@x.com,b@y.com,"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mrna.emails.txt"), []byte("b@y.com,c@z.com,"), 0644))

	require.NoError(t, execute(t, "collate", "--output", dir, "--log-level", "error", "--no-color"))

	data, err := os.ReadFile(filepath.Join(dir, "all-emails.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com,b@y.com,c@z.com", string(data))
}

// stubPubMed serves scripted listing pages keyed "term#page"; unknown pages
// have no content block
type stubPubMed struct {
	server   *httptest.Server
	mu       sync.Mutex
	pages    map[string]string
	block    bool
	requests []string
}

func newStubPubMed(t *testing.T, pages map[string]string) *stubPubMed {
	t.Helper()
	stub := &stubPubMed{pages: pages}
	stub.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := fmt.Sprintf("%s#%s", r.URL.Query().Get("term"), r.URL.Query().Get("page"))
		stub.mu.Lock()
		stub.requests = append(stub.requests, key)
		records, ok := stub.pages[key]
		block := stub.block
		stub.mu.Unlock()

		if block {
			<-r.Context().Done()
			return
		}
		if !ok {
			fmt.Fprint(w, "<html><body>No results were found.</body></html>")
			return
		}
		fmt.Fprintf(w, "<html><body><pre>%s</pre></body></html>", records)
	}))
	t.Cleanup(stub.server.Close)
	t.Setenv("PUBMEDSCRAPER_BASE_URL", stub.server.URL+"/")
	return stub
}

func (s *stubPubMed) Requests() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.requests...)
}

func scanArgs(dir string, args ...string) []string {
	return append(args, "--output", dir, "--log-level", "error", "--no-color")
}

func TestRootWithoutSubcommandScansAndCollates(t *testing.T) {
	dir := t.TempDir()
	stub := newStubPubMed(t, map[string]string{
		"mrna#1":         "AD  - a@x.com, b@y.com",
		"circular rna#1": "AD  - b@y.com<br>c@z.com",
	})

	require.NoError(t, execute(t, scanArgs(dir, "--terms", "mrna,circular rna")...))

	assert.Equal(t, []string{"mrna#1", "mrna#2", "circular rna#1", "circular rna#2"}, stub.Requests())

	collated, err := os.ReadFile(filepath.Join(dir, "all-emails.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com,b@y.com,c@z.com", string(collated))

	checkpoint, err := os.ReadFile(filepath.Join(dir, "checkpoint.txt"))
	require.NoError(t, err)
	assert.Empty(t, string(checkpoint))
}

func TestRunAlreadyCompleteStillCollates(t *testing.T) {
	dir := t.TempDir()
	stub := newStubPubMed(t, nil)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint.txt"), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mrna.emails.txt"), []byte("a@x.com,a@x.com"), 0644))

	require.NoError(t, execute(t, scanArgs(dir, "run", "--terms", "mrna")...))

	assert.Empty(t, stub.Requests())
	collated, err := os.ReadFile(filepath.Join(dir, "all-emails.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", string(collated))
}

func TestRunInterruptedSkipsCollation(t *testing.T) {
	dir := t.TempDir()
	stub := newStubPubMed(t, nil)
	stub.mu.Lock()
	stub.block = true
	stub.mu.Unlock()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint.txt"), []byte("0,4"), 0644))

	require.NoError(t, execute(t, scanArgs(dir, "run", "--terms", "mrna", "--max-duration", "200ms")...))

	assert.Equal(t, []string{"mrna#4"}, stub.Requests())
	assert.NoFileExists(t, filepath.Join(dir, "all-emails.txt"))
	checkpoint, err := os.ReadFile(filepath.Join(dir, "checkpoint.txt"))
	require.NoError(t, err)
	assert.Equal(t, "0,4", string(checkpoint))
}

func TestScrapeRestartDiscardsCheckpoint(t *testing.T) {
	dir := t.TempDir()
	stub := newStubPubMed(t, map[string]string{"mrna#1": "a@x.com"})
	require.NoError(t, os.WriteFile(filepath.Join(dir, "checkpoint.txt"), []byte("0,9"), 0644))

	require.NoError(t, execute(t, scanArgs(dir, "scrape", "--restart", "--terms", "mrna")...))

	assert.Equal(t, []string{"mrna#1", "mrna#2"}, stub.Requests())
	assert.NoFileExists(t, filepath.Join(dir, "all-emails.txt"), "scrape does not collate")

	emails, err := os.ReadFile(filepath.Join(dir, "mrna.emails.txt"))
	require.NoError(t, err)
	assert.Equal(t, "a@x.com", string(emails))
}
