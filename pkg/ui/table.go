package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"pubmedscraper/pkg/scraper"
)

// TermState is where a term stands relative to the checkpoint
type TermState string

const (
	StatePending    TermState = "pending"
	StateInProgress TermState = "in progress"
	StateDone       TermState = "done"
)

// TermStatus is one row of the status table
type TermStatus struct {
	Index  int
	Term   string
	State  TermState
	Exists bool
	Unique int
	Bytes  int64
}

func newTable() table.Writer {
	tbl := table.NewWriter()
	tbl.SetStyle(table.StyleLight)
	tbl.Style().Options.SeparateRows = false
	tbl.Style().Options.DrawBorder = false
	return tbl
}

// StatusTable renders per-term file state
func StatusTable(rows []TermStatus) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Term", "State", "Unique emails", "File size"})

	total := 0
	for _, r := range rows {
		unique, size := "-", "-"
		if r.Exists {
			unique = humanize.Comma(int64(r.Unique))
			size = humanize.Bytes(uint64(r.Bytes))
			total += r.Unique
		}
		tbl.AppendRow(table.Row{r.Index, r.Term, string(r.State), unique, size})
	}
	tbl.AppendFooter(table.Row{"", "", "", humanize.Comma(int64(total)), ""})

	return tbl.Render()
}

// TermResultsTable renders the per-term outcome of a scan
func TermResultsTable(results []scraper.TermResult) string {
	tbl := newTable()
	tbl.AppendHeader(table.Row{"#", "Term", "Pages", "Failures", "Emails", "Unique", "Stopped", "Took"})

	for _, r := range results {
		pages := fmt.Sprintf("%d-%d", r.StartPage, r.LastPage)
		if r.PagesFetched == 0 {
			pages = "-"
		}
		tbl.AppendRow(table.Row{
			r.Index,
			r.Term,
			pages,
			r.Failures,
			humanize.Comma(int64(r.EmailsFound)),
			humanize.Comma(int64(r.UniqueEmails)),
			string(r.Reason),
			r.Duration.Round(time.Millisecond).String(),
		})
	}

	return tbl.Render()
}
