package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"pubmedscraper/pkg/checkpoint"
	"pubmedscraper/pkg/collate"
	"pubmedscraper/pkg/scraper"
)

// PrintRunSummary prints the totals of a scan followed by one row per term
func PrintRunSummary(s *scraper.Summary) {
	if s == nil {
		return
	}
	if s.AlreadyComplete {
		PrintSuccess("Scan already complete, nothing fetched")
		return
	}

	PrintInfo("Run", s.RunID)
	PrintInfo("Started from", DescribePosition(s.Start, s.Resumed))
	PrintInfo("Pages fetched", humanize.Comma(int64(s.PagesFetched())))
	PrintInfo("Emails found", humanize.Comma(int64(s.EmailsFound())))
	PrintInfo("Elapsed", s.Duration().Round(time.Millisecond).String())

	if len(s.Terms) > 0 {
		fmt.Fprintln(out)
		fmt.Fprintln(out, TermResultsTable(s.Terms))
	}

	if s.Interrupted {
		PrintWarning("Scan interrupted, run again to resume from the checkpoint")
		return
	}
	PrintSuccess("Scan complete")
}

// PrintCollateResult prints where the collated file is and how many emails it holds
func PrintCollateResult(r *collate.Result) {
	if r == nil {
		return
	}
	PrintInfo("Collated file", r.Path)
	if r.Built {
		PrintInfo("Term files merged", humanize.Comma(int64(len(r.SourceFiles))))
	}
	PrintInfo("Unique emails", humanize.Comma(int64(r.Unique)))
}

// DescribePosition renders a checkpoint position for people
func DescribePosition(pos checkpoint.Position, resumed bool) string {
	desc := fmt.Sprintf("term %d, page %s", pos.TermIndex, humanize.Comma(int64(pos.Page)))
	if !resumed {
		return desc + " (fresh start)"
	}
	return desc + " (checkpoint)"
}

// DescribeCheckpoint renders a loaded checkpoint, nil meaning none on disk
func DescribeCheckpoint(cp *checkpoint.Checkpoint) string {
	switch {
	case cp == nil:
		return "none, next scan starts at the first term"
	case cp.Complete:
		return "scan complete, updated " + humanize.Time(cp.UpdatedAt)
	default:
		return fmt.Sprintf("term %d, page %s, updated %s",
			cp.Position.TermIndex, humanize.Comma(int64(cp.Position.Page)), humanize.Time(cp.UpdatedAt))
	}
}
