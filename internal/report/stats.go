package report

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"

	"github.com/torspider/torspider/internal/model"
)

// StatsWriter renders crawl statistics as a markdown report.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides:
//  1. Type-safe markdown generation
//  2. Table support without hand-aligned pipes
//  3. Output that renders cleanly in terminals and on GitHub
type StatsWriter struct {
	output io.Writer
}

// NewStatsWriter creates a StatsWriter that outputs to the given writer.
func NewStatsWriter(output io.Writer) *StatsWriter {
	return &StatsWriter{output: output}
}

// Write renders the statistics snapshot.
func (w *StatsWriter) Write(stats *model.FrontierStats) error {
	md := markdown.NewMarkdown(w.output)

	md.H1("TorSpider Frontier Report")
	md.PlainText("")
	md.PlainTextf("Generated %s", time.Now().Format("2006-01-02 15:04:05 MST"))
	md.PlainText("")

	md.H2("Onions")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count", "Share"},
		Rows: [][]string{
			{"Known domains", strconv.Itoa(stats.Onions), ""},
			{"Online", strconv.Itoa(stats.OnionsOnline), percentage(stats.OnionsOnline, stats.Onions)},
			{"Scanned at least once", strconv.Itoa(stats.OnionsScanned), percentage(stats.OnionsScanned, stats.Onions)},
		},
	})
	md.PlainText("")

	md.H2("Urls and Pages")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count", "Share"},
		Rows: [][]string{
			{"Known urls", strconv.Itoa(stats.URLs), ""},
			{"Scanned at least once", strconv.Itoa(stats.URLsScanned), percentage(stats.URLsScanned, stats.URLs)},
			{"Faulted", strconv.Itoa(stats.URLsFaulted), percentage(stats.URLsFaulted, stats.URLs)},
			{"Logical pages", strconv.Itoa(stats.Pages), ""},
		},
	})
	md.PlainText("")

	md.H2("Web Graph")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Count"},
		Rows: [][]string{
			{"Domain links", strconv.Itoa(stats.Links)},
			{"Form fields", strconv.Itoa(stats.FormFields)},
		},
	})

	return md.Build()
}

// percentage formats part/total as a percentage string, "-" when the
// total is zero.
func percentage(part, total int) string {
	if total == 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f%%", float64(part)/float64(total)*100)
}
