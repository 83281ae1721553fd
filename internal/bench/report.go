package bench

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// Render writes a summary table of r to w.
func (r *Result) Render(w io.Writer) error {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Metric", "Value"})

	perIteration := time.Duration(0)
	if r.Iterations > 0 {
		perIteration = r.Elapsed / time.Duration(r.Iterations)
	}
	avgBytes := uint64(0)
	if ok := r.Iterations - r.Failures; ok > 0 {
		avgBytes = uint64(r.BytesOut) / uint64(ok)
	}

	tw.AppendRows([]table.Row{
		{"Run", r.ID},
		{"Mode", r.Mode},
		{"Iterations", humanize.Comma(int64(r.Iterations))},
		{"Concurrency", r.Concurrency},
		{"Layers", r.Layers},
		{"Elapsed", r.Elapsed.Round(time.Millisecond)},
		{"Per iteration", perIteration.Round(time.Microsecond)},
		{"Iterations/s", humanize.FormatFloat("#,###.##", r.PerSecond())},
		{"Output", humanize.Bytes(uint64(r.BytesOut))},
		{"Output/iteration", humanize.Bytes(avgBytes)},
		{"Failures", r.Failures},
	})
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})

	_, err := fmt.Fprintln(w, tw.Render())
	return err
}
