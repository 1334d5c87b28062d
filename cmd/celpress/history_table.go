package main

import (
	"strconv"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"celpress/internal/history"
)

const historyReasonWidth = 60

// renderHistoryTable formats publish cycles, newest first, for the history
// command.
func renderHistoryTable(cycles []history.Cycle) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Started", "Elapsed", "Status", "Frames", "Rebuilt", "Changed", "Reason"})

	for _, cycle := range cycles {
		tw.AppendRow(table.Row{
			cycle.StartedAt.Local().Format("2006-01-02 15:04:05"),
			cycle.FinishedAt.Sub(cycle.StartedAt).Round(time.Millisecond).String(),
			cycle.Status,
			strconv.Itoa(cycle.FrameCount),
			strconv.Itoa(cycle.RebuiltFrames),
			strconv.Itoa(cycle.ChangedInputs),
			truncate(cycle.Reason, historyReasonWidth),
		})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 4, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 5, Align: text.AlignRight, AlignHeader: text.AlignLeft},
		{Number: 6, Align: text.AlignRight, AlignHeader: text.AlignLeft},
	})
	return tw.Render()
}

// truncate shortens s to at most max bytes, replacing the tail with an
// ellipsis when there is room for one.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
