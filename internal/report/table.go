package report

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/Koshroy/redditsentiment/internal/sentiment"
)

var tableHeader = []string{"Title", "Article", "Comments", "Overall", "URL"}

const maxTitleWidth = 48

// RenderTable prints the records as a compact table, scores to three decimals.
func RenderTable(w io.Writer, records []sentiment.Record) error {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoWrap: tw.WrapNone,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{
					AutoFormat: tw.On,
				},
				Alignment: tw.CellAlignment{
					Global: tw.AlignLeft,
				},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{
					ShowHeader: tw.Off,
				},
			},
		}),
	)

	rows := make([][]string, 0, len(records))
	for _, r := range records {
		rows = append(rows, []string{
			shorten(r.Title, maxTitleWidth),
			fmt.Sprintf("%.3f", r.ArticleSentiment),
			fmt.Sprintf("%.3f", r.CommentSentiment),
			fmt.Sprintf("%.3f", r.OverallSentiment),
			r.URL,
		})
	}

	table.Header(tableHeader)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("building table: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	return nil
}

func shorten(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-1]) + "…"
}
