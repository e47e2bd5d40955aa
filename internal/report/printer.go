package report

import (
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"

	"github.com/Koshroy/redditsentiment/internal/sentiment"
)

// ColorMode represents color output mode
type ColorMode int

const (
	// ColorAuto enables colors based on environment (default)
	ColorAuto ColorMode = iota
	// ColorAlways forces colors on
	ColorAlways
	// ColorNever forces colors off
	ColorNever
)

// ParseColorMode parses a string into a ColorMode
func ParseColorMode(s string) (ColorMode, error) {
	switch s {
	case "", "auto":
		return ColorAuto, nil
	case "always":
		return ColorAlways, nil
	case "never":
		return ColorNever, nil
	default:
		return ColorAuto, fmt.Errorf("invalid color mode %q: must be auto, always, or never", s)
	}
}

// ResolveColors determines whether to use colors based on mode and environment
func ResolveColors(mode ColorMode, configColors bool) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			return false
		}
		if os.Getenv("TERM") == "dumb" {
			return false
		}
		return configColors
	}
}

// Printer writes the human readable summary.
type Printer struct {
	out       io.Writer
	useColors bool
}

// NewPrinter returns a printer writing to out.
func NewPrinter(out io.Writer, useColors bool) *Printer {
	return &Printer{out: out, useColors: useColors}
}

// PrintRecords prints one block per record under a results header.
func (p *Printer) PrintRecords(records []sentiment.Record) {
	p.header("Sentiment Analysis Results:")
	for _, r := range records {
		fmt.Fprintf(p.out, "\nArticle: %s\n", p.bold(r.Title))
		fmt.Fprintf(p.out, "URL: %s\n", r.URL)
		fmt.Fprintf(p.out, "Article Sentiment: %s\n", p.score(r.ArticleSentiment))
		fmt.Fprintf(p.out, "Average Comment Sentiment: %s\n", p.score(r.CommentSentiment))
		fmt.Fprintf(p.out, "Overall Sentiment: %s\n", p.score(r.OverallSentiment))
	}
}

// PrintSummary prints how many URLs made it into the report.
func (p *Printer) PrintSummary(summary sentiment.Summary, outputPath string) {
	line := fmt.Sprintf("%d of %d submissions analyzed, results written to %s", summary.Succeeded, summary.Total, outputPath)
	switch {
	case !p.useColors:
		fmt.Fprintf(p.out, "\n%s\n", line)
	case summary.Failed == 0:
		paint(color.FgGreen).Fprintf(p.out, "\n%s\n", line)
	default:
		paint(color.FgYellow).Fprintf(p.out, "\n%s\n", line)
	}
}

func (p *Printer) header(title string) {
	if p.useColors {
		paint(color.FgWhite, color.Bold).Fprintf(p.out, "\n%s\n", title)
	} else {
		fmt.Fprintf(p.out, "\n%s\n", title)
	}
	fmt.Fprintf(p.out, "%s\n", repeatChar('=', len(title)))
}

func (p *Printer) bold(text string) string {
	if p.useColors {
		return paint(color.Bold).Sprint(text)
	}
	return text
}

// score formats to three decimals, green for positive and red for negative.
func (p *Printer) score(v float64) string {
	s := fmt.Sprintf("%.3f", v)
	if !p.useColors {
		return s
	}
	switch {
	case v > 0:
		return paint(color.FgGreen).Sprint(s)
	case v < 0:
		return paint(color.FgRed).Sprint(s)
	default:
		return s
	}
}

// paint ignores color's own terminal detection; ResolveColors already decided.
func paint(attrs ...color.Attribute) *color.Color {
	c := color.New(attrs...)
	c.EnableColor()
	return c
}

func repeatChar(char rune, count int) string {
	result := make([]rune, count)
	for i := range result {
		result[i] = char
	}
	return string(result)
}
