// Package report writes sentiment records to CSV and to the terminal.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/Koshroy/redditsentiment/internal/sentiment"
)

// DefaultOutputPath is used when no output file is given.
const DefaultOutputPath = "sentiment_analysis.csv"

// TimestampLayout is the timestamp format of the CSV and console output.
const TimestampLayout = "2006-01-02 15:04:05"

// Header is the fixed column order of the CSV file.
var Header = []string{"url", "title", "article_sentiment", "comment_sentiment", "overall_sentiment", "timestamp"}

// WriteCSV writes the header followed by one row per record.
func WriteCSV(w io.Writer, records []sentiment.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(row(r)); err != nil {
			return fmt.Errorf("writing row for %s: %w", r.URL, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the records to path. The file is replaced atomically so
// a failed run never leaves a half written table behind.
func WriteCSVFile(path string, records []sentiment.Record) (err error) {
	if path == "" {
		path = DefaultOutputPath
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err = WriteCSV(tmp, records); err != nil {
		return err
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err = os.Chmod(tmp.Name(), outputMode(path)); err != nil {
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}

// outputMode keeps the permissions of an existing output file.
func outputMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return info.Mode().Perm()
	}
	return 0o644
}

func row(r sentiment.Record) []string {
	return []string{
		r.URL,
		r.Title,
		formatScore(r.ArticleSentiment),
		formatScore(r.CommentSentiment),
		formatScore(r.OverallSentiment),
		r.Timestamp.Format(TimestampLayout),
	}
}

func formatScore(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
