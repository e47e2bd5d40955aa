package sentiment

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrNoSubmission is reported when a fetcher returns neither a submission nor an error.
var ErrNoSubmission = errors.New("fetcher returned no submission")

// MaxComments is how many top-level comments are scored per submission.
const MaxComments = 20

// Record is the sentiment of one submission. It is built in full once the
// submission has been scored and never changes afterwards.
type Record struct {
	URL              string
	Title            string
	ArticleSentiment float64
	CommentSentiment float64
	OverallSentiment float64
	Timestamp        time.Time
}

// Submission is what a Fetcher returns for a URL.
type Submission struct {
	Title    string
	Body     string
	Comments []string
}

// Fetcher retrieves a submission's text. Comments are top-level only, in the
// fetcher's natural order, with "load more" placeholders left out.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*Submission, error)
}

// Scorer returns a polarity in [-1, 1].
type Scorer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// FetchError is the single failure kind reported for a URL. Fetch, decode and
// scoring problems all end up here.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("processing %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Result is the outcome for one URL: either Record or Err is set.
type Result struct {
	URL    string
	Record *Record
	Err    *FetchError
}

// OK reports whether a record was produced.
func (r Result) OK() bool {
	return r.Err == nil
}

// Summary counts outcomes of a batch.
type Summary struct {
	Total     int
	Succeeded int
	Failed    int
}

// Summarize counts how many results succeeded and failed.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results)}
	for _, r := range results {
		if r.OK() {
			s.Succeeded++
		} else {
			s.Failed++
		}
	}
	return s
}

// Records keeps the successful outcomes, in order.
func Records(results []Result) []Record {
	records := make([]Record, 0, len(results))
	for _, r := range results {
		if r.OK() {
			records = append(records, *r.Record)
		}
	}
	return records
}

// Clamp forces a score into [-1, 1]. NaN becomes 0.
func Clamp(v float64) float64 {
	switch {
	case math.IsNaN(v):
		return 0
	case v > 1:
		return 1
	case v < -1:
		return -1
	default:
		return v
	}
}
