// Package sentiment turns submission URLs into per-submission sentiment records.
package sentiment

import (
	"context"
	"log/slog"
	"time"
)

// FailureSink receives every URL that could not be processed.
type FailureSink interface {
	ReportFailure(ctx context.Context, err *FetchError)
}

// LogSink reports failures through a slog logger.
type LogSink struct {
	Logger *slog.Logger
}

// ReportFailure logs the failed URL at error level.
func (s LogSink) ReportFailure(ctx context.Context, err *FetchError) {
	s.Logger.ErrorContext(ctx, "error processing url", "url", err.URL, "error", err.Err)
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithFailureSink replaces the default log sink.
func WithFailureSink(sink FailureSink) Option {
	return func(a *Aggregator) {
		a.sink = sink
	}
}

// WithLogger sets the logger for the default sink and debug output.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithCommentLimit changes how many comments are scored. Values below 0 are
// treated as 0.
func WithCommentLimit(n int) Option {
	return func(a *Aggregator) {
		a.commentLimit = max(n, 0)
	}
}

// Aggregator scores submissions one URL at a time.
type Aggregator struct {
	fetcher      Fetcher
	scorer       Scorer
	sink         FailureSink
	logger       *slog.Logger
	now          func() time.Time
	commentLimit int
}

// NewAggregator returns an aggregator that scores at most MaxComments comments
// per submission and logs failures through slog.Default unless options say otherwise.
func NewAggregator(fetcher Fetcher, scorer Scorer, opts ...Option) *Aggregator {
	a := &Aggregator{
		fetcher:      fetcher,
		scorer:       scorer,
		logger:       slog.Default(),
		now:          time.Now,
		commentLimit: MaxComments,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.sink == nil {
		a.sink = LogSink{Logger: a.logger}
	}
	return a
}

// ProcessURLs returns one record per URL that could be fetched and scored, in
// input order. Failed URLs are reported to the sink and left out.
func (a *Aggregator) ProcessURLs(ctx context.Context, urls []string) []Record {
	return Records(a.Process(ctx, urls))
}

// Process returns the outcome of every URL in input order.
func (a *Aggregator) Process(ctx context.Context, urls []string) []Result {
	results := make([]Result, 0, len(urls))
	for _, url := range urls {
		record, err := a.process(ctx, url)
		if err != nil {
			a.sink.ReportFailure(ctx, err)
			results = append(results, Result{URL: url, Err: err})
			continue
		}
		results = append(results, Result{URL: url, Record: record})
	}
	return results
}

// ProcessURL fetches and scores a single submission. A non-nil error is
// always a *FetchError. Unlike Process, the failure is not sent to the sink.
func (a *Aggregator) ProcessURL(ctx context.Context, url string) (*Record, error) {
	record, err := a.process(ctx, url)
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (a *Aggregator) process(ctx context.Context, url string) (*Record, *FetchError) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	submission, err := a.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}
	if submission == nil {
		return nil, &FetchError{URL: url, Err: ErrNoSubmission}
	}

	article, err := a.score(ctx, submission.Title+" "+submission.Body)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	comments, err := a.averageComments(ctx, submission.Comments)
	if err != nil {
		return nil, &FetchError{URL: url, Err: err}
	}

	overall := (article + comments) / 2

	a.logger.DebugContext(ctx, "scored submission",
		"url", url,
		"comments", min(len(submission.Comments), a.commentLimit),
		"overall", overall,
	)

	return &Record{
		URL:              url,
		Title:            submission.Title,
		ArticleSentiment: article,
		CommentSentiment: comments,
		OverallSentiment: overall,
		Timestamp:        a.now().Truncate(time.Second),
	}, nil
}

// averageComments scores at most commentLimit comments. No comments means a
// sentiment of exactly 0.
func (a *Aggregator) averageComments(ctx context.Context, comments []string) (float64, error) {
	if len(comments) > a.commentLimit {
		comments = comments[:a.commentLimit]
	}
	if len(comments) == 0 {
		return 0, nil
	}

	var sum float64
	for _, body := range comments {
		score, err := a.score(ctx, body)
		if err != nil {
			return 0, err
		}
		sum += score
	}
	return sum / float64(len(comments)), nil
}

func (a *Aggregator) score(ctx context.Context, text string) (float64, error) {
	score, err := a.scorer.Score(ctx, text)
	if err != nil {
		return 0, err
	}
	return Clamp(score), nil
}
