package cli

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/Koshroy/redditsentiment/internal/config"
	"github.com/Koshroy/redditsentiment/internal/polarity"
	"github.com/Koshroy/redditsentiment/internal/redditclient"
	"github.com/Koshroy/redditsentiment/internal/sentiment"
)

// Constructors for the external collaborators. Tests replace them with fakes.
var (
	newFetcher = newRedditFetcher
	newScorer  = newPolarityScorer
)

func newRedditFetcher(cfg *config.Config, log *slog.Logger) (sentiment.Fetcher, error) {
	opts := []redditclient.Option{
		redditclient.WithLogger(log),
		redditclient.WithRateLimiter(redditclient.NewRateLimiter(cfg.Reddit.RequestsPerMinute)),
	}
	if cfg.Reddit.ClientID != "" {
		opts = append(opts, redditclient.WithCredentials(cfg.Reddit.ClientID, cfg.Reddit.ClientSecret))
	}
	if cfg.Reddit.UserAgent != "" {
		opts = append(opts, redditclient.WithUserAgent(cfg.Reddit.UserAgent))
	}

	client, err := redditclient.NewClient(&http.Client{Timeout: cfg.HTTP.Timeout}, opts...)
	if err != nil {
		return nil, err
	}
	return &redditFetcher{client: client}, nil
}

func newPolarityScorer(cfg *config.Config) (sentiment.Scorer, error) {
	return polarity.New(polarity.Config{
		Backend:      cfg.Scorer.Backend,
		OpenAIAPIKey: cfg.OpenAI.APIKey,
		OpenAIModel:  cfg.OpenAI.Model,
	})
}

type submissionFetcher interface {
	FetchSubmission(ctx context.Context, rawURL string) (*redditclient.Submission, error)
}

// redditFetcher adapts the Reddit client to the aggregator.
type redditFetcher struct {
	client submissionFetcher
}

func (f *redditFetcher) Fetch(ctx context.Context, url string) (*sentiment.Submission, error) {
	sub, err := f.client.FetchSubmission(ctx, url)
	if err != nil {
		return nil, err
	}
	return &sentiment.Submission{
		Title:    sub.Title,
		Body:     sub.Body,
		Comments: sub.Comments,
	}, nil
}
