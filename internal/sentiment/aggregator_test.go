package sentiment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) Fetch(ctx context.Context, url string) (*Submission, error) {
	args := m.Called(ctx, url)
	submission, _ := args.Get(0).(*Submission)
	return submission, args.Error(1)
}

type MockScorer struct {
	mock.Mock
}

func (m *MockScorer) Score(ctx context.Context, text string) (float64, error) {
	args := m.Called(ctx, text)
	return args.Get(0).(float64), args.Error(1)
}

type recordingSink struct {
	failures []*FetchError
}

func (s *recordingSink) ReportFailure(_ context.Context, err *FetchError) {
	s.failures = append(s.failures, err)
}

// scoreFunc adapts a plain function to Scorer.
type scoreFunc func(text string) float64

func (f scoreFunc) Score(_ context.Context, text string) (float64, error) {
	return f(text), nil
}

// mapFetcher serves canned submissions and fails for unknown URLs.
type mapFetcher map[string]*Submission

func (f mapFetcher) Fetch(_ context.Context, url string) (*Submission, error) {
	if s, ok := f[url]; ok {
		return s, nil
	}
	return nil, fmt.Errorf("no such submission: %s", url)
}

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 123456789, time.UTC)

func fixedClock() time.Time { return fixedNow }

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestProcessURLs_Scenario(t *testing.T) {
	fetcher := &MockFetcher{}
	scorer := &MockScorer{}
	url := "https://reddit.com/r/test/abc"

	fetcher.On("Fetch", mock.Anything, url).Return(&Submission{
		Title:    "Great news",
		Body:     "",
		Comments: []string{"love it", "terrible"},
	}, nil)
	scorer.On("Score", mock.Anything, "Great news ").Return(0.8, nil).Once()
	scorer.On("Score", mock.Anything, "love it").Return(0.6, nil).Once()
	scorer.On("Score", mock.Anything, "terrible").Return(-0.7, nil).Once()

	agg := NewAggregator(fetcher, scorer, WithClock(fixedClock), WithLogger(quietLogger()))
	records := agg.ProcessURLs(t.Context(), []string{url})

	require.Len(t, records, 1)
	r := records[0]
	assert.Equal(t, url, r.URL)
	assert.Equal(t, "Great news", r.Title)
	assert.InDelta(t, 0.8, r.ArticleSentiment, 1e-9)
	assert.InDelta(t, -0.05, r.CommentSentiment, 1e-9)
	assert.InDelta(t, 0.375, r.OverallSentiment, 1e-9)
	assert.Equal(t, fixedNow.Truncate(time.Second), r.Timestamp)
	fetcher.AssertExpectations(t)
	scorer.AssertExpectations(t)
}

func TestProcessURLs_Empty(t *testing.T) {
	fetcher := &MockFetcher{}
	scorer := &MockScorer{}
	agg := NewAggregator(fetcher, scorer)

	records := agg.ProcessURLs(t.Context(), nil)

	assert.NotNil(t, records)
	assert.Empty(t, records)
	fetcher.AssertNotCalled(t, "Fetch", mock.Anything, mock.Anything)
}

func TestProcessURLs_ZeroCommentsDefault(t *testing.T) {
	fetcher := &MockFetcher{}
	scorer := &MockScorer{}

	fetcher.On("Fetch", mock.Anything, "u").Return(&Submission{Title: "Title", Body: "Body"}, nil)
	scorer.On("Score", mock.Anything, "Title Body").Return(-0.6, nil).Once()

	agg := NewAggregator(fetcher, scorer, WithLogger(quietLogger()))
	records := agg.ProcessURLs(t.Context(), []string{"u"})

	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].CommentSentiment)
	assert.Equal(t, records[0].ArticleSentiment/2, records[0].OverallSentiment)
	scorer.AssertNumberOfCalls(t, "Score", 1)
}

func TestProcessURLs_FaultIsolation(t *testing.T) {
	fetcher := &MockFetcher{}
	sink := &recordingSink{}
	fetchErr := errors.New("404 not found")

	fetcher.On("Fetch", mock.Anything, "A").Return(&Submission{Title: "a"}, nil)
	fetcher.On("Fetch", mock.Anything, "B").Return(nil, fetchErr)
	fetcher.On("Fetch", mock.Anything, "C").Return(&Submission{Title: "c"}, nil)

	agg := NewAggregator(fetcher, scoreFunc(func(string) float64 { return 0.1 }), WithFailureSink(sink))
	records := agg.ProcessURLs(t.Context(), []string{"A", "B", "C"})

	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].URL)
	assert.Equal(t, "C", records[1].URL)

	require.Len(t, sink.failures, 1)
	assert.Equal(t, "B", sink.failures[0].URL)
	assert.ErrorIs(t, sink.failures[0], fetchErr)
	fetcher.AssertExpectations(t)
}

func TestProcessURLs_CommentCap(t *testing.T) {
	fetcher := &MockFetcher{}
	scorer := &MockScorer{}

	comments := make([]string, 35)
	for i := range comments {
		comments[i] = fmt.Sprintf("comment %d", i)
	}
	fetcher.On("Fetch", mock.Anything, "u").Return(&Submission{Title: "t", Body: "b", Comments: comments}, nil)
	scorer.On("Score", mock.Anything, "t b").Return(0.0, nil).Once()
	for i, c := range comments[:MaxComments] {
		scorer.On("Score", mock.Anything, c).Return(float64(i)/100, nil).Once()
	}

	agg := NewAggregator(fetcher, scorer, WithLogger(quietLogger()))
	records := agg.ProcessURLs(t.Context(), []string{"u"})

	require.Len(t, records, 1)
	scorer.AssertNumberOfCalls(t, "Score", 1+MaxComments)
	for _, c := range comments[MaxComments:] {
		scorer.AssertNotCalled(t, "Score", mock.Anything, c)
	}
	// mean of 0.00 .. 0.19
	assert.InDelta(t, 0.095, records[0].CommentSentiment, 1e-9)
}

func TestProcessURLs_CustomCommentLimit(t *testing.T) {
	calls := 0
	scorer := scoreFunc(func(string) float64 {
		calls++
		return 0.5
	})
	fetcher := mapFetcher{"u": {Title: "t", Comments: []string{"1", "2", "3", "4"}}}

	agg := NewAggregator(fetcher, scorer, WithCommentLimit(2), WithLogger(quietLogger()))
	records := agg.ProcessURLs(t.Context(), []string{"u"})

	require.Len(t, records, 1)
	assert.Equal(t, 3, calls)

	calls = 0
	agg = NewAggregator(fetcher, scorer, WithCommentLimit(-5), WithLogger(quietLogger()))
	records = agg.ProcessURLs(t.Context(), []string{"u"})

	require.Len(t, records, 1)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 0.0, records[0].CommentSentiment)
}

func TestProcessURLs_ScorerErrorSkipsURL(t *testing.T) {
	fetcher := &MockFetcher{}
	scorer := &MockScorer{}
	sink := &recordingSink{}
	scoreErr := errors.New("scorer unavailable")

	fetcher.On("Fetch", mock.Anything, "bad").Return(&Submission{Title: "x", Comments: []string{"boom"}}, nil)
	fetcher.On("Fetch", mock.Anything, "good").Return(&Submission{Title: "y"}, nil)
	scorer.On("Score", mock.Anything, "x ").Return(0.2, nil)
	scorer.On("Score", mock.Anything, "boom").Return(0.0, scoreErr)
	scorer.On("Score", mock.Anything, "y ").Return(0.4, nil)

	agg := NewAggregator(fetcher, scorer, WithFailureSink(sink))
	records := agg.ProcessURLs(t.Context(), []string{"bad", "good"})

	require.Len(t, records, 1)
	assert.Equal(t, "good", records[0].URL)
	require.Len(t, sink.failures, 1)
	assert.ErrorIs(t, sink.failures[0], scoreErr)
}

func TestProcessURLs_NilSubmission(t *testing.T) {
	fetcher := &MockFetcher{}
	sink := &recordingSink{}
	fetcher.On("Fetch", mock.Anything, "u").Return(nil, nil)

	agg := NewAggregator(fetcher, scoreFunc(func(string) float64 { return 0 }), WithFailureSink(sink))
	records := agg.ProcessURLs(t.Context(), []string{"u"})

	assert.Empty(t, records)
	require.Len(t, sink.failures, 1)
	assert.ErrorIs(t, sink.failures[0], ErrNoSubmission)
}

func TestProcessURLs_CancelledContext(t *testing.T) {
	fetcher := &MockFetcher{}
	sink := &recordingSink{}
	ctx, cancel := context.WithCancel(t.Context())

	fetcher.On("Fetch", mock.Anything, "first").Run(func(mock.Arguments) {
		cancel()
	}).Return(&Submission{Title: "ok"}, nil)

	agg := NewAggregator(fetcher, scoreFunc(func(string) float64 { return 0.3 }), WithFailureSink(sink))
	results := agg.Process(ctx, []string{"first", "second", "third"})

	require.Len(t, results, 3)
	assert.True(t, results[0].OK())
	assert.False(t, results[1].OK())
	assert.False(t, results[2].OK())
	assert.ErrorIs(t, results[1].Err, context.Canceled)
	assert.Len(t, sink.failures, 2)
	fetcher.AssertNumberOfCalls(t, "Fetch", 1)
}

func TestProcessURLs_Properties(t *testing.T) {
	// Scores deliberately escape [-1, 1] to exercise clamping.
	scorer := scoreFunc(func(text string) float64 {
		return float64(len(text)%7)*0.6 - 1.8
	})
	fetcher := mapFetcher{}
	var urls []string
	for i := 0; i < 25; i++ {
		url := fmt.Sprintf("https://reddit.com/comments/%d", i)
		urls = append(urls, url)
		if i%3 == 1 {
			continue // unknown to the fetcher, fails
		}
		comments := make([]string, i)
		for j := range comments {
			comments[j] = strings.Repeat("x", i+j)
		}
		fetcher[url] = &Submission{Title: strings.Repeat("t", i), Body: "body", Comments: comments}
	}
	// Duplicates are kept, not merged.
	urls = append(urls, urls[0])

	agg := NewAggregator(fetcher, scorer, WithLogger(quietLogger()))
	records := agg.ProcessURLs(t.Context(), urls)

	assert.LessOrEqual(t, len(records), len(urls))
	assert.Len(t, records, 18)

	pos := 0
	for _, r := range records {
		// order follows the input
		for pos < len(urls) && urls[pos] != r.URL {
			pos++
		}
		require.Less(t, pos, len(urls), "record %s out of input order", r.URL)
		pos++

		for _, v := range []float64{r.ArticleSentiment, r.CommentSentiment, r.OverallSentiment} {
			assert.GreaterOrEqual(t, v, -1.0)
			assert.LessOrEqual(t, v, 1.0)
		}
		assert.InDelta(t, (r.ArticleSentiment+r.CommentSentiment)/2, r.OverallSentiment, 1e-9)
	}
	assert.Equal(t, urls[0], records[len(records)-1].URL)
}

func TestProcessURLs_NaNScoreIsNeutral(t *testing.T) {
	fetcher := mapFetcher{"u": {Title: "t", Comments: []string{"c"}}}
	agg := NewAggregator(fetcher, scoreFunc(func(string) float64 { return math.NaN() }), WithLogger(quietLogger()))

	records := agg.ProcessURLs(t.Context(), []string{"u"})

	require.Len(t, records, 1)
	assert.Equal(t, 0.0, records[0].OverallSentiment)
}

func TestProcessURL_ReturnsFetchError(t *testing.T) {
	agg := NewAggregator(mapFetcher{}, scoreFunc(func(string) float64 { return 0 }))

	record, err := agg.ProcessURL(t.Context(), "missing")

	assert.Nil(t, record)
	var fetchErr *FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "missing", fetchErr.URL)
	assert.Contains(t, err.Error(), "processing missing")
}

func TestProcessURL_Success(t *testing.T) {
	agg := NewAggregator(mapFetcher{"u": {Title: "t"}}, scoreFunc(func(string) float64 { return 0.5 }), WithLogger(quietLogger()))

	record, err := agg.ProcessURL(t.Context(), "u")

	require.NoError(t, err)
	assert.Equal(t, 0.25, record.OverallSentiment)
}

func TestLogSink_ReportFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	agg := NewAggregator(mapFetcher{}, scoreFunc(func(string) float64 { return 0 }), WithLogger(logger))

	records := agg.ProcessURLs(t.Context(), []string{"https://reddit.com/comments/gone"})

	assert.Empty(t, records)
	out := buf.String()
	assert.Contains(t, out, "level=ERROR")
	assert.Contains(t, out, "url=https://reddit.com/comments/gone")
	assert.Contains(t, out, "no such submission")
}

func TestSummarize(t *testing.T) {
	results := []Result{
		{URL: "a", Record: &Record{URL: "a"}},
		{URL: "b", Err: &FetchError{URL: "b", Err: errors.New("x")}},
		{URL: "c", Record: &Record{URL: "c"}},
	}

	assert.Equal(t, Summary{Total: 3, Succeeded: 2, Failed: 1}, Summarize(results))
	assert.Equal(t, []Record{{URL: "a"}, {URL: "c"}}, Records(results))
	assert.Equal(t, Summary{}, Summarize(nil))
}

func TestClamp(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		want float64
	}{
		{"inside", 0.25, 0.25},
		{"upper edge", 1, 1},
		{"lower edge", -1, -1},
		{"above", 1.7, 1},
		{"below", -3, -1},
		{"nan", math.NaN(), 0},
		{"positive infinity", math.Inf(1), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clamp(tt.in))
		})
	}
}
