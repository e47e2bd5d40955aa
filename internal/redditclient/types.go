package redditclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Error variables
var (
	ErrNotAuthenticated     = errors.New("client is not authenticated - call Authenticate() first")
	ErrInvalidSubmissionURL = errors.New("not a reddit submission url")
	ErrUnauthorized         = errors.New("reddit rejected the credentials")
	ErrSubmissionNotFound   = errors.New("submission not found")
	ErrRateLimited          = errors.New("reddit rate limit exceeded")
	ErrContentPrivate       = errors.New("content is private and cannot be accessed")
	ErrMalformedResponse    = errors.New("malformed reddit response")
)

// APIError is returned for any non-200 API response.
type APIError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API request failed with status %d: %s", e.StatusCode, e.Body)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPClient interface for dependency injection
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client talks to the Reddit OAuth API.
type Client struct {
	httpClient   HTTPClient
	logger       *slog.Logger
	authURL      string
	apiURL       string
	clientID     string
	clientSecret string

	authenticated bool
	accessToken   string
	expiresAt     time.Time
	loid          string
	session       string
	deviceID      string
	userAgent     string

	limiter        *rate.Limiter
	baseLimit      rate.Limit
	rateLimitLock  sync.RWMutex
	rateLimit      int
	gzipReaderPool sync.Pool
}

// Scopes accepts both the array form returned by the loid endpoint and the
// space separated string returned by /api/v1/access_token.
type Scopes []string

func (s *Scopes) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = list
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("scope is neither a string nor a list: %w", err)
	}
	*s = splitScopes(single)
	return nil
}

// OAuth response structures
type OAuthResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
	Scope       Scopes `json:"scope"`
}

// Thing is the generic kind/data envelope Reddit wraps every object in.
type Thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// Listing is a page of things.
type Listing struct {
	Kind string `json:"kind"`
	Data struct {
		Children []Thing `json:"children"`
		After    *string `json:"after"`
		Before   *string `json:"before"`
	} `json:"data"`
}

// Post is a submission (t3)
type Post struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	Subreddit   string  `json:"subreddit"`
	Score       int     `json:"score"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	SelfText    string  `json:"selftext"`
	NumComments int     `json:"num_comments"`
	Created     float64 `json:"created_utc"`
}

// Comment represents a Reddit comment (t1)
type Comment struct {
	ID       string          `json:"id"`
	Author   string          `json:"author"`
	Body     string          `json:"body"`
	Score    int             `json:"score"`
	Created  float64         `json:"created_utc"`
	ParentID string          `json:"parent_id"`
	Replies  json.RawMessage `json:"replies"` // Can be empty string "" or a Listing
}

// MoreComments represents a "more comments" placeholder (more)
type MoreComments struct {
	Count    int      `json:"count"`
	ID       string   `json:"id"`
	ParentID string   `json:"parent_id"`
	Children []string `json:"children"`
}

// PostAndCommentsResponse represents the two-element array returned by Reddit
// Element 0: Post listing (contains the post)
// Element 1: Comment listing (contains comments)
type PostAndCommentsResponse [2]Listing

// Submission is the text of one post plus its immediately available
// top-level comments.
type Submission struct {
	ID       string
	Title    string
	Body     string
	Comments []string
}

type ErrorResponse struct {
	Reason  string `json:"reason"`
	Message string `json:"message"`
}
