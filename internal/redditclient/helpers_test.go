package redditclient

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// MockHTTPClient for testing
type MockHTTPClient struct {
	mock.Mock
}

func (m *MockHTTPClient) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)
	return args.Get(0).(*http.Response), args.Error(1)
}

// Helper function to create HTTP response
func createHTTPResponse(statusCode int, body string, headers map[string]string) *http.Response {
	resp := &http.Response{
		StatusCode: statusCode,
		Body:       io.NopCloser(strings.NewReader(body)),
		Header:     make(http.Header),
	}

	for k, v := range headers {
		resp.Header.Set(k, v)
	}

	return resp
}

// newAuthenticatedClient returns a client that skips the token exchange and
// never waits on the pacer.
func newAuthenticatedClient(t *testing.T, mockHTTP *MockHTTPClient, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{WithRateLimiter(rate.NewLimiter(rate.Inf, 1))}, opts...)
	client, err := NewClient(mockHTTP, opts...)
	require.NoError(t, err)
	client.accessToken = "test-token"
	client.authenticated = true
	return client
}

// commentsPayload builds the two-listing body of /comments/<id>.json.
func commentsPayload(t *testing.T, title, selftext string, comments ...string) string {
	t.Helper()

	children := make([]interface{}, 0, len(comments)+1)
	for i, body := range comments {
		children = append(children, map[string]interface{}{
			"kind": "t1",
			"data": map[string]interface{}{
				"id":        "c" + string(rune('a'+i%26)),
				"author":    "commenter",
				"body":      body,
				"score":     i,
				"parent_id": "t3_abc123",
				"replies":   "",
			},
		})
	}
	children = append(children, map[string]interface{}{
		"kind": "more",
		"data": map[string]interface{}{
			"count":     10,
			"id":        "more123",
			"parent_id": "t3_abc123",
			"children":  []string{"child1", "child2"},
		},
	})

	payload := [2]interface{}{
		map[string]interface{}{
			"kind": "Listing",
			"data": map[string]interface{}{
				"children": []interface{}{
					map[string]interface{}{
						"kind": "t3",
						"data": map[string]interface{}{
							"id":           "abc123",
							"name":         "t3_abc123",
							"title":        title,
							"author":       "postauthor",
							"subreddit":    "golang",
							"selftext":     selftext,
							"score":        42,
							"num_comments": len(comments),
						},
					},
				},
			},
		},
		map[string]interface{}{
			"kind": "Listing",
			"data": map[string]interface{}{
				"children": children,
			},
		},
	}

	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return string(body)
}
