package redditclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
)

// GetComments fetches post and top-level comments with optional sorting
// sort can be: confidence, top, new, controversial, old, qa
func (c *Client) GetComments(ctx context.Context, submissionID, sort string) (*PostAndCommentsResponse, error) {
	if !c.authenticated {
		return nil, ErrNotAuthenticated
	}

	endpoint := fmt.Sprintf("/comments/%s.json", submissionID)

	params := url.Values{}
	params.Set("depth", "1")
	if sort != "" {
		params.Set("sort", sort)
	}

	body, err := c.makeAPIRequest(ctx, endpoint, params)
	if err != nil {
		return nil, fmt.Errorf("error making GetComments API request: %w", err)
	}

	var response PostAndCommentsResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: failed to decode post and comments: %v", ErrMalformedResponse, err)
	}

	return &response, nil
}

// Post returns the submission held in the first listing.
func (r *PostAndCommentsResponse) Post() (*Post, error) {
	for _, child := range r[0].Data.Children {
		if child.Kind != "t3" {
			continue
		}
		var post Post
		if err := json.Unmarshal(child.Data, &post); err != nil {
			return nil, fmt.Errorf("%w: failed to decode post: %v", ErrMalformedResponse, err)
		}
		return &post, nil
	}
	return nil, fmt.Errorf("%w: response has no post", ErrMalformedResponse)
}

// TopLevelComments returns the t1 children of the comment listing in the
// order Reddit sent them. "more" placeholders are skipped, so only comments
// that are immediately available are returned.
func (r *PostAndCommentsResponse) TopLevelComments() ([]Comment, error) {
	comments := make([]Comment, 0, len(r[1].Data.Children))
	for _, child := range r[1].Data.Children {
		if child.Kind != "t1" {
			continue
		}
		var comment Comment
		if err := json.Unmarshal(child.Data, &comment); err != nil {
			return nil, fmt.Errorf("%w: failed to decode comment: %v", ErrMalformedResponse, err)
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// FetchSubmission resolves a submission URL and returns its title, body and
// top-level comment bodies. The client authenticates on first use.
func (c *Client) FetchSubmission(ctx context.Context, rawURL string) (*Submission, error) {
	submissionID, err := ParseSubmissionURL(rawURL)
	if err != nil {
		return nil, err
	}

	if err := c.ensureAuthenticated(ctx); err != nil {
		return nil, err
	}

	response, err := c.GetComments(ctx, submissionID, "")
	if err != nil {
		return nil, err
	}

	post, err := response.Post()
	if err != nil {
		return nil, err
	}

	comments, err := response.TopLevelComments()
	if err != nil {
		return nil, err
	}

	bodies := make([]string, 0, len(comments))
	for _, comment := range comments {
		bodies = append(bodies, comment.Body)
	}

	c.logger.Debug("fetched submission",
		"id", submissionID,
		"subreddit", post.Subreddit,
		"comments", len(bodies),
	)

	return &Submission{
		ID:       submissionID,
		Title:    post.Title,
		Body:     post.SelfText,
		Comments: bodies,
	}, nil
}
