package redditclient

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

var submissionIDPattern = regexp.MustCompile(`^[0-9a-zA-Z]{1,13}$`)

// ParseSubmissionURL extracts the base-36 submission id from a reddit.com
// comments permalink, a gallery link, a bare reddit.com/<id> link or a redd.it
// short link.
func ParseSubmissionURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("%w: empty url", ErrInvalidSubmissionURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSubmissionURL, err)
	}

	host := strings.ToLower(u.Hostname())
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch {
	case host == "redd.it":
		if len(segments) == 1 && submissionIDPattern.MatchString(segments[0]) {
			return strings.ToLower(segments[0]), nil
		}
	case host == "reddit.com" || strings.HasSuffix(host, ".reddit.com"):
		for i, segment := range segments {
			if (segment == "comments" || segment == "gallery") && i+1 < len(segments) && submissionIDPattern.MatchString(segments[i+1]) {
				return strings.ToLower(segments[i+1]), nil
			}
		}
		if len(segments) == 1 && segments[0] != "r" && submissionIDPattern.MatchString(segments[0]) {
			return strings.ToLower(segments[0]), nil
		}
	}

	return "", fmt.Errorf("%w: %q", ErrInvalidSubmissionURL, raw)
}
