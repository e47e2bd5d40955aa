package redditclient

import "time"

const (
	ANDROID_CLIENT_ID             = "ohXpoqrZYub1kg"
	CONTENT_WARNING_ACCEPT_COOKIE = "_options=%7B%22pref_quarantine_optin%22%3A%20true%2C%20%22pref_gated_sr_optin%22%3A%20true%7D"

	DefaultAuthURL   = "https://www.reddit.com"
	DefaultAPIURL    = "https://oauth.reddit.com"
	DefaultUserAgent = "redditsentiment/1.0"

	loidTokenPath        = "/auth/v2/oauth/access-token/loid"
	applicationTokenPath = "/api/v1/access_token"

	// DefaultRequestsPerMinute matches Reddit's published OAuth allowance.
	DefaultRequestsPerMinute = 60
	defaultBurst             = 5
	lowRateLimitThreshold    = 10

	// Tokens are refreshed this long before they actually expire.
	tokenExpiryLeeway = 30 * time.Second

	defaultHTTPTimeout = 30 * time.Second
)

// Android app versions for User-Agent spoofing
var androidVersions = []string{
	"Reddit/2023.46.0/Android 12",
	"Reddit/2023.45.0/Android 11",
	"Reddit/2023.44.0/Android 13",
	"Reddit/2023.43.0/Android 12",
	"Reddit/2023.42.0/Android 11",
}
