package scrape

import (
	"strings"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
)

// minContentLength is the shortest markup that could plausibly be a real
// page. Anything shorter is a JS shell or an error interstitial.
const minContentLength = 200

// Per-platform markers that co-occur with login walls, consent redirects,
// and bot checks. Matching is case-insensitive; any hit means blocked.
// Deliberately conservative: a false positive only costs an actor run, a
// false negative silently yields an empty extraction.
var blockMarkers = map[model.Platform][]string{
	model.PlatformYouTube: {
		"sign in to confirm",
		"before you continue to youtube",
		"consent.youtube.com",
		"uses cookies and data",
	},
	model.PlatformInstagram: {
		"login • instagram",
		"log in to instagram",
		"page couldn't load",
		"/accounts/login",
		"javascript is required",
	},
	model.PlatformFacebook: {
		"log in to facebook",
		"you must log in to continue",
		"login.php",
	},
	model.PlatformLinktree: {
		"verifying you are human",
		"enable javascript and cookies",
	},
}

// Markers checked for every platform.
var genericMarkers = []string{
	"checking your browser",
	"captcha",
	"access denied",
	"requires javascript",
	"please enable javascript",
	"cf-browser-verification",
}

// IsBlocked reports whether fetched markup is a block page rather than real
// content for the given platform.
func IsBlocked(markup string, platform model.Platform) bool {
	if len(markup) < minContentLength {
		return true
	}

	lower := strings.ToLower(markup)
	for _, m := range genericMarkers {
		if strings.Contains(lower, m) {
			return true
		}
	}
	for _, m := range blockMarkers[platform] {
		if strings.Contains(lower, m) {
			return true
		}
	}

	return false
}
