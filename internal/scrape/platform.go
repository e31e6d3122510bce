// Package scrape fetches artist-facing pages directly over HTTP, detects
// anti-bot walls, and falls back to hosted scraping actors for surfaces that
// block plain fetches.
package scrape

import (
	"net/url"
	"strings"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
)

// NormalizeHandle strips the leading @, surrounding whitespace, and any full
// profile URL pasted into a handle field.
func NormalizeHandle(handle string) string {
	h := strings.TrimSpace(handle)
	if u, err := url.Parse(h); err == nil && u.Host != "" {
		h = strings.Trim(u.Path, "/")
		// Keep only the first path segment; profile URLs sometimes carry
		// trailing /about or /featured.
		if i := strings.Index(h, "/"); i >= 0 {
			h = h[:i]
		}
	}
	return strings.TrimPrefix(h, "@")
}

// YouTubeAboutURL builds the channel about-page URL for a handle.
func YouTubeAboutURL(handle string) string {
	h := NormalizeHandle(handle)
	if h == "" {
		return ""
	}
	return "https://www.youtube.com/@" + url.PathEscape(h) + "/about"
}

// InstagramProfileURL builds the profile URL for a username.
func InstagramProfileURL(handle string) string {
	h := NormalizeHandle(handle)
	if h == "" {
		return ""
	}
	return "https://www.instagram.com/" + url.PathEscape(h) + "/"
}

// LinktreeURL builds the linktr.ee page URL for a handle.
func LinktreeURL(handle string) string {
	h := NormalizeHandle(handle)
	if h == "" {
		return ""
	}
	return "https://linktr.ee/" + url.PathEscape(h)
}

// CandidateURL derives the page worth scraping for a platform from whatever
// the artist record already carries. Empty means the platform has nothing to
// work with.
func CandidateURL(a *model.Artist, p model.Platform) string {
	switch p {
	case model.PlatformYouTube:
		return YouTubeAboutURL(a.YouTubeHandle)
	case model.PlatformInstagram:
		return InstagramProfileURL(a.InstagramHandle)
	case model.PlatformLinktree:
		if a.LinktreeURL != "" {
			return a.LinktreeURL
		}
		return ""
	case model.PlatformWebsite:
		return NormalizeWebsiteURL(a.WebsiteURL)
	case model.PlatformFacebook:
		return a.FacebookURL
	default:
		return ""
	}
}

// NormalizeWebsiteURL ensures a scheme and strips fragments. Returns empty
// for unparseable input.
func NormalizeWebsiteURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return ""
	}
	u.Fragment = ""
	return u.String()
}

// ContactPaths are the site paths seeded into a website crawl, ordered by
// how often artist sites put an email on them.
var ContactPaths = []string{"/contact", "/booking", "/about", "/press", "/contact-us"}

// SeedURLs expands a website root into the root plus its contact paths.
func SeedURLs(root string) []string {
	root = NormalizeWebsiteURL(root)
	if root == "" {
		return nil
	}
	base := strings.TrimRight(root, "/")
	urls := []string{root}
	for _, p := range ContactPaths {
		urls = append(urls, base+p)
	}
	return urls
}
