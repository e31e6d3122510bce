// Package enrich runs the contact discovery pipeline: an ordered list of
// platform strategies, each producing candidate emails that pass through the
// quality gate before one winner is chosen.
package enrich

import (
	"context"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
	"github.com/xpanddigital/cratehq-enrich/internal/scrape"
)

// Strategy tags, in pipeline order.
const (
	TagURLDiscovery  = "url_discovery"
	TagYouTubeAbout  = "youtube_about"
	TagInstagramBio  = "instagram_bio"
	TagLinktree      = "linktree"
	TagWebsite       = "website"
	TagFacebookAbout = "facebook_about"
	TagOtherSocials  = "other_socials"
)

// Per-strategy candidate confidences. A field someone labeled "business
// email" beats a mailto link, which beats an address scanned out of page
// text.
const (
	confYouTubeLabeled   = 0.95
	confYouTubeScanned   = 0.70
	confInstagramLabeled = 0.90
	confInstagramScanned = 0.65
	confLinktreeMailto   = 0.75
	confLinktreeScanned  = 0.60
	confWebsiteMailto    = 0.80
	confWebsiteScanned   = 0.60
)

// Candidate is one raw email a step produced, before gate filtering.
type Candidate struct {
	Email      string
	Confidence float64
}

// Outcome is what a step hands the pipeline. Steps never return an error:
// failures are recorded in Error with Status failed, since every step is
// best-effort.
type Outcome struct {
	Status     model.StepStatus
	Candidates []Candidate
	ActorUsed  bool
	Error      string
}

func skippedOutcome() Outcome {
	return Outcome{Status: model.StepStatusSkipped}
}

func failedOutcome(msg string) Outcome {
	return Outcome{Status: model.StepStatusFailed, Error: msg}
}

// Step is one discovery strategy. Attempt may mutate the artist to backfill
// identity fields it discovers along the way (bio text, linktree URL).
type Step interface {
	Tag() string
	Label() string
	Attempt(ctx context.Context, a *model.Artist) Outcome
}

// Fetcher fetches raw markup directly over HTTP.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Gateway runs hosted scraping actors for surfaces that block direct
// fetches.
type Gateway interface {
	YouTubeAbout(ctx context.Context, handle string) scrape.FetchResult
	InstagramBio(ctx context.Context, handle string) scrape.FetchResult
	WebsiteCrawl(ctx context.Context, rootURL string) scrape.FetchResult
}

// scoreEmails turns ordered email lists into candidates. Membership in
// preferred earns the higher confidence.
func scoreEmails(emails, preferred []string, highConf, lowConf float64) []Candidate {
	pref := make(map[string]bool, len(preferred))
	for _, e := range preferred {
		pref[e] = true
	}

	candidates := make([]Candidate, 0, len(emails))
	for _, e := range emails {
		conf := lowConf
		if pref[e] {
			conf = highConf
		}
		candidates = append(candidates, Candidate{Email: e, Confidence: conf})
	}
	return candidates
}
