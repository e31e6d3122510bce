package scrape

import (
	"context"
	"errors"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/xpanddigital/cratehq-enrich/internal/resilience"
	"github.com/xpanddigital/cratehq-enrich/pkg/actor"
)

// FetchResult is the normalized outcome of one gateway fetch. Adapters never
// return an error: a failed run degrades to Success=false with the reason in
// Error, since every caller is a best-effort pipeline step.
type FetchResult struct {
	Content string
	// Emails is the full ordered union; LabeledEmails is the subset an actor
	// reported in an explicit business-email field, which scores higher.
	Emails        []string
	LabeledEmails []string
	BioText       string
	Links         []string
	Success       bool
	Error         string
}

// ActorIDs names the hosted actors used per surface. An empty ID disables
// that surface's gateway fallback.
type ActorIDs struct {
	YouTubeAbout     string `mapstructure:"youtube_about"`
	InstagramProfile string `mapstructure:"instagram_profile"`
	WebsiteCrawl     string `mapstructure:"website_crawl"`
	FacebookAbout    string `mapstructure:"facebook_about"`
}

// Gateway runs hosted scraping actors for surfaces that block direct
// fetches and normalizes their heterogeneous dataset items.
type Gateway struct {
	client   actor.Client
	ids      ActorIDs
	pollOpts []actor.PollOption
	retry    resilience.RetryConfig
}

// NewGateway creates a Gateway. Poll options apply to every run.
func NewGateway(client actor.Client, ids ActorIDs, pollOpts ...actor.PollOption) *Gateway {
	retry := resilience.DefaultRetryConfig()
	retry.ShouldRetry = retryableActorErr
	return &Gateway{client: client, ids: ids, pollOpts: pollOpts, retry: retry}
}

// retryableActorErr treats rate-limit and 5xx API answers plus network flaps
// as transient. Terminal run outcomes (FAILED, ABORTED, TIMED-OUT) surface
// as plain errors and are never retried.
func retryableActorErr(err error) bool {
	var apiErr *actor.APIError
	if errors.As(err, &apiErr) {
		return resilience.IsTransientHTTPStatus(apiErr.StatusCode)
	}
	return resilience.IsTransient(err)
}

// YouTubeAbout scrapes a channel's about page for its business email and
// description.
func (g *Gateway) YouTubeAbout(ctx context.Context, handle string) FetchResult {
	h := NormalizeHandle(handle)
	if h == "" {
		return failResult(eris.New("gateway: empty youtube handle"))
	}
	return g.run(ctx, g.ids.YouTubeAbout, map[string]any{
		"channelHandles": []string{"@" + h},
		"includeAbout":   true,
	})
}

// InstagramBio scrapes a profile for its bio text, bio links, and any public
// business email.
func (g *Gateway) InstagramBio(ctx context.Context, handle string) FetchResult {
	h := NormalizeHandle(handle)
	if h == "" {
		return failResult(eris.New("gateway: empty instagram handle"))
	}
	return g.run(ctx, g.ids.InstagramProfile, map[string]any{
		"usernames":     []string{h},
		"resultsLimit":  1,
		"includeEmails": true,
	})
}

// WebsiteCrawl crawls a site root plus its seeded contact paths.
func (g *Gateway) WebsiteCrawl(ctx context.Context, rootURL string) FetchResult {
	seeds := SeedURLs(rootURL)
	if len(seeds) == 0 {
		return failResult(eris.Errorf("gateway: unusable website url %q", rootURL))
	}
	return g.run(ctx, g.ids.WebsiteCrawl, map[string]any{
		"startUrls": seeds,
		"maxDepth":  1,
	})
}

// FacebookAbout scrapes a page's about tab. Retained for operator-triggered
// one-offs; the pipeline skips this surface.
func (g *Gateway) FacebookAbout(ctx context.Context, pageURL string) FetchResult {
	if strings.TrimSpace(pageURL) == "" {
		return failResult(eris.New("gateway: empty facebook url"))
	}
	return g.run(ctx, g.ids.FacebookAbout, map[string]any{
		"startUrls": []string{pageURL},
	})
}

func (g *Gateway) run(ctx context.Context, actorID string, input map[string]any) FetchResult {
	if actorID == "" {
		return failResult(eris.New("gateway: actor not configured"))
	}

	cfg := g.retry
	cfg.OnRetry = resilience.RetryLogger("apify", actorID)
	items, err := resilience.DoVal(ctx, cfg, func(ctx context.Context) ([]map[string]any, error) {
		return actor.RunAndCollect(ctx, g.client, actorID, input, g.pollOpts...)
	})
	if err != nil {
		return failResult(err)
	}
	if len(items) == 0 {
		return failResult(eris.Errorf("gateway: actor %s returned no items", actorID))
	}

	return normalizeItems(items)
}

func failResult(err error) FetchResult {
	return FetchResult{Success: false, Error: err.Error()}
}

// Keys actors use for an explicitly labeled business email. These outrank
// regex-scanned addresses.
var businessEmailKeys = []string{"businessEmail", "business_email", "publicEmail", "email"}

// Keys actors use for profile bio or description text.
var bioTextKeys = []string{"bio", "biography", "description", "channelDescription", "about", "aboutText"}

// Keys actors use for free text worth scanning.
var contentKeys = []string{"text", "markdown", "content", "body"}

// Keys actors use for outbound link lists.
var linkListKeys = []string{"links", "externalLinks", "bioLinks"}

// normalizeItems flattens heterogeneous dataset items into one FetchResult.
// Labeled business emails come first, then addresses scanned out of the
// accumulated text.
func normalizeItems(items []map[string]any) FetchResult {
	var (
		labeled  []string
		content  strings.Builder
		bioText  string
		links    []string
		seenLink = make(map[string]bool)
	)

	for _, item := range items {
		for _, k := range businessEmailKeys {
			if v, ok := item[k].(string); ok && strings.Contains(v, "@") {
				labeled = append(labeled, strings.ToLower(strings.TrimSpace(v)))
			}
		}

		for _, k := range bioTextKeys {
			if v, ok := item[k].(string); ok && v != "" {
				if bioText == "" {
					bioText = v
				}
				content.WriteString(v)
				content.WriteString("\n")
			}
		}

		for _, k := range contentKeys {
			if v, ok := item[k].(string); ok && v != "" {
				content.WriteString(v)
				content.WriteString("\n")
			}
		}

		for _, k := range linkListKeys {
			raw, ok := item[k].([]any)
			if !ok {
				continue
			}
			for _, l := range raw {
				link := linkURL(l)
				if link != "" && !seenLink[link] {
					seenLink[link] = true
					links = append(links, link)
				}
			}
		}
	}

	text := content.String()
	return FetchResult{
		Content:       text,
		Emails:        unionEmails(labeled, ExtractEmails(text)),
		LabeledEmails: unionEmails(labeled),
		BioText:       bioText,
		Links:         links,
		Success:       true,
	}
}

// linkURL unwraps a link entry, which actors emit either as a bare string
// or as an object with a url field.
func linkURL(v any) string {
	switch l := v.(type) {
	case string:
		return strings.TrimSpace(l)
	case map[string]any:
		if u, ok := l["url"].(string); ok {
			return strings.TrimSpace(u)
		}
	}
	return ""
}
