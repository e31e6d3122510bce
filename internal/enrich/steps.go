package enrich

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
	"github.com/xpanddigital/cratehq-enrich/internal/scrape"
)

// urlDiscoveryStep derives candidate platform URLs from identity fields the
// artist record already carries. No network, no emails; it exists so the
// audit log shows which surfaces the run had to work with.
type urlDiscoveryStep struct{}

func (urlDiscoveryStep) Tag() string   { return TagURLDiscovery }
func (urlDiscoveryStep) Label() string { return "Platform URL discovery" }

func (urlDiscoveryStep) Attempt(_ context.Context, a *model.Artist) Outcome {
	var found int
	for _, p := range []model.Platform{
		model.PlatformYouTube,
		model.PlatformInstagram,
		model.PlatformLinktree,
		model.PlatformWebsite,
	} {
		if scrape.CandidateURL(a, p) != "" {
			found++
		}
	}
	if found == 0 {
		return skippedOutcome()
	}
	return Outcome{Status: model.StepStatusSuccess}
}

// youtubeAboutStep reads the channel about page. YouTube serves a consent
// wall to plain fetches more often than not, so the actor fallback does the
// real work.
type youtubeAboutStep struct {
	fetcher Fetcher
	gateway Gateway
}

func (youtubeAboutStep) Tag() string   { return TagYouTubeAbout }
func (youtubeAboutStep) Label() string { return "YouTube about page" }

func (s youtubeAboutStep) Attempt(ctx context.Context, a *model.Artist) Outcome {
	pageURL := scrape.YouTubeAboutURL(a.YouTubeHandle)
	if pageURL == "" {
		return skippedOutcome()
	}

	if page, ok := directFetch(ctx, s.fetcher, pageURL, model.PlatformYouTube); ok {
		return Outcome{
			Status:     model.StepStatusSuccess,
			Candidates: scoreEmails(page.Emails, page.Mailtos, confYouTubeLabeled, confYouTubeScanned),
		}
	}

	res := s.gateway.YouTubeAbout(ctx, a.YouTubeHandle)
	if !res.Success {
		return Outcome{Status: model.StepStatusFailed, ActorUsed: true, Error: res.Error}
	}
	return Outcome{
		Status:     model.StepStatusSuccess,
		ActorUsed:  true,
		Candidates: scoreEmails(res.Emails, res.LabeledEmails, confYouTubeLabeled, confYouTubeScanned),
	}
}

// instagramBioStep reads the profile bio through the hosted actor. Instagram
// serves a login wall to every anonymous fetch, so a direct attempt is wasted
// rate budget. Also backfills the artist's bio text and linktree URL when the
// profile exposes them, which feeds the later linktree step.
type instagramBioStep struct {
	gateway Gateway
}

func (instagramBioStep) Tag() string   { return TagInstagramBio }
func (instagramBioStep) Label() string { return "Instagram bio" }

func (s instagramBioStep) Attempt(ctx context.Context, a *model.Artist) Outcome {
	if scrape.InstagramProfileURL(a.InstagramHandle) == "" {
		return skippedOutcome()
	}

	res := s.gateway.InstagramBio(ctx, a.InstagramHandle)
	if !res.Success {
		return Outcome{Status: model.StepStatusFailed, ActorUsed: true, Error: res.Error}
	}

	if a.BioText == "" && res.BioText != "" {
		a.BioText = res.BioText
	}
	backfillFromLinks(a, res.Links)

	return Outcome{
		Status:     model.StepStatusSuccess,
		ActorUsed:  true,
		Candidates: scoreEmails(res.Emails, res.LabeledEmails, confInstagramLabeled, confInstagramScanned),
	}
}

// linktreeStep reads the artist's linktree page, either recorded on the
// artist or discovered by the instagram step.
type linktreeStep struct {
	fetcher Fetcher
	gateway Gateway
}

func (linktreeStep) Tag() string   { return TagLinktree }
func (linktreeStep) Label() string { return "Linktree page" }

func (s linktreeStep) Attempt(ctx context.Context, a *model.Artist) Outcome {
	if a.LinktreeURL == "" {
		return skippedOutcome()
	}

	if page, ok := directFetch(ctx, s.fetcher, a.LinktreeURL, model.PlatformLinktree); ok {
		backfillFromLinks(a, page.Links)
		return Outcome{
			Status:     model.StepStatusSuccess,
			Candidates: scoreEmails(page.Emails, page.Mailtos, confLinktreeMailto, confLinktreeScanned),
		}
	}

	res := s.gateway.WebsiteCrawl(ctx, a.LinktreeURL)
	if !res.Success {
		return Outcome{Status: model.StepStatusFailed, ActorUsed: true, Error: res.Error}
	}
	backfillFromLinks(a, res.Links)
	return Outcome{
		Status:     model.StepStatusSuccess,
		ActorUsed:  true,
		Candidates: scoreEmails(res.Emails, res.LabeledEmails, confLinktreeMailto, confLinktreeScanned),
	}
}

// seedFetchParallelism bounds in-flight seed-page fetches.
const seedFetchParallelism = 3

// websiteStep fetches the artist site root plus seeded contact paths. Seed
// pages that 404 are normal; the step only fails when every page is
// unreachable and the crawl actor also comes back empty.
type websiteStep struct {
	fetcher Fetcher
	gateway Gateway
}

func (websiteStep) Tag() string   { return TagWebsite }
func (websiteStep) Label() string { return "Artist website" }

func (s websiteStep) Attempt(ctx context.Context, a *model.Artist) Outcome {
	root := scrape.NormalizeWebsiteURL(a.WebsiteURL)
	if root == "" {
		return skippedOutcome()
	}

	// Seed pages fetch in parallel with bounded in-flight requests; the
	// fetcher's rate limiter still paces them. Results aggregate in seed
	// order so candidate ordering stays deterministic.
	seeds := scrape.SeedURLs(root)
	pages := make([]*scrape.Page, len(seeds))

	var g errgroup.Group
	g.SetLimit(seedFetchParallelism)
	for i, seedURL := range seeds {
		g.Go(func() error {
			if page, ok := directFetch(ctx, s.fetcher, seedURL, model.PlatformWebsite); ok {
				pages[i] = &page
			}
			return nil
		})
	}
	_ = g.Wait()

	var (
		emails  []string
		mailtos []string
		fetched int
	)
	for _, page := range pages {
		if page == nil {
			continue
		}
		fetched++
		emails = append(emails, page.Emails...)
		mailtos = append(mailtos, page.Mailtos...)
	}

	if fetched > 0 {
		return Outcome{
			Status:     model.StepStatusSuccess,
			Candidates: scoreEmails(dedupe(emails), dedupe(mailtos), confWebsiteMailto, confWebsiteScanned),
		}
	}

	res := s.gateway.WebsiteCrawl(ctx, root)
	if !res.Success {
		return Outcome{Status: model.StepStatusFailed, ActorUsed: true, Error: res.Error}
	}
	return Outcome{
		Status:     model.StepStatusSuccess,
		ActorUsed:  true,
		Candidates: scoreEmails(res.Emails, res.LabeledEmails, confWebsiteMailto, confWebsiteScanned),
	}
}

// disabledStep is a permanently skipped strategy kept in the step list so
// the audit log records the tradeoff on every run.
type disabledStep struct {
	tag   string
	label string
}

func (d disabledStep) Tag() string   { return d.tag }
func (d disabledStep) Label() string { return d.label }

func (disabledStep) Attempt(context.Context, *model.Artist) Outcome {
	return skippedOutcome()
}

// directFetch fetches a URL and parses it, reporting ok=false when the
// fetch failed or the platform served a block page.
func directFetch(ctx context.Context, f Fetcher, url string, platform model.Platform) (scrape.Page, bool) {
	if f == nil {
		return scrape.Page{}, false
	}

	markup, err := f.Fetch(ctx, url)
	if err != nil {
		zap.L().Debug("direct fetch failed",
			zap.String("url", url),
			zap.Error(err),
		)
		return scrape.Page{}, false
	}
	if scrape.IsBlocked(markup, platform) {
		zap.L().Debug("direct fetch blocked",
			zap.String("url", url),
			zap.String("platform", string(platform)),
		)
		return scrape.Page{}, false
	}

	return scrape.ParsePage(markup), true
}

// backfillFromLinks records a discovered linktree or website URL on the
// artist when those fields are empty.
func backfillFromLinks(a *model.Artist, links []string) {
	for _, link := range links {
		lower := strings.ToLower(link)
		switch {
		case a.LinktreeURL == "" && strings.Contains(lower, "linktr.ee/"):
			a.LinktreeURL = link
		case a.WebsiteURL == "" && !isSocialLink(lower):
			a.WebsiteURL = link
		}
	}
}

var socialHosts = []string{
	"instagram.com", "youtube.com", "youtu.be", "facebook.com", "twitter.com",
	"x.com", "tiktok.com", "spotify.com", "linktr.ee", "soundcloud.com",
	"apple.com", "bandcamp.com",
}

func isSocialLink(lower string) bool {
	for _, h := range socialHosts {
		if strings.Contains(lower, h) {
			return true
		}
	}
	return false
}

func dedupe(emails []string) []string {
	seen := make(map[string]bool, len(emails))
	var out []string
	for _, e := range emails {
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	return out
}

// DefaultSteps is the fixed pipeline order. The facebook and remaining-
// socials strategies are disabled on purpose: actor cost per hit was high
// and yield was near zero, so they stay in the list as documented skips.
func DefaultSteps(f Fetcher, g Gateway) []Step {
	return []Step{
		urlDiscoveryStep{},
		youtubeAboutStep{fetcher: f, gateway: g},
		instagramBioStep{gateway: g},
		linktreeStep{fetcher: f, gateway: g},
		websiteStep{fetcher: f, gateway: g},
		disabledStep{tag: TagFacebookAbout, label: "Facebook about page (disabled)"},
		disabledStep{tag: TagOtherSocials, label: "Remaining socials (disabled)"},
	}
}
