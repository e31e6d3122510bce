// Package emailgate filters candidate contact emails before they are
// accepted into an artist record. Pure rule engine, no I/O.
package emailgate

import "strings"

// Rejection reason codes, one per rule, in evaluation order.
const (
	ReasonMalformed        = "malformed"
	ReasonExactBlocklist   = "exact_blocklist"
	ReasonBlockedDomain    = "blocked_domain"
	ReasonBlockedPrefix    = "blocked_prefix"
	ReasonCorporateLocal   = "corporate_generic_local"
	ReasonPlaceholderLocal = "placeholder_local"
	ReasonDomainSubstring  = "domain_substring"
	ReasonLocalSubstring   = "local_substring"
)

// exactBlocklist holds full addresses that are known placeholders or legal
// boilerplate scraped off label pages.
var exactBlocklist = map[string]bool{
	"privacypolicy@wmg.com":        true,
	"privacy@umusic.com":           true,
	"email@example.com":            true,
	"your@email.com":               true,
	"name@email.com":               true,
	"user@domain.com":              true,
	"example@example.com":          true,
	"contact@contact.com":          true,
	"firstname.lastname@gmail.com": true,
}

// domainBlocklist holds label, distributor, and merch-platform domains whose
// addresses never reach the artist.
var domainBlocklist = map[string]bool{
	"wmg.com":           true,
	"sonymusic.com":     true,
	"distrokid.com":     true,
	"cdbaby.com":        true,
	"tunecore.com":      true,
	"unitedmasters.com": true,
	"ditto.fm":          true,
	"dittomusic.com":    true,
	"amuse.io":          true,
	"merchbar.com":      true,
	"teespring.com":     true,
	"shopify.com":       true,
}

// prefixBlocklist holds local-part prefixes for automated or non-contact
// mailboxes.
var prefixBlocklist = []string{
	"noreply",
	"no-reply",
	"no_reply",
	"donotreply",
	"do-not-reply",
	"privacy",
	"legal",
	"abuse",
	"postmaster",
	"mailer-daemon",
	"webmaster",
	"copyright",
	"dmca",
}

// placeholderLocals are local parts that are always placeholders regardless
// of domain.
var placeholderLocals = map[string]bool{
	"test":        true,
	"example":     true,
	"sample":      true,
	"demo":        true,
	"placeholder": true,
	"email":       true,
	"username":    true,
}

// genericLocals are rejected only on corporate domains: an artist-owned
// domain using info@ is a legitimate contact address.
var genericLocals = map[string]bool{
	"info":    true,
	"support": true,
	"admin":   true,
}

// corporateDomains are major-label and big-platform domains where generic
// mailboxes route to corporate inboxes, not the artist.
var corporateDomains = map[string]bool{
	"universalmusic.com":  true,
	"umusic.com":          true,
	"warnerrecords.com":   true,
	"warnermusic.com":     true,
	"atlanticrecords.com": true,
	"interscope.com":      true,
	"capitolrecords.com":  true,
	"spotify.com":         true,
	"apple.com":           true,
	"google.com":          true,
	"youtube.com":         true,
	"meta.com":            true,
	"facebook.com":        true,
	"instagram.com":       true,
}

// domainSubstrings mark merch/fulfillment storefront domains.
var domainSubstrings = []string{"merch", "store", "shop", "apparel", "fulfillment"}

// localSubstrings mark non-contact mailboxes by local-part content.
var localSubstrings = []string{"merch", "store", "shop", "privacy", "unsubscribe"}

// Verdict is the gate's decision for a single email.
type Verdict struct {
	Accepted bool   `json:"accepted"`
	Reason   string `json:"reason,omitempty"`
}

// Rejection pairs a rejected email with its reason, preserving input order.
type Rejection struct {
	Email  string `json:"email"`
	Reason string `json:"reason"`
}

// Check evaluates one email against the rejection rules in fixed order;
// the first matching rule wins. Deterministic and case-insensitive.
func Check(email string) Verdict {
	e := strings.ToLower(strings.TrimSpace(email))

	// Rule 1: malformed.
	at := strings.Index(e, "@")
	if at <= 0 || at == len(e)-1 || strings.ContainsAny(e, " \t\n") || strings.Count(e, "@") != 1 {
		return Verdict{Reason: ReasonMalformed}
	}
	local, domain := e[:at], e[at+1:]
	if !strings.Contains(domain, ".") {
		return Verdict{Reason: ReasonMalformed}
	}

	// Rule 2: exact-string blocklist.
	if exactBlocklist[e] {
		return Verdict{Reason: ReasonExactBlocklist}
	}

	// Rule 3: domain blocklist.
	if domainBlocklist[domain] {
		return Verdict{Reason: ReasonBlockedDomain}
	}

	// Rule 4: local-part prefix blocklist.
	for _, p := range prefixBlocklist {
		if strings.HasPrefix(local, p) {
			return Verdict{Reason: ReasonBlockedPrefix}
		}
	}

	// Rule 5: local-part exact blocklist. info/support/admin only count
	// against corporate domains.
	if genericLocals[local] {
		if corporateDomains[domain] {
			return Verdict{Reason: ReasonCorporateLocal}
		}
	} else if placeholderLocals[local] {
		return Verdict{Reason: ReasonPlaceholderLocal}
	}

	// Rule 6: domain substring blocklist.
	for _, s := range domainSubstrings {
		if strings.Contains(domain, s) {
			return Verdict{Reason: ReasonDomainSubstring}
		}
	}

	// Rule 7: local-part substring blocklist.
	for _, s := range localSubstrings {
		if strings.Contains(local, s) {
			return Verdict{Reason: ReasonLocalSubstring}
		}
	}

	return Verdict{Accepted: true}
}

// Filter splits candidates into accepted and rejected, preserving input
// order on both sides so step audit logs stay reproducible.
func Filter(emails []string) (valid []string, rejected []Rejection) {
	for _, e := range emails {
		v := Check(e)
		if v.Accepted {
			valid = append(valid, e)
		} else {
			rejected = append(rejected, Rejection{Email: e, Reason: v.Reason})
		}
	}
	return valid, rejected
}
