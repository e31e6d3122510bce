package scrape

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)

// ExtractEmails scans text for email addresses, lowercased and deduplicated
// in order of first appearance.
func ExtractEmails(text string) []string {
	matches := emailRe.FindAllString(text, -1)
	if len(matches) == 0 {
		return nil
	}

	seen := make(map[string]bool, len(matches))
	var emails []string
	for _, m := range matches {
		e := strings.ToLower(strings.Trim(m, "."))
		if !seen[e] {
			seen[e] = true
			emails = append(emails, e)
		}
	}
	return emails
}

// Page is the structured view of one fetched HTML document.
type Page struct {
	Title string
	Text  string
	// Emails is the full ordered union; Mailtos is the subset taken from
	// mailto hrefs, which scores higher than text-scanned addresses.
	Emails  []string
	Mailtos []string
	Links   []string
}

// ParsePage extracts plaintext, emails, and outbound links from HTML.
// Mailto targets rank ahead of regex-scanned addresses since someone put
// them there on purpose.
func ParsePage(html string) Page {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		// Unparseable markup still gets a regex scan.
		return Page{Text: html, Emails: ExtractEmails(html)}
	}

	doc.Find("script, style, noscript").Remove()

	var p Page
	p.Title = strings.TrimSpace(doc.Find("title").First().Text())

	var mailtos []string
	seenLinks := make(map[string]bool)
	doc.Find("a[href]").Each(func(_ int, s *goquery.Selection) {
		href, _ := s.Attr("href")
		href = strings.TrimSpace(href)
		switch {
		case strings.HasPrefix(strings.ToLower(href), "mailto:"):
			addr := strings.ToLower(strings.SplitN(href[len("mailto:"):], "?", 2)[0])
			if addr != "" {
				mailtos = append(mailtos, addr)
			}
		case strings.HasPrefix(href, "http://") || strings.HasPrefix(href, "https://"):
			if !seenLinks[href] {
				seenLinks[href] = true
				p.Links = append(p.Links, href)
			}
		}
	})

	p.Text = collapseWhitespace(doc.Text())
	p.Mailtos = unionEmails(mailtos)
	p.Emails = unionEmails(p.Mailtos, ExtractEmails(p.Text))
	return p
}

// unionEmails merges ordered lists, earlier lists first, dropping duplicates.
func unionEmails(lists ...[]string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, e := range list {
			e = strings.ToLower(e)
			if e != "" && !seen[e] {
				seen[e] = true
				out = append(out, e)
			}
		}
	}
	return out
}

var (
	spaceRe   = regexp.MustCompile(`[ \t]+`)
	newlineRe = regexp.MustCompile(`\n{3,}`)
)

func collapseWhitespace(s string) string {
	s = spaceRe.ReplaceAllString(s, " ")
	s = newlineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
