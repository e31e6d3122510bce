package valuation

import (
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"

	"github.com/xpanddigital/cratehq-enrich/internal/model"
)

// Qualification reason strings, surfaced to operators verbatim.
const (
	ReasonInvalidName     = "invalid or placeholder artist name"
	ReasonNoData          = "no data: offer, listeners, and streams all zero"
	ReasonValuationFailed = "valuation failed despite real engagement data"
	ReasonThinCatalog     = "catalog too thin"
	ReasonBelowFloor      = "offer below minimum floor"
	ReasonMajorLabel      = "offer above major-label threshold, verify independently"
	ReasonHighValue       = "high value offer, verify reachability"
	ReasonQualified       = "metrics within target band"
	ReasonUnclassified    = "unclassifiable, routed to manual review"
)

// QualInput is everything the cascade looks at.
type QualInput struct {
	Name             string
	OfferUSD         float64
	MonthlyListeners int64
	RecentStreams    int64
	TrackCount       int
}

// Decision is the cascade outcome. Total: every input maps to one of the
// four statuses.
type Decision struct {
	Status model.QualificationStatus `json:"status"`
	Reason string                    `json:"reason"`
}

var nameFolder = cases.Fold()

// normalizeName canonicalizes an artist name for placeholder matching:
// unicode NFKC, case-folded, whitespace-trimmed.
func normalizeName(name string) string {
	return strings.TrimSpace(nameFolder.String(norm.NFKC.String(name)))
}

// Qualify runs the rule cascade in fixed order; the first matching rule
// wins. Reordering changes classification outcomes, so rules stay literal
// and sequential.
func Qualify(in QualInput, r Rules) Decision {
	// 1. Name invalid.
	name := normalizeName(in.Name)
	if utf8.RuneCountInString(name) <= 1 {
		return Decision{Status: model.QualificationNotQualified, Reason: ReasonInvalidName}
	}
	for _, p := range r.PlaceholderNames {
		if name == nameFolder.String(p) {
			return Decision{Status: model.QualificationNotQualified, Reason: ReasonInvalidName}
		}
	}

	// 2. No data at all.
	if in.OfferUSD == 0 && in.MonthlyListeners == 0 && in.RecentStreams == 0 {
		return Decision{Status: model.QualificationNotQualified, Reason: ReasonNoData}
	}

	// 3. Zero offer with real engagement: upstream valuation bug, not a true
	// negative.
	if in.OfferUSD == 0 && (in.MonthlyListeners > 0 || in.RecentStreams > 0) {
		return Decision{Status: model.QualificationReview, Reason: ReasonValuationFailed}
	}

	// 4. Thin catalog. Zero tracks means unknown, not thin.
	if in.TrackCount > 0 && in.TrackCount < r.MinTrackCount {
		return Decision{Status: model.QualificationNotQualified, Reason: ReasonThinCatalog}
	}

	// 5. Below offer floor.
	if in.OfferUSD > 0 && in.OfferUSD < r.OfferFloorUSD {
		return Decision{Status: model.QualificationNotQualified, Reason: ReasonBelowFloor}
	}

	// 6. Likely major-label artist.
	if in.OfferUSD > r.MajorLabelReviewUSD {
		return Decision{Status: model.QualificationReview, Reason: ReasonMajorLabel}
	}

	// 7. High value, verify reachability.
	if in.OfferUSD > r.HighValueReviewUSD {
		return Decision{Status: model.QualificationReview, Reason: ReasonHighValue}
	}

	// 8. Target band with a real or unknown catalog.
	if in.OfferUSD >= r.OfferFloorUSD && in.OfferUSD <= r.HighValueReviewUSD &&
		(in.TrackCount >= r.MinTrackCount || in.TrackCount <= 0) {
		return Decision{Status: model.QualificationQualified, Reason: ReasonQualified}
	}

	// 9. Fallback: never silently drop an artist.
	return Decision{Status: model.QualificationReview, Reason: ReasonUnclassified}
}

// ValuateAndQualify composes valuation and qualification and applies the
// result to the artist record. Records frozen by a manual override are left
// untouched unless force is set; the computed decision is returned either
// way so callers can log it. The second return reports whether the record
// was updated.
func ValuateAndQualify(a *model.Artist, r Rules, force bool) (Decision, bool) {
	est := Valuate(Metrics{
		MonthlyListeners: a.MonthlyListeners,
		RecentStreams:    a.RecentStreams,
		TrackCount:       a.TrackCount,
	}, r)

	decision := Qualify(QualInput{
		Name:             a.Name,
		OfferUSD:         est.PointUSD,
		MonthlyListeners: a.MonthlyListeners,
		RecentStreams:    a.RecentStreams,
		TrackCount:       a.TrackCount,
	}, r)

	if a.QualificationManualOverride && !force {
		return decision, false
	}

	now := time.Now().UTC()
	a.EstimatedOfferUSD = est.PointUSD
	a.OfferLowUSD = est.LowUSD
	a.OfferHighUSD = est.HighUSD
	a.QualificationStatus = decision.Status
	a.QualificationReason = decision.Reason
	a.QualifiedAt = &now

	return decision, true
}
