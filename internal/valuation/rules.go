package valuation

import (
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Rules holds the tunable thresholds of the valuation and qualification
// cascade. Operators can override the defaults from a YAML file; rule ORDER
// is fixed in code and not configurable, since later rules only fire when
// earlier ones fail to match.
type Rules struct {
	// Valuation.
	RoyaltyPerStreamUSD  float64 `yaml:"royalty_per_stream_usd"`
	ListenerStreamRatio  float64 `yaml:"listener_stream_ratio"`
	CatalogMultiplePoint float64 `yaml:"catalog_multiple_point"`
	CatalogMultipleLow   float64 `yaml:"catalog_multiple_low"`
	CatalogMultipleHigh  float64 `yaml:"catalog_multiple_high"`

	// Qualification.
	OfferFloorUSD       float64  `yaml:"offer_floor_usd"`
	HighValueReviewUSD  float64  `yaml:"high_value_review_usd"`
	MajorLabelReviewUSD float64  `yaml:"major_label_review_usd"`
	MinTrackCount       int      `yaml:"min_track_count"`
	PlaceholderNames    []string `yaml:"placeholder_names"`
}

// DefaultRules returns the compiled-in rule set.
func DefaultRules() Rules {
	return Rules{
		RoyaltyPerStreamUSD:  0.0035,
		ListenerStreamRatio:  2.5,
		CatalogMultiplePoint: 3.5,
		CatalogMultipleLow:   2.5,
		CatalogMultipleHigh:  4.5,
		OfferFloorUSD:        10_000,
		HighValueReviewUSD:   500_000,
		MajorLabelReviewUSD:  1_000_000,
		MinTrackCount:        5,
		PlaceholderNames: []string{
			"unknown", "unknown artist", "n/a", "na", "none", "null",
			"test", "tbd", "various", "various artists",
		},
	}
}

// LoadRules reads rule overrides from a YAML file, filling unset fields from
// the defaults.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, eris.Wrapf(err, "valuation: read rules %s", path)
	}

	var wrapper struct {
		Qualification Rules `yaml:"qualification"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return rules, eris.Wrap(err, "valuation: parse rules")
	}

	override := wrapper.Qualification
	if override.RoyaltyPerStreamUSD > 0 {
		rules.RoyaltyPerStreamUSD = override.RoyaltyPerStreamUSD
	}
	if override.ListenerStreamRatio > 0 {
		rules.ListenerStreamRatio = override.ListenerStreamRatio
	}
	if override.CatalogMultiplePoint > 0 {
		rules.CatalogMultiplePoint = override.CatalogMultiplePoint
	}
	if override.CatalogMultipleLow > 0 {
		rules.CatalogMultipleLow = override.CatalogMultipleLow
	}
	if override.CatalogMultipleHigh > 0 {
		rules.CatalogMultipleHigh = override.CatalogMultipleHigh
	}
	if override.OfferFloorUSD > 0 {
		rules.OfferFloorUSD = override.OfferFloorUSD
	}
	if override.HighValueReviewUSD > 0 {
		rules.HighValueReviewUSD = override.HighValueReviewUSD
	}
	if override.MajorLabelReviewUSD > 0 {
		rules.MajorLabelReviewUSD = override.MajorLabelReviewUSD
	}
	if override.MinTrackCount > 0 {
		rules.MinTrackCount = override.MinTrackCount
	}
	if len(override.PlaceholderNames) > 0 {
		rules.PlaceholderNames = override.PlaceholderNames
	}

	return rules, nil
}
