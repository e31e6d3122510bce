package model

import "time"

// QualificationStatus is the outcome of the qualification gate for an artist.
type QualificationStatus string

const (
	QualificationPending      QualificationStatus = "pending"
	QualificationQualified    QualificationStatus = "qualified"
	QualificationNotQualified QualificationStatus = "not_qualified"
	QualificationReview       QualificationStatus = "review"
)

// Platform identifies one of the surfaces the discovery pipeline targets.
type Platform string

const (
	PlatformYouTube   Platform = "youtube"
	PlatformInstagram Platform = "instagram"
	PlatformLinktree  Platform = "linktree"
	PlatformWebsite   Platform = "website"
	PlatformFacebook  Platform = "facebook"
)

// Artist represents a catalog-acquisition prospect. Enrichment and
// qualification state live alongside the scraped identity attributes so a
// single row answers both "who is this" and "is this worth pursuing".
type Artist struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	SpotifyID string `json:"spotify_id,omitempty"`

	// Social identity.
	YouTubeHandle   string `json:"youtube_handle,omitempty"`
	InstagramHandle string `json:"instagram_handle,omitempty"`
	WebsiteURL      string `json:"website_url,omitempty"`
	LinktreeURL     string `json:"linktree_url,omitempty"`
	FacebookURL     string `json:"facebook_url,omitempty"`
	BioText         string `json:"bio_text,omitempty"`

	// Derived metrics.
	MonthlyListeners int64 `json:"monthly_listeners"`
	RecentStreams    int64 `json:"recent_streams"`
	TrackCount       int   `json:"track_count"`

	// Enrichment state.
	Email           string           `json:"email,omitempty"`
	EmailConfidence float64          `json:"email_confidence"`
	EmailSource     string           `json:"email_source,omitempty"`
	AllEmailsFound  []EmailCandidate `json:"all_emails_found,omitempty"`
	IsContactable   bool             `json:"is_contactable"`
	EnrichedAt      *time.Time       `json:"enriched_at,omitempty"`

	// Qualification state.
	EstimatedOfferUSD           float64             `json:"estimated_offer_usd"`
	OfferLowUSD                 float64             `json:"offer_low_usd"`
	OfferHighUSD                float64             `json:"offer_high_usd"`
	QualificationStatus         QualificationStatus `json:"qualification_status"`
	QualificationReason         string              `json:"qualification_reason,omitempty"`
	QualificationManualOverride bool                `json:"qualification_manual_override"`
	QualifiedAt                 *time.Time          `json:"qualified_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// EmailCandidate is one accepted email with the strategy that produced it.
type EmailCandidate struct {
	Email      string  `json:"email"`
	Source     string  `json:"source"`
	Confidence float64 `json:"confidence"`
}
