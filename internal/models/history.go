package models

import "time"

// Structured field keys on a history row. Writes are atomic per key.
const (
	FieldRaw           = "raw"
	FieldJourney       = "structured.journey"
	FieldTimeline      = "structured.timeline"
	FieldDocumentary   = "structured.documentary"
	FieldMerged        = "structured.merged"
	FieldIntroVideo    = "intro_video_url"
	FieldFullVideo     = "full_video_url"
	FieldSegmentVideos = "segment_video_urls"
)

// HistoryRow is one persisted job record owned by a guest
type HistoryRow struct {
	ID        string    `json:"id" badgerhold:"key"`
	OwnerRef  string    `json:"owner_ref" badgerholdIndex:"OwnerRef"`
	SourceRef SourceRef `json:"source_ref"`
	IsDefault bool      `json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Structured documents keyed by the Field* constants
	Fields map[string]Document `json:"fields"`

	SegmentVideoURLs []string `json:"segment_video_urls,omitempty"`
	IntroVideoURL    string   `json:"intro_video_url,omitempty"`
	FullVideoURL     string   `json:"full_video_url,omitempty"`
}

// OAuthCredential is a stored provider token for an owner, consumed by the
// walled-platform fetch path and the code-hosting enrichment.
type OAuthCredential struct {
	ID        string    `json:"id" badgerhold:"key"` // owner_ref + ":" + provider
	OwnerRef  string    `json:"owner_ref" badgerholdIndex:"CredOwner"`
	Provider  string    `json:"provider"` // "github", "linkedin", ...
	Token     string    `json:"token"`
	Username  string    `json:"username,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the credential has passed its expiry, when one is set
func (c *OAuthCredential) Expired() bool {
	return !c.ExpiresAt.IsZero() && time.Now().After(c.ExpiresAt)
}
