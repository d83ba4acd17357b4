package domain

import "time"

// MatchType classifies how a query or scanned code was resolved.
type MatchType string

const (
	// MatchFull is an exact UPC or exact name match.
	MatchFull MatchType = "full"

	// MatchPartial is a substring match on the product name.
	MatchPartial MatchType = "partial"

	// MatchCodeOnly is a direct UPC hit with no catalog involved.
	MatchCodeOnly MatchType = "code-only"
)

// Rect is a bounding box in frame pixel coordinates.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// DecodedCode is one raw decoder hit within a frame.
type DecodedCode struct {
	Code      string `json:"code"`
	Symbology string `json:"symbology"`
	Region    Rect   `json:"region"`
}

// Detection is one classified barcode hit. RawCode is the full string the
// decoder returned; MatchedCode is the stored UPC it contains (possibly
// equal to it). Product is nil in code-only mode.
type Detection struct {
	MatchedCode string    `json:"upc"`
	RawCode     string    `json:"raw_upc"`
	Product     *Product  `json:"product,omitempty"`
	MatchType   MatchType `json:"match_type"`
	Region      Rect      `json:"rect"`
}

// SessionSummary is the aggregate record of one finished scan session,
// persisted by the history store.
type SessionSummary struct {
	SessionID  string         `json:"session_id"`
	Mode       string         `json:"mode"`
	StartedAt  time.Time      `json:"started_at"`
	EndedAt    time.Time      `json:"ended_at"`
	Frames     int            `json:"frames"`
	Detections map[string]int `json:"detections"` // matched UPC -> count
}
