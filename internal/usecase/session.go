package usecase

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/time/rate"

	"github.com/barcodelens/backend/internal/domain"
)

// SessionState is the lifecycle state of a scan session.
type SessionState int

const (
	StateCreated SessionState = iota
	StateInitialized
	StateFiltered
	StateStreaming
	StateClosed
)

func (s SessionState) String() string {
	switch s {
	case StateCreated:
		return "created"
	case StateInitialized:
		return "initialized"
	case StateFiltered:
		return "filtered"
	case StateStreaming:
		return "streaming"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// MatchedProduct is the per-product summary returned by SetFilter and echoed
// to the client in the init acknowledgement.
type MatchedProduct struct {
	Name         string           `json:"name"`
	UPC          string           `json:"upc"`
	MainCategory string           `json:"main_category,omitempty"`
	Subcategory  string           `json:"subcategory,omitempty"`
	MatchType    domain.MatchType `json:"match_type"`
}

// SessionConfig carries the per-session tunables.
type SessionConfig struct {
	MaxFramesPerSecond float64
	FrameBurst         int
	EnableDebugLogging bool
}

// ScanSession is the per-connection state machine: mode, the active
// allowed-code set and its match-type annotations, and the lifecycle from
// initialization through filtering to frame streaming and closure. A session
// is owned by exactly one connection's handling path; sessions share only
// the immutable CatalogIndex, so no locking is needed.
type ScanSession struct {
	id        string
	startedAt time.Time

	catalog  *CatalogIndex
	resolver *MatchResolver
	codeOnly bool

	// allowedCodes keeps first-registered order so wildcard resolution is
	// deterministic; matchTypeByCode is owned here, never by the Product.
	allowedCodes    []string
	matchTypeByCode map[string]domain.MatchType

	state   SessionState
	limiter *rate.Limiter

	frames     int
	detections map[string]int

	resource io.Closer // exclusively-owned external resource, e.g. a camera handle

	enableDebugLogging bool
}

// NewScanSession creates a session in the Created state with a fresh ULID.
func NewScanSession(cfg SessionConfig) *ScanSession {
	fps := cfg.MaxFramesPerSecond
	if fps <= 0 {
		fps = 15
	}
	burst := cfg.FrameBurst
	if burst <= 0 {
		burst = 5
	}

	return &ScanSession{
		id:                 ulid.Make().String(),
		startedAt:          time.Now().UTC(),
		state:              StateCreated,
		matchTypeByCode:    make(map[string]domain.MatchType),
		detections:         make(map[string]int),
		limiter:            rate.NewLimiter(rate.Limit(fps), burst),
		enableDebugLogging: cfg.EnableDebugLogging,
	}
}

// ID returns the session's ULID.
func (s *ScanSession) ID() string { return s.id }

// State returns the current lifecycle state.
func (s *ScanSession) State() SessionState { return s.state }

// CodeOnly reports whether the session runs without a catalog.
func (s *ScanSession) CodeOnly() bool { return s.codeOnly }

// Mode returns the wire name of the session mode.
func (s *ScanSession) Mode() string {
	if s.codeOnly {
		return "upc-only"
	}
	return "catalog"
}

// AllowedCodes returns a copy of the active allow-set in registration order.
func (s *ScanSession) AllowedCodes() []string {
	return append([]string(nil), s.allowedCodes...)
}

// MatchTypeFor returns the annotation recorded for a matched code,
// defaulting to full when missing.
func (s *ScanSession) MatchTypeFor(code string) domain.MatchType {
	if mt, ok := s.matchTypeByCode[code]; ok {
		return mt
	}
	return domain.MatchFull
}

// Init binds the session to a catalog (catalog mode) or marks it code-only.
// A nil catalog is permitted; catalog-mode filtering will then fail until a
// catalog is available.
func (s *ScanSession) Init(catalog *CatalogIndex, codeOnly bool) error {
	if s.state == StateClosed {
		return domain.ErrSessionClosed
	}

	s.codeOnly = codeOnly
	s.catalog = catalog
	if catalog != nil {
		s.resolver = NewMatchResolver(catalog, s.enableDebugLogging)
	}
	s.state = StateInitialized

	log.Printf("[SESSION] %s initialized (mode=%s)", s.id, s.Mode())
	return nil
}

// AttachResource hands the session an exclusively-owned external resource
// to be released on Close.
func (s *ScanSession) AttachResource(r io.Closer) {
	s.resource = r
}

// SetFilter replaces the active allow-set. It is not additive: the prior
// allowed codes and annotations are cleared before repopulating. In catalog
// mode an empty resolution fails the transition and the session drops back
// to Initialized so the caller can retry; code-only mode always succeeds.
func (s *ScanSession) SetFilter(queries []string, codeOnly bool, mainCategory, subcategory string) ([]MatchedProduct, error) {
	switch s.state {
	case StateClosed:
		return nil, domain.ErrSessionClosed
	case StateCreated:
		return nil, domain.ErrSessionNotInitialized
	}

	s.codeOnly = codeOnly
	s.allowedCodes = s.allowedCodes[:0]
	s.matchTypeByCode = make(map[string]domain.MatchType)

	if codeOnly {
		var summaries []MatchedProduct
		for _, raw := range queries {
			code := strings.TrimSpace(raw)
			if code == "" {
				continue
			}
			if _, dup := s.matchTypeByCode[code]; dup {
				continue
			}
			s.allowedCodes = append(s.allowedCodes, code)
			s.matchTypeByCode[code] = domain.MatchCodeOnly
			summaries = append(summaries, MatchedProduct{
				Name:      "UPC: " + code,
				UPC:       code,
				MatchType: domain.MatchCodeOnly,
			})
		}
		s.state = StateFiltered
		log.Printf("[SESSION] %s UPC-only filter set: %d codes", s.id, len(s.allowedCodes))
		return summaries, nil
	}

	if s.catalog == nil || s.resolver == nil {
		return nil, domain.ErrCatalogUnavailable
	}

	resolved := s.resolver.Resolve(queries, mainCategory, subcategory)
	if len(resolved) == 0 {
		s.state = StateInitialized
		log.Printf("[SESSION] %s filter matched nothing for queries %v", s.id, queries)
		return nil, domain.ErrNoProductsMatched
	}

	summaries := make([]MatchedProduct, 0, len(resolved))
	for _, rp := range resolved {
		if _, dup := s.matchTypeByCode[rp.Product.UPC]; !dup {
			s.allowedCodes = append(s.allowedCodes, rp.Product.UPC)
		}
		s.matchTypeByCode[rp.Product.UPC] = rp.MatchType
		summaries = append(summaries, MatchedProduct{
			Name:         rp.Product.Name,
			UPC:          rp.Product.UPC,
			MainCategory: rp.Product.MainCategory,
			Subcategory:  rp.Product.Subcategory,
			MatchType:    rp.MatchType,
		})
	}

	s.state = StateFiltered
	log.Printf("[SESSION] %s filter set: %d products (category %s/%s)", s.id, len(resolved), mainCategory, subcategory)
	return summaries, nil
}

// BeginStreaming moves a filtered session into the streaming state. The
// frame detector calls this on the first frame, but tests may drive the
// transition directly.
func (s *ScanSession) BeginStreaming() error {
	switch s.state {
	case StateStreaming:
		return nil
	case StateFiltered:
		s.state = StateStreaming
		return nil
	case StateClosed:
		return domain.ErrSessionClosed
	default:
		return fmt.Errorf("%w: cannot stream from state %s", domain.ErrSessionNotInitialized, s.state)
	}
}

// AllowFrame reports whether the session's rate limiter admits another
// inbound frame right now. Rejected frames are a frame-local condition.
func (s *ScanSession) AllowFrame() bool {
	return s.limiter.Allow()
}

// Summary returns the aggregate record of this session so far.
func (s *ScanSession) Summary() domain.SessionSummary {
	counts := make(map[string]int, len(s.detections))
	for code, n := range s.detections {
		counts[code] = n
	}
	return domain.SessionSummary{
		SessionID:  s.id,
		Mode:       s.Mode(),
		StartedAt:  s.startedAt,
		EndedAt:    time.Now().UTC(),
		Frames:     s.frames,
		Detections: counts,
	}
}

// Frames returns the number of frames processed so far.
func (s *ScanSession) Frames() int { return s.frames }

// Close releases any owned external resource and ends the session. It is
// idempotent and must succeed on every exit path, including after a frame
// processing error.
func (s *ScanSession) Close() error {
	if s.state == StateClosed {
		return nil
	}
	s.state = StateClosed

	if s.resource != nil {
		if err := s.resource.Close(); err != nil {
			log.Printf("[SESSION] %s resource close error: %v", s.id, err)
		}
		s.resource = nil
	}

	log.Printf("[SESSION] %s closed (%d frames)", s.id, s.frames)
	return nil
}
