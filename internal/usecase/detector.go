package usecase

import (
	"log"

	"github.com/barcodelens/backend/internal/domain"
)

// FrameDetector turns one frame's raw decoder output into classified
// detections using the session's active allow-set. It performs no
// deduplication within or across frames; the same product is reported on
// every frame it remains visible and aggregation happens at session close.
type FrameDetector struct {
	enableDebugLogging bool
}

// NewFrameDetector creates a detector.
func NewFrameDetector(enableDebugLogging bool) *FrameDetector {
	return &FrameDetector{enableDebugLogging: enableDebugLogging}
}

// Process classifies the decoded codes of a single frame. A session without
// an active filter yields no detections (not an error); a closed session is
// an error. The first frame after filtering moves the session to streaming.
func (d *FrameDetector) Process(decoded []domain.DecodedCode, session *ScanSession) ([]domain.Detection, error) {
	switch session.State() {
	case StateClosed:
		return nil, domain.ErrSessionClosed
	case StateFiltered:
		if err := session.BeginStreaming(); err != nil {
			return nil, err
		}
	case StateStreaming:
		// already streaming
	default:
		// No active filter; decoder output is ignored.
		return nil, nil
	}

	session.frames++

	var detections []domain.Detection
	for _, item := range decoded {
		matched, ok := FindMatchingCode(item.Code, session.allowedCodes)
		if !ok {
			continue
		}

		if d.enableDebugLogging && matched != item.Code {
			log.Printf("[DETECT] Wildcard match: %s contains %s", item.Code, matched)
		}

		det := domain.Detection{
			MatchedCode: matched,
			RawCode:     item.Code,
			Region:      item.Region,
		}

		if session.CodeOnly() {
			det.MatchType = domain.MatchCodeOnly
		} else {
			product, found := session.catalog.FindByCode(matched)
			if !found {
				// Allowed codes come from the catalog, so this should not
				// happen; skip the item rather than fail the frame.
				log.Printf("[DETECT] Matched code %s missing from catalog, skipping", matched)
				continue
			}
			det.Product = &product
			det.MatchType = session.MatchTypeFor(matched)
		}

		session.detections[matched]++
		detections = append(detections, det)
	}

	return detections, nil
}
