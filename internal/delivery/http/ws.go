package http

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/barcodelens/backend/internal/domain"
	"github.com/barcodelens/backend/internal/usecase"
)

// clientMessage is any inbound websocket message. The first message must be
// an init; later messages are frames, re-inits or a stop.
type clientMessage struct {
	Type         string   `json:"type"`
	Frame        string   `json:"frame,omitempty"`
	Queries      []string `json:"queries,omitempty"`
	Mode         string   `json:"mode,omitempty"`
	MainCategory string   `json:"main_category,omitempty"`
	Subcategory  string   `json:"subcategory,omitempty"`
}

type initAck struct {
	Type            string                   `json:"type"`
	SessionID       string                   `json:"session_id"`
	MatchedProducts []usecase.MatchedProduct `json:"matched_products"`
}

type errorMessage struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type detectionMessage struct {
	Type       string             `json:"type"`
	FrameID    int                `json:"frame_id"`
	Detections []detectionPayload `json:"detections"`
}

// ScanSocket runs the streaming detection protocol over a websocket: init,
// then frames answered with detections until stop or disconnect. Per-frame
// failures are logged and the loop continues; only a failed initial init,
// a stop message or a dead connection ends the session.
func (h *Handler) ScanSocket(c *gin.Context) {
	upgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				return true
			}
			return isAllowedOrigin(origin, h.allowedOrigins)
		},
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[WS] Upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session := usecase.NewScanSession(h.sessionConfig())
	defer func() {
		summary := session.Summary()
		session.Close()
		if h.history != nil && summary.Frames > 0 {
			if err := h.history.SaveSummary(c.Request.Context(), summary); err != nil {
				log.Printf("[WS] Failed to save session summary: %v", err)
			}
		}
	}()

	log.Printf("[WS] Client connected, session %s", session.ID())

	// First message is the init.
	var init clientMessage
	if err := conn.ReadJSON(&init); err != nil {
		log.Printf("[WS] %s init read failed: %v", session.ID(), err)
		return
	}

	codeOnly := init.Mode == "upc-only"
	if err := session.Init(h.catalog, codeOnly); err != nil {
		writeError(conn, err)
		return
	}

	matched, err := session.SetFilter(init.Queries, codeOnly, init.MainCategory, init.Subcategory)
	if err != nil {
		writeError(conn, err)
		return
	}
	if err := conn.WriteJSON(initAck{Type: "init", SessionID: session.ID(), MatchedProducts: matched}); err != nil {
		return
	}

	frameID := 0
	for {
		var msg clientMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Printf("[WS] %s read error: %v", session.ID(), err)
			}
			return
		}

		switch msg.Type {
		case "frame":
			frameID++
			if !session.AllowFrame() {
				if h.scanner.EnableDebugLogging {
					log.Printf("[WS] %s frame %d dropped by rate limit", session.ID(), frameID)
				}
				continue
			}

			detections := h.processFrame(session, msg.Frame, frameID)
			if len(detections) == 0 {
				continue
			}
			if err := conn.WriteJSON(detectionMessage{
				Type:       "detection",
				FrameID:    frameID,
				Detections: toDetectionPayloads(detections),
			}); err != nil {
				log.Printf("[WS] %s write failed: %v", session.ID(), err)
				return
			}

		case "init":
			// Replace the active filter mid-stream; a failed re-filter keeps
			// the connection open so the client can retry.
			codeOnly := msg.Mode == "upc-only"
			matched, err := session.SetFilter(msg.Queries, codeOnly, msg.MainCategory, msg.Subcategory)
			if err != nil {
				writeError(conn, err)
				continue
			}
			if err := conn.WriteJSON(initAck{Type: "init", SessionID: session.ID(), MatchedProducts: matched}); err != nil {
				return
			}

		case "stop":
			log.Printf("[WS] %s client requested stop", session.ID())
			return

		default:
			// Unknown message types are ignored.
		}
	}
}

// processFrame runs decode + detect for one frame. Every failure here is
// frame-local: logged, and the frame simply yields no detections.
func (h *Handler) processFrame(session *usecase.ScanSession, frame string, frameID int) []domain.Detection {
	raw, err := decodeFramePayload(frame)
	if err != nil {
		log.Printf("[WS] %s frame %d: invalid base64: %v", session.ID(), frameID, err)
		return nil
	}

	img, err := h.codec.DecodeImage(raw)
	if err != nil {
		log.Printf("[WS] %s frame %d: %v", session.ID(), frameID, err)
		return nil
	}

	decoded, err := h.decoder.Decode(img)
	if err != nil {
		log.Printf("[WS] %s frame %d: decode error: %v", session.ID(), frameID, err)
		return nil
	}

	detections, err := h.detector.Process(decoded, session)
	if err != nil {
		log.Printf("[WS] %s frame %d: detection error: %v", session.ID(), frameID, err)
		return nil
	}
	return detections
}

func writeError(conn *websocket.Conn, err error) {
	if werr := conn.WriteJSON(errorMessage{Type: "error", Message: err.Error()}); werr != nil {
		log.Printf("[WS] Failed to write error message: %v", werr)
	}
}
