package http

import (
	"encoding/base64"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/barcodelens/backend/config"
	"github.com/barcodelens/backend/internal/domain"
	"github.com/barcodelens/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers. catalog is nil when the
// catalog failed to load at startup; catalog-backed endpoints then report
// unavailable while code-only scanning keeps working.
type Handler struct {
	catalog  *usecase.CatalogIndex
	resolver *usecase.MatchResolver
	detector *usecase.FrameDetector
	decoder  domain.Decoder
	codec    domain.FrameCodec
	history  domain.HistoryStore

	scanner        config.ScannerConfig
	allowedOrigins []string
}

// NewHandler creates a new HTTP handler
func NewHandler(catalog *usecase.CatalogIndex, dec domain.Decoder, codec domain.FrameCodec, history domain.HistoryStore, cfg *config.Config) *Handler {
	h := &Handler{
		catalog:        catalog,
		detector:       usecase.NewFrameDetector(cfg.Scanner.EnableDebugLogging),
		decoder:        dec,
		codec:          codec,
		history:        history,
		scanner:        cfg.Scanner,
		allowedOrigins: cfg.Server.AllowedOrigins,
	}
	if catalog != nil {
		h.resolver = usecase.NewMatchResolver(catalog, cfg.Scanner.EnableDebugLogging)
	}
	return h
}

func (h *Handler) sessionConfig() usecase.SessionConfig {
	return usecase.SessionConfig{
		MaxFramesPerSecond: h.scanner.MaxFramesPerSecond,
		FrameBurst:         h.scanner.FrameBurst,
		EnableDebugLogging: h.scanner.EnableDebugLogging,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	products := 0
	if h.catalog != nil {
		products = h.catalog.Size()
	}
	c.JSON(http.StatusOK, gin.H{
		"status":   "healthy",
		"service":  "barcodelens-backend",
		"products": products,
	})
}

// Categories lists all main categories and their subcategories
func (h *Handler) Categories(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrCatalogUnavailable.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": h.catalog.Categories()})
}

// ProductsByCategory lists products filtered by category
func (h *Handler) ProductsByCategory(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrCatalogUnavailable.Error()})
		return
	}

	main := c.Query("main_category")
	sub := c.Query("subcategory")
	limit := intQuery(c, "limit", 100)

	products := h.catalog.FindByCategory(main, sub)
	total := len(products)
	if len(products) > limit {
		products = products[:limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"main_category": main,
		"subcategory":   sub,
		"total":         total,
		"products":      products,
	})
}

// Search resolves a free-text query against the catalog
func (h *Handler) Search(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrCatalogUnavailable.Error()})
		return
	}

	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}
	limit := intQuery(c, "limit", 10)

	resolved := h.resolver.Resolve([]string{query}, "", "")
	if len(resolved) > limit {
		resolved = resolved[:limit]
	}

	results := make([]gin.H, 0, len(resolved))
	for _, rp := range resolved {
		results = append(results, gin.H{
			"name":       rp.Product.Name,
			"upc":        rp.Product.UPC,
			"match_type": rp.MatchType,
		})
	}
	c.JSON(http.StatusOK, results)
}

// Stats returns catalog statistics
func (h *Handler) Stats(c *gin.Context) {
	if h.catalog == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrCatalogUnavailable.Error()})
		return
	}
	c.JSON(http.StatusOK, h.catalog.Stats())
}

// History lists recent scan-session summaries
func (h *Handler) History(c *gin.Context) {
	if h.history == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": domain.ErrHistoryUnavailable.Error()})
		return
	}

	limit := intQuery(c, "limit", 20)
	summaries, err := h.history.Recent(c.Request.Context(), limit)
	if err != nil {
		log.Printf("[HISTORY] Read error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read scan history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": summaries})
}

// scanFrameRequest is the single-shot scan payload
type scanFrameRequest struct {
	Frame        string   `json:"frame" binding:"required"`
	Queries      []string `json:"queries" binding:"required"`
	Mode         string   `json:"mode"`
	MainCategory string   `json:"main_category"`
	Subcategory  string   `json:"subcategory"`
}

// ScanFrame performs an ad-hoc init + filter + single-frame detect + teardown.
// Lower throughput than the websocket but stateless.
func (h *Handler) ScanFrame(c *gin.Context) {
	var req scanFrameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	codeOnly := req.Mode == "upc-only"

	session := usecase.NewScanSession(h.sessionConfig())
	defer session.Close()

	if err := session.Init(h.catalog, codeOnly); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	if _, err := session.SetFilter(req.Queries, codeOnly, req.MainCategory, req.Subcategory); err != nil {
		switch {
		case errors.Is(err, domain.ErrNoProductsMatched):
			c.JSON(http.StatusOK, gin.H{"success": false, "error": err.Error()})
		case errors.Is(err, domain.ErrCatalogUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	raw, err := decodeFramePayload(req.Frame)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid frame encoding"})
		return
	}

	img, err := h.codec.DecodeImage(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid image"})
		return
	}

	// Decoder and detector failures are frame-local: report an empty scan.
	var detections []domain.Detection
	if decoded, err := h.decoder.Decode(img); err != nil {
		log.Printf("[SCAN] Decode error: %v", err)
	} else if detections, err = h.detector.Process(decoded, session); err != nil {
		log.Printf("[SCAN] Detection error: %v", err)
		detections = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"detections": toDetectionPayloads(detections),
	})
}

// decodeFramePayload decodes a base64 frame, tolerating data-URL prefixes
// like "data:image/jpeg;base64,...".
func decodeFramePayload(frame string) ([]byte, error) {
	if strings.HasPrefix(frame, "data:") {
		if idx := strings.IndexByte(frame, ','); idx >= 0 {
			frame = frame[idx+1:]
		}
	}
	return base64.StdEncoding.DecodeString(frame)
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

// detectionPayload is the wire form of a Detection
type detectionPayload struct {
	UPC         string           `json:"upc"`
	RawUPC      string           `json:"raw_upc,omitempty"`
	ProductName string           `json:"product_name,omitempty"`
	MatchType   domain.MatchType `json:"match_type"`
	Rect        *domain.Rect     `json:"rect,omitempty"`
}

func toDetectionPayloads(detections []domain.Detection) []detectionPayload {
	out := make([]detectionPayload, 0, len(detections))
	for _, det := range detections {
		p := detectionPayload{
			UPC:       det.MatchedCode,
			MatchType: det.MatchType,
		}
		if det.RawCode != det.MatchedCode {
			p.RawUPC = det.RawCode
		}
		if det.Product != nil {
			p.ProductName = det.Product.Name
		} else {
			p.ProductName = "UPC: " + det.MatchedCode
		}
		if det.Region != (domain.Rect{}) {
			rect := det.Region
			p.Rect = &rect
		}
		out = append(out, p)
	}
	return out
}
