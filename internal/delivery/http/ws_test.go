package http

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/barcodelens/backend/internal/domain"
)

func dialScanSocket(t *testing.T, server *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/ws/scan"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	return conn
}

func TestScanSocketStreaming(t *testing.T) {
	dec := &stubDecoder{codes: []domain.DecodedCode{{Code: "11111", Symbology: "EAN13"}}}
	history := &memHistory{}
	router := newTestRouter(t, testCatalog(t), dec, history)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialScanSocket(t, server)

	// Init establishes the filter and is acknowledged with matched products.
	require.NoError(t, conn.WriteJSON(clientMessage{
		Type:    "init",
		Queries: []string{"ChocoBar"},
	}))

	var ack initAck
	require.NoError(t, conn.ReadJSON(&ack))
	assert.Equal(t, "init", ack.Type)
	assert.NotEmpty(t, ack.SessionID)
	require.Len(t, ack.MatchedProducts, 1)
	assert.Equal(t, "11111", ack.MatchedProducts[0].UPC)
	assert.Equal(t, domain.MatchFull, ack.MatchedProducts[0].MatchType)

	// A frame with an allowed barcode is answered with a detection message.
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "frame", Frame: pngFrame(t)}))

	var det detectionMessage
	require.NoError(t, conn.ReadJSON(&det))
	assert.Equal(t, "detection", det.Type)
	assert.Equal(t, 1, det.FrameID)
	require.Len(t, det.Detections, 1)
	assert.Equal(t, "11111", det.Detections[0].UPC)
	assert.Equal(t, "ChocoBar", det.Detections[0].ProductName)

	// Stop ends the session; the summary lands in history.
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "stop"}))

	require.Eventually(t, func() bool {
		history.mu.Lock()
		defer history.mu.Unlock()
		return len(history.saved) == 1
	}, 2*time.Second, 10*time.Millisecond)

	history.mu.Lock()
	summary := history.saved[0]
	history.mu.Unlock()
	assert.Equal(t, ack.SessionID, summary.SessionID)
	assert.Equal(t, "catalog", summary.Mode)
	assert.Equal(t, 1, summary.Frames)
	assert.Equal(t, 1, summary.Detections["11111"])
}

func TestScanSocketRefilter(t *testing.T) {
	dec := &stubDecoder{codes: []domain.DecodedCode{{Code: "29377107"}}}
	router := newTestRouter(t, testCatalog(t), dec, nil)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialScanSocket(t, server)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "init", Queries: []string{"ChocoBar"}}))
	var ack initAck
	require.NoError(t, conn.ReadJSON(&ack))

	// A failed re-filter reports an error but keeps the connection open.
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "init", Queries: []string{"no-such-product"}}))
	var errMsg errorMessage
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "error", errMsg.Type)
	assert.Contains(t, errMsg.Message, domain.ErrNoProductsMatched.Error())

	// The client retries with a resolvable filter and streams against it.
	require.NoError(t, conn.WriteJSON(clientMessage{Type: "init", Queries: []string{"Salted"}}))
	require.NoError(t, conn.ReadJSON(&ack))
	require.Len(t, ack.MatchedProducts, 1)
	assert.Equal(t, domain.MatchPartial, ack.MatchedProducts[0].MatchType)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "frame", Frame: pngFrame(t)}))
	var det detectionMessage
	require.NoError(t, conn.ReadJSON(&det))
	require.Len(t, det.Detections, 1)
	assert.Equal(t, "29377107", det.Detections[0].UPC)
	assert.Equal(t, domain.MatchPartial, det.Detections[0].MatchType)
}

func TestScanSocketInitFailureCloses(t *testing.T) {
	// Catalog mode without a catalog cannot establish a session.
	router := newTestRouter(t, nil, nil, nil)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialScanSocket(t, server)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "init", Queries: []string{"ChocoBar"}}))

	var errMsg errorMessage
	require.NoError(t, conn.ReadJSON(&errMsg))
	assert.Equal(t, "error", errMsg.Type)

	// The server hangs up after a failed initial init.
	var next clientMessage
	err := conn.ReadJSON(&next)
	assert.Error(t, err)
}

func TestScanSocketCodeOnly(t *testing.T) {
	dec := &stubDecoder{codes: []domain.DecodedCode{{Code: "101526293771070000"}}}
	router := newTestRouter(t, nil, dec, nil)
	server := httptest.NewServer(router)
	defer server.Close()

	conn := dialScanSocket(t, server)

	require.NoError(t, conn.WriteJSON(clientMessage{
		Type:    "init",
		Mode:    "upc-only",
		Queries: []string{"29377107"},
	}))
	var ack initAck
	require.NoError(t, conn.ReadJSON(&ack))
	require.Len(t, ack.MatchedProducts, 1)
	assert.Equal(t, "UPC: 29377107", ack.MatchedProducts[0].Name)

	require.NoError(t, conn.WriteJSON(clientMessage{Type: "frame", Frame: pngFrame(t)}))
	var det detectionMessage
	require.NoError(t, conn.ReadJSON(&det))
	require.Len(t, det.Detections, 1)
	assert.Equal(t, "29377107", det.Detections[0].UPC)
	assert.Equal(t, "101526293771070000", det.Detections[0].RawUPC)
	assert.Equal(t, domain.MatchCodeOnly, det.Detections[0].MatchType)
}
