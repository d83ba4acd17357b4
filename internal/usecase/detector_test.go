package usecase

import (
	"errors"
	"testing"

	"github.com/barcodelens/backend/internal/domain"
)

func TestFrameDetectorCatalogMode(t *testing.T) {
	idx := mustIndex(t, testCatalogData())
	d := NewFrameDetector(false)

	newFiltered := func(t *testing.T, queries ...string) *ScanSession {
		t.Helper()
		s := NewScanSession(SessionConfig{})
		s.Init(idx, false)
		if _, err := s.SetFilter(queries, false, "", ""); err != nil {
			t.Fatalf("SetFilter() error = %v", err)
		}
		return s
	}

	t.Run("emits detection with product and annotation", func(t *testing.T) {
		s := newFiltered(t, "Salted")

		got, err := d.Process([]domain.DecodedCode{
			{Code: "101526293771070000", Symbology: "EAN13", Region: domain.Rect{X: 4, Y: 8, Width: 100, Height: 40}},
		}, s)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if len(got) != 1 {
			t.Fatalf("len = %d, want 1", len(got))
		}

		det := got[0]
		if det.MatchedCode != "29377107" || det.RawCode != "101526293771070000" {
			t.Errorf("detection codes = %s / %s", det.MatchedCode, det.RawCode)
		}
		if det.Product == nil || det.Product.Name != "Salted Crisps" {
			t.Errorf("Product = %+v", det.Product)
		}
		if det.MatchType != domain.MatchPartial {
			t.Errorf("MatchType = %s, want partial (query was a substring)", det.MatchType)
		}
		if det.Region.Width != 100 {
			t.Errorf("Region = %+v", det.Region)
		}
	})

	t.Run("first frame moves session to streaming", func(t *testing.T) {
		s := newFiltered(t, "ChocoBar")
		if _, err := d.Process(nil, s); err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if s.State() != StateStreaming {
			t.Errorf("State() = %s, want streaming", s.State())
		}
	})

	t.Run("non-allowed codes are skipped silently", func(t *testing.T) {
		s := newFiltered(t, "ChocoBar")
		got, err := d.Process([]domain.DecodedCode{{Code: "88888888"}}, s)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %+v, want none", got)
		}
	})

	t.Run("no dedup across repeated hits", func(t *testing.T) {
		s := newFiltered(t, "ChocoBar")
		frame := []domain.DecodedCode{{Code: "11111"}, {Code: "000111110"}}
		got, err := d.Process(frame, s)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if len(got) != 2 {
			t.Errorf("len = %d, want 2 (no within-frame dedup)", len(got))
		}
	})

	t.Run("allowed code missing from catalog is skipped defensively", func(t *testing.T) {
		s := newFiltered(t, "ChocoBar")
		// Force an allow-set entry the catalog cannot resolve.
		s.allowedCodes = append(s.allowedCodes, "55555")

		got, err := d.Process([]domain.DecodedCode{{Code: "55555"}}, s)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if len(got) != 0 {
			t.Errorf("got %+v, want none", got)
		}
	})
}

func TestFrameDetectorCodeOnlyMode(t *testing.T) {
	d := NewFrameDetector(false)

	s := NewScanSession(SessionConfig{})
	s.Init(nil, true)
	if _, err := s.SetFilter([]string{"29377107"}, true, "", ""); err != nil {
		t.Fatalf("SetFilter() error = %v", err)
	}

	got, err := d.Process([]domain.DecodedCode{{Code: "101526293771070000", Symbology: "CODE128"}}, s)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d, want 1", len(got))
	}
	if got[0].Product != nil {
		t.Errorf("Product = %+v, want nil in code-only mode", got[0].Product)
	}
	if got[0].MatchType != domain.MatchCodeOnly {
		t.Errorf("MatchType = %s, want code-only", got[0].MatchType)
	}
}

func TestFrameDetectorStates(t *testing.T) {
	idx := mustIndex(t, testCatalogData())
	d := NewFrameDetector(false)

	t.Run("unfiltered session yields nothing", func(t *testing.T) {
		s := NewScanSession(SessionConfig{})
		s.Init(idx, false)

		got, err := d.Process([]domain.DecodedCode{{Code: "11111"}}, s)
		if err != nil {
			t.Fatalf("Process() error = %v", err)
		}
		if got != nil {
			t.Errorf("got %+v, want nil", got)
		}
		if s.Frames() != 0 {
			t.Errorf("Frames() = %d, want 0 (frame not counted without filter)", s.Frames())
		}
	})

	t.Run("closed session errors", func(t *testing.T) {
		s := NewScanSession(SessionConfig{})
		s.Init(idx, false)
		s.Close()

		_, err := d.Process(nil, s)
		if !errors.Is(err, domain.ErrSessionClosed) {
			t.Errorf("error = %v, want ErrSessionClosed", err)
		}
	})
}
