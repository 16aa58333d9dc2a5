package session

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/spectral-tools/paleta/internal/config"
	"github.com/spectral-tools/paleta/internal/quant"
)

// writeTestPNG writes a small PNG and returns its path. Pixels are
// row-major; a zero value is fully transparent.
func writeTestPNG(t *testing.T, w, h int, pixels []color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for i, c := range pixels {
		img.SetNRGBA(i%w, i/w, c)
	}
	path := filepath.Join(t.TempDir(), "test.png")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

var (
	red  = color.NRGBA{R: 255, A: 255}
	blue = color.NRGBA{B: 255, A: 255}
)

func newTestSession(t *testing.T, pixels []color.NRGBA, w, h int) *Session {
	t.Helper()
	s := New(config.Defaults(), nil)
	if err := s.LoadImage(writeTestPNG(t, w, h, pixels)); err != nil {
		t.Fatalf("LoadImage() unexpected error: %v", err)
	}
	return s
}

func TestExtractBeforeLoad(t *testing.T) {
	s := New(config.Defaults(), nil)
	if _, err := s.Extract(context.Background(), Request{Count: 4}); !errors.Is(err, ErrNoImage) {
		t.Errorf("Extract() error = %v, want ErrNoImage", err)
	}
}

func TestExtractFixedCount(t *testing.T) {
	s := newTestSession(t, []color.NRGBA{red, red, blue, {}}, 2, 2)

	p, err := s.Extract(context.Background(), Request{Count: 8})
	if err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("Extract() entries = %d, want 2", p.Len())
	}
	if s.Palette() != p {
		t.Error("Extract() did not install the new palette")
	}
	for _, e := range p.Entries() {
		if len(e.Samples) == 0 {
			t.Errorf("entry %s has no sample locations after extraction", e.Hex())
		}
	}
}

func TestExtractMax(t *testing.T) {
	s := newTestSession(t, []color.NRGBA{red, red, blue, {}}, 2, 2)

	p, err := s.Extract(context.Background(), Request{Max: true})
	if err != nil {
		t.Fatalf("Extract() unexpected error: %v", err)
	}
	if p.Len() != 2 || p.TotalCount() != 3 {
		t.Errorf("Extract(max) = %d entries summing %d, want 2 summing 3", p.Len(), p.TotalCount())
	}
}

func TestExtractCountPolicy(t *testing.T) {
	s := newTestSession(t, []color.NRGBA{red, blue}, 2, 1)
	ctx := context.Background()

	t.Run("invalid count", func(t *testing.T) {
		if _, err := s.Extract(ctx, Request{Count: 0}); !errors.Is(err, quant.ErrInvalidCount) {
			t.Errorf("Extract(0) error = %v, want ErrInvalidCount", err)
		}
	})

	t.Run("rejected count", func(t *testing.T) {
		if _, err := s.Extract(ctx, Request{Count: 76}); !errors.Is(err, quant.ErrExcessiveCount) {
			t.Errorf("Extract(76) error = %v, want ErrExcessiveCount", err)
		}
	})

	t.Run("forced past rejection", func(t *testing.T) {
		if _, err := s.Extract(ctx, Request{Count: 76, Force: true}); err != nil {
			t.Errorf("Extract(76, force) unexpected error: %v", err)
		}
	})

	t.Run("confirmation band", func(t *testing.T) {
		_, err := s.Extract(ctx, Request{Count: 60})
		if !errors.Is(err, ErrConfirmationRequired) {
			t.Fatalf("Extract(60) error = %v, want ErrConfirmationRequired", err)
		}
		var ce *ConfirmError
		if !errors.As(err, &ce) || ce.Count != 60 {
			t.Errorf("Extract(60) error = %#v, want ConfirmError{Count: 60}", err)
		}
	})

	t.Run("confirmed", func(t *testing.T) {
		if _, err := s.Extract(ctx, Request{Count: 60, Confirmed: true}); err != nil {
			t.Errorf("Extract(60, confirmed) unexpected error: %v", err)
		}
	})
}

func TestExtractFailureKeepsPalette(t *testing.T) {
	s := newTestSession(t, []color.NRGBA{red, blue}, 2, 1)

	before, err := s.Extract(context.Background(), Request{Count: 4})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Extract(context.Background(), Request{Count: 0}); err == nil {
		t.Fatal("Extract(0) expected error")
	}
	if s.Palette() != before {
		t.Error("failed extraction replaced the palette")
	}
}

func TestExtractCancelled(t *testing.T) {
	s := newTestSession(t, []color.NRGBA{red, blue}, 2, 1)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := s.Extract(ctx, Request{Count: 4}); !errors.Is(err, context.Canceled) {
		t.Errorf("Extract(cancelled) error = %v, want context.Canceled", err)
	}
	if s.Palette() != nil {
		t.Error("cancelled extraction installed a palette")
	}
}

func TestLoadImageDiscardsPalette(t *testing.T) {
	s := newTestSession(t, []color.NRGBA{red, blue}, 2, 1)
	if _, err := s.Extract(context.Background(), Request{Count: 4}); err != nil {
		t.Fatal(err)
	}
	if s.Palette() == nil {
		t.Fatal("no palette after extraction")
	}

	if err := s.LoadImage(writeTestPNG(t, 1, 1, []color.NRGBA{red})); err != nil {
		t.Fatalf("LoadImage() unexpected error: %v", err)
	}
	if s.Palette() != nil {
		t.Error("LoadImage() kept the previous image's palette")
	}
}

func TestLoadImageError(t *testing.T) {
	s := New(config.Defaults(), nil)
	if err := s.LoadImage(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Error("LoadImage(missing) expected error")
	}
	if s.Image() != nil {
		t.Error("failed load left an image in the session")
	}
}
