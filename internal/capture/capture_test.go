package capture

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"
)

// pngHeader alcanza para que mimetype detecte image/png.
var pngHeader = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a, 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

func writeFile(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestFromBytes_PNG(t *testing.T) {
	img, err := FromBytes(pngHeader, 0)
	if err != nil {
		t.Fatalf("from bytes: %v", err)
	}
	if img.MIME != "image/png" || img.Size != len(pngHeader) {
		t.Fatalf("unexpected image meta: %+v", img)
	}
	if !strings.HasPrefix(img.DataURI, "data:image/png;base64,") {
		t.Fatalf("unexpected data uri %q", img.DataURI[:30])
	}
}

func TestFromBytes_Rejections(t *testing.T) {
	if _, err := FromBytes(nil, 0); !errors.Is(err, ErrEmptyImage) {
		t.Fatalf("expected ErrEmptyImage, got %v", err)
	}
	if _, err := FromBytes([]byte("just some text"), 0); !errors.Is(err, ErrNotImage) {
		t.Fatalf("expected ErrNotImage, got %v", err)
	}
	if _, err := FromBytes(pngHeader, 4); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestFilePicker_PicksFile(t *testing.T) {
	path := writeFile(t, "check.png", pngHeader)
	var asked Source
	p := NewFilePicker(func(_ context.Context, s Source) (string, error) {
		asked = s
		return "  " + path + "\n", nil
	}, 0, zap.NewNop())

	img, ok, err := p.Pick(context.Background(), SourceCamera)
	if err != nil || !ok {
		t.Fatalf("expected picked image, got ok=%v err=%v", ok, err)
	}
	if asked != SourceCamera || img.MIME != "image/png" {
		t.Fatalf("unexpected pick result source=%s img=%+v", asked, img)
	}
}

func TestFilePicker_BlankPathCancels(t *testing.T) {
	p := NewFilePicker(func(context.Context, Source) (string, error) { return "   ", nil }, 0, nil)
	img, ok, err := p.Pick(context.Background(), SourceGallery)
	if err != nil || ok || !img.Empty() {
		t.Fatalf("expected cancellation, got ok=%v err=%v img=%+v", ok, err, img)
	}
}

func TestFilePicker_Errors(t *testing.T) {
	p := NewFilePicker(func(context.Context, Source) (string, error) {
		return filepath.Join(t.TempDir(), "missing.jpg"), nil
	}, 0, nil)
	if _, ok, err := p.Pick(context.Background(), SourceGallery); err == nil || ok {
		t.Fatalf("expected error for missing file")
	}
	if _, _, err := p.Pick(context.Background(), Source("scanner")); !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}

func TestLoadFile_TooLarge(t *testing.T) {
	data := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 64)...)
	path := writeFile(t, "big.png", data)
	if _, err := LoadFile(path, 32); !errors.Is(err, ErrTooLarge) {
		t.Fatalf("expected ErrTooLarge, got %v", err)
	}
}

func TestStripDataURIPrefix(t *testing.T) {
	cases := map[string]string{
		"data:image/jpeg;base64,AAAA": "AAAA",
		"data:image/png;base64,BBBB":  "BBBB",
		"CCCC":                        "CCCC",
		"data:text/plain;base64,DDDD": "data:text/plain;base64,DDDD",
	}
	for in, want := range cases {
		if got := StripDataURIPrefix(in); got != want {
			t.Fatalf("StripDataURIPrefix(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestParseSource(t *testing.T) {
	if s, err := ParseSource("Camera"); err != nil || s != SourceCamera {
		t.Fatalf("expected camera, got %s,%v", s, err)
	}
	if s, err := ParseSource(""); err != nil || s != SourceGallery {
		t.Fatalf("expected gallery default, got %s,%v", s, err)
	}
	if _, err := ParseSource("fax"); !errors.Is(err, ErrUnknownSource) {
		t.Fatalf("expected ErrUnknownSource, got %v", err)
	}
}
