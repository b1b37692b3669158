// Package capture obtiene la foto del cheque delegando en un selector
// (camara o galeria) y la normaliza a data URI base64.
package capture

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"go.uber.org/zap"

	"checkpay/internal/domain"
)

// Source es el origen de la imagen.
type Source string

const (
	SourceCamera  Source = "camera"
	SourceGallery Source = "gallery"
)

// DefaultMaxBytes limita el tamano de la imagen original.
const DefaultMaxBytes int64 = 10 << 20

var (
	ErrNotImage      = errors.New("file is not an image")
	ErrTooLarge      = errors.New("image too large")
	ErrEmptyImage    = errors.New("image is empty")
	ErrUnknownSource = errors.New("unknown image source")
)

var dataURIPrefix = regexp.MustCompile(`^data:image/[a-zA-Z0-9.+-]+;base64,`)

// Picker delega en el selector de imagenes del host. ok=false significa que
// el usuario cancelo; no es un error.
type Picker interface {
	Pick(ctx context.Context, source Source) (img domain.CheckImage, ok bool, err error)
}

// ParseSource acepta "camera" o "gallery" sin importar mayusculas.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceCamera:
		return SourceCamera, nil
	case SourceGallery, "":
		return SourceGallery, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownSource, s)
	}
}

// PathPrompt pide una ruta de archivo al usuario. Una ruta vacia cancela.
type PathPrompt func(ctx context.Context, source Source) (string, error)

// FilePicker resuelve camara y galeria a un archivo local; en una terminal no
// hay camara, asi que ambos origenes terminan en la misma pregunta.
type FilePicker struct {
	prompt   PathPrompt
	maxBytes int64
	logger   *zap.Logger
}

func NewFilePicker(prompt PathPrompt, maxBytes int64, logger *zap.Logger) *FilePicker {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FilePicker{prompt: prompt, maxBytes: maxBytes, logger: logger}
}

func (p *FilePicker) Pick(ctx context.Context, source Source) (domain.CheckImage, bool, error) {
	if source != SourceCamera && source != SourceGallery {
		return domain.CheckImage{}, false, fmt.Errorf("%w: %q", ErrUnknownSource, source)
	}
	if p.prompt == nil {
		return domain.CheckImage{}, false, errors.New("image picker not configured")
	}
	path, err := p.prompt(ctx, source)
	if err != nil {
		return domain.CheckImage{}, false, err
	}
	path = strings.TrimSpace(path)
	if path == "" {
		p.logger.Debug("image pick cancelled", zap.String("source", string(source)))
		return domain.CheckImage{}, false, nil
	}

	img, err := LoadFile(path, p.maxBytes)
	if err != nil {
		return domain.CheckImage{}, false, err
	}
	p.logger.Debug("image picked",
		zap.String("source", string(source)),
		zap.String("file", filepath.Base(path)),
		zap.String("mime", img.MIME),
		zap.Int("bytes", img.Size),
	)
	return img, true, nil
}

// LoadFile lee un archivo de imagen y lo convierte a CheckImage.
func LoadFile(path string, maxBytes int64) (domain.CheckImage, error) {
	f, err := os.Open(path)
	if err != nil {
		return domain.CheckImage{}, fmt.Errorf("open image: %w", err)
	}
	defer f.Close()

	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return domain.CheckImage{}, fmt.Errorf("read image: %w", err)
	}
	return FromBytes(data, maxBytes)
}

// FromBytes valida que data sea una imagen y la codifica como data URI.
func FromBytes(data []byte, maxBytes int64) (domain.CheckImage, error) {
	if len(data) == 0 {
		return domain.CheckImage{}, ErrEmptyImage
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return domain.CheckImage{}, fmt.Errorf("%w: limit is %d bytes", ErrTooLarge, maxBytes)
	}
	mt := mimetype.Detect(data)
	mime := strings.SplitN(mt.String(), ";", 2)[0]
	if !strings.HasPrefix(mime, "image/") {
		return domain.CheckImage{}, fmt.Errorf("%w: detected %s", ErrNotImage, mime)
	}
	return domain.CheckImage{
		DataURI: "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data),
		MIME:    mime,
		Size:    len(data),
	}, nil
}

// StripDataURIPrefix quita "data:image/<tipo>;base64," antes de transmitir.
func StripDataURIPrefix(s string) string {
	return dataURIPrefix.ReplaceAllString(s, "")
}
