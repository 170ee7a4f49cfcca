package asset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/url"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
)

// MaxUploadSize es el tamano maximo aceptado para una imagen.
const MaxUploadSize int64 = 5 << 20

// PublicPrefix es la ruta bajo la que se sirven los archivos propios.
const PublicPrefix = "/uploads/"

const sniffLen = 512

// extensionTypes asocia cada extension aceptada con el tipo que debe tener el contenido.
var extensionTypes = map[string]string{
	"jpeg": "image/jpeg",
	"jpg":  "image/jpeg",
	"png":  "image/png",
	"gif":  "image/gif",
}

var allowedDeclaredTypes = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
}

// Upload describe un archivo recibido del cliente.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Manager valida, nombra y delega en un Store los archivos de imagen.
type Manager struct {
	store   Store
	maxSize int64
	now     func() time.Time
}

func NewManager(store Store) *Manager {
	return &Manager{
		store:   store,
		maxSize: MaxUploadSize,
		now:     time.Now,
	}
}

// Store guarda la imagen y devuelve la referencia local generada.
func (m *Manager) Store(ctx context.Context, up Upload) (string, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(up.Filename)), ".")
	expected, ok := extensionTypes[ext]
	if !ok {
		return "", ErrUnsupportedMedia
	}
	mediaType, _, err := mime.ParseMediaType(up.ContentType)
	if err != nil || !allowedDeclaredTypes[strings.ToLower(mediaType)] {
		return "", ErrUnsupportedMedia
	}
	if up.Size > m.maxSize {
		return "", ErrPayloadTooLarge
	}
	if up.Body == nil {
		return "", ErrUnsupportedMedia
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(up.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read upload: %w", err)
	}
	head = head[:n]
	detected := mimetype.Detect(head)
	if !detected.Is(expected) {
		return "", ErrUnsupportedMedia
	}

	name := m.newName(ext)
	body := &sizeLimitedReader{r: io.MultiReader(bytes.NewReader(head), up.Body), remaining: m.maxSize}
	if err := m.store.Put(ctx, name, detected.String(), body); err != nil {
		if errors.Is(err, ErrPayloadTooLarge) {
			return "", ErrPayloadTooLarge
		}
		return "", fmt.Errorf("store asset: %w", err)
	}
	return name, nil
}

// Delete libera un archivo propio. Las URLs externas y las referencias vacias se ignoran.
func (m *Manager) Delete(ctx context.Context, ref string) error {
	if ref == "" || IsExternal(ref) {
		return nil
	}
	if !validName(ref) {
		return ErrInvalidName
	}
	return m.store.Delete(ctx, ref)
}

// Open abre un archivo propio para servirlo.
func (m *Manager) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	if !validName(name) {
		return nil, ErrInvalidName
	}
	return m.store.Get(ctx, name)
}

// PublicURL materializa la referencia como URL absoluta sobre origin.
func PublicURL(ref, origin string) string {
	if IsExternal(ref) {
		return ref
	}
	return strings.TrimRight(origin, "/") + PublicPrefix + ref
}

// IsExternal indica si ref es una URL absoluta http(s) que el servicio no administra.
func IsExternal(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return (scheme == "http" || scheme == "https") && u.Host != ""
}

// ContentTypeFor deduce el Content-Type a partir de la extension del nombre.
func ContentTypeFor(name string) string {
	switch strings.ToLower(path.Ext(name)) {
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	default:
		return "application/octet-stream"
	}
}

func (m *Manager) newName(ext string) string {
	random := strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
	return fmt.Sprintf("image-%d-%s.%s", m.now().UnixMilli(), random, ext)
}

func validName(name string) bool {
	if name == "" || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, `/\`) && !strings.HasPrefix(name, ".")
}

// sizeLimitedReader corta la lectura con ErrPayloadTooLarge al superar el limite.
type sizeLimitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *sizeLimitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrPayloadTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrPayloadTooLarge
	}
	return n, err
}
