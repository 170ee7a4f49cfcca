package service

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"estate-market/internal/asset"
	"estate-market/internal/domain"
)

const testOrigin = "http://api.test"

var pngBody = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), bytes.Repeat([]byte{0}, 32)...)

type mockPropertyRepo struct {
	mu     sync.Mutex
	nextID int64
	items  map[int64]domain.Property
}

func newMockPropertyRepo() *mockPropertyRepo {
	return &mockPropertyRepo{items: make(map[int64]domain.Property)}
}

func (m *mockPropertyRepo) List(_ context.Context) ([]domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.Property, 0, len(m.items))
	for _, p := range m.items {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (m *mockPropertyRepo) GetByID(_ context.Context, id int64) (domain.Property, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[id]
	if !ok {
		return domain.Property{}, pgx.ErrNoRows
	}
	return p, nil
}

func (m *mockPropertyRepo) Create(_ context.Context, p domain.Property) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	p.ID = m.nextID
	m.items[p.ID] = p
	return p.ID, nil
}

func (m *mockPropertyRepo) Update(_ context.Context, p domain.Property) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	m.items[p.ID] = p
	return nil
}

func (m *mockPropertyRepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(m.items, id)
	return nil
}

func (m *mockPropertyRepo) Count(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.items)), nil
}

func newTestPropertyService(t *testing.T) (*PropertyService, *mockPropertyRepo, string) {
	t.Helper()
	dir := t.TempDir()
	store, err := asset.NewDiskStore(dir)
	if err != nil {
		t.Fatalf("disk store: %v", err)
	}
	repo := newMockPropertyRepo()
	return NewPropertyService(zap.NewNop(), repo, asset.NewManager(store)), repo, dir
}

func strPtr(s string) *string { return &s }

func validInput() PropertyInput {
	return PropertyInput{
		Title:       strPtr(" Villa "),
		Price:       strPtr("$1,234.56"),
		EthPrice:    strPtr("0.5"),
		Address:     strPtr("Jl. Merdeka 1"),
		Description: strPtr("Sea view"),
	}
}

func pngUpload() *asset.Upload {
	return &asset.Upload{Filename: "house.png", ContentType: "image/png", Body: bytes.NewReader(pngBody)}
}

func fileExists(dir, name string) bool {
	_, err := os.Stat(filepath.Join(dir, name))
	return err == nil
}

func localName(t *testing.T, image *string) string {
	t.Helper()
	if image == nil {
		t.Fatalf("expected image")
	}
	if !strings.HasPrefix(*image, testOrigin+asset.PublicPrefix) {
		t.Fatalf("expected public url, got %q", *image)
	}
	return strings.TrimPrefix(*image, testOrigin+asset.PublicPrefix)
}

func TestPropertyService_CreateDefaults(t *testing.T) {
	svc, repo, _ := newTestPropertyService(t)

	p, err := svc.Create(context.Background(), validInput(), nil, testOrigin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.ID == 0 || p.Title != "Villa" || p.Type != domain.DefaultPropertyType {
		t.Fatalf("unexpected property: %+v", p)
	}
	if p.Price != 1234.56 || p.EthPrice != 0.5 {
		t.Fatalf("unexpected prices: %v %v", p.Price, p.EthPrice)
	}
	if p.Image != nil {
		t.Fatalf("expected null image, got %q", *p.Image)
	}
	if repo.items[p.ID].Title != "Villa" {
		t.Fatalf("expected property to be persisted")
	}
}

func TestPropertyService_CreateValidation(t *testing.T) {
	svc, repo, _ := newTestPropertyService(t)

	input := PropertyInput{
		Title:    strPtr("   "),
		Price:    strPtr("abc"),
		EthPrice: strPtr("0"),
		Address:  strPtr("Somewhere"),
	}
	_, err := svc.Create(context.Background(), input, nil, testOrigin)
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	want := []string{"title", "description", "price", "ethPrice"}
	if strings.Join(vErr.Fields, ",") != strings.Join(want, ",") {
		t.Fatalf("expected fields %v, got %v", want, vErr.Fields)
	}
	if len(repo.items) != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestPropertyService_CreateWithImage(t *testing.T) {
	svc, _, dir := newTestPropertyService(t)

	p, err := svc.Create(context.Background(), validInput(), pngUpload(), testOrigin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	name := localName(t, p.Image)
	if !fileExists(dir, name) {
		t.Fatalf("expected stored file %s", name)
	}
}

func TestPropertyService_CreateRejectsNonImage(t *testing.T) {
	svc, repo, _ := newTestPropertyService(t)
	upload := &asset.Upload{Filename: "doc.pdf", ContentType: "application/pdf", Body: strings.NewReader("%PDF-1.4")}

	if _, err := svc.Create(context.Background(), validInput(), upload, testOrigin); !errors.Is(err, asset.ErrUnsupportedMedia) {
		t.Fatalf("expected ErrUnsupportedMedia, got %v", err)
	}
	if len(repo.items) != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

func TestPropertyService_CreateWithExternalImage(t *testing.T) {
	svc, _, _ := newTestPropertyService(t)
	input := validInput()
	input.ImageURL = strPtr("https://cdn.example.com/a.jpg")

	p, err := svc.Create(context.Background(), input, nil, testOrigin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if p.Image == nil || *p.Image != "https://cdn.example.com/a.jpg" {
		t.Fatalf("expected external url untouched, got %v", p.Image)
	}

	input.ImageURL = strPtr("not-a-url.png")
	if _, err := svc.Create(context.Background(), input, nil, testOrigin); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation for relative image, got %v", err)
	}
}

func TestPropertyService_UpdateRetainsOmittedFields(t *testing.T) {
	svc, _, _ := newTestPropertyService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput(), nil, testOrigin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(ctx, created.ID, PropertyInput{
		Title:    strPtr("Villa Baru"),
		Address:  strPtr(""),
		EthPrice: strPtr("1.25"),
	}, nil, testOrigin)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Title != "Villa Baru" || updated.EthPrice != 1.25 {
		t.Fatalf("expected supplied fields to change: %+v", updated)
	}
	if updated.Address != created.Address || updated.Price != created.Price || updated.Description != created.Description {
		t.Fatalf("expected omitted fields to be retained: %+v", updated)
	}
}

func TestPropertyService_UpdateInvalidPrice(t *testing.T) {
	svc, repo, _ := newTestPropertyService(t)
	ctx := context.Background()
	created, err := svc.Create(ctx, validInput(), nil, testOrigin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Update(ctx, created.ID, PropertyInput{Price: strPtr("free")}, nil, testOrigin); !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if repo.items[created.ID].Price != created.Price {
		t.Fatalf("expected stored price unchanged")
	}
}

func TestPropertyService_UpdateReplacesImage(t *testing.T) {
	svc, _, dir := newTestPropertyService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput(), pngUpload(), testOrigin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	oldName := localName(t, created.Image)

	updated, err := svc.Update(ctx, created.ID, PropertyInput{}, pngUpload(), testOrigin)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	newName := localName(t, updated.Image)
	if newName == oldName {
		t.Fatalf("expected a new asset name")
	}

	svc.Wait()
	if fileExists(dir, oldName) {
		t.Fatalf("expected previous asset %s to be released", oldName)
	}
	if !fileExists(dir, newName) {
		t.Fatalf("expected new asset %s to exist", newName)
	}
}

func TestPropertyService_UpdateKeepsExternalImage(t *testing.T) {
	svc, repo, dir := newTestPropertyService(t)
	ctx := context.Background()
	external := "https://cdn.example.com/a.jpg"
	id, _ := repo.Create(ctx, domain.Property{Title: "T", Type: "house", Price: 1, EthPrice: 1, Address: "A", Description: "D", Image: &external})

	updated, err := svc.Update(ctx, id, PropertyInput{}, pngUpload(), testOrigin)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	svc.Wait()
	if !fileExists(dir, localName(t, updated.Image)) {
		t.Fatalf("expected new asset stored")
	}
}

func TestPropertyService_NotFound(t *testing.T) {
	svc, _, _ := newTestPropertyService(t)
	ctx := context.Background()

	if _, err := svc.Get(ctx, 42, testOrigin); !errors.Is(err, ErrPropertyNotFound) {
		t.Fatalf("expected ErrPropertyNotFound on get, got %v", err)
	}
	if _, err := svc.Update(ctx, 42, validInput(), nil, testOrigin); !errors.Is(err, ErrPropertyNotFound) {
		t.Fatalf("expected ErrPropertyNotFound on update, got %v", err)
	}
	if err := svc.Delete(ctx, 42); !errors.Is(err, ErrPropertyNotFound) {
		t.Fatalf("expected ErrPropertyNotFound on delete, got %v", err)
	}
}

func TestPropertyService_DeleteReleasesAsset(t *testing.T) {
	svc, _, dir := newTestPropertyService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, validInput(), pngUpload(), testOrigin)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	name := localName(t, created.Image)

	if err := svc.Delete(ctx, created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	svc.Wait()
	if fileExists(dir, name) {
		t.Fatalf("expected asset to be released on delete")
	}
	if err := svc.Delete(ctx, created.ID); !errors.Is(err, ErrPropertyNotFound) {
		t.Fatalf("expected second delete to report not found, got %v", err)
	}
}

func TestPropertyService_ListNewestFirst(t *testing.T) {
	svc, _, _ := newTestPropertyService(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, validInput(), pngUpload(), testOrigin)
	if err != nil {
		t.Fatalf("create first: %v", err)
	}
	second, err := svc.Create(ctx, validInput(), nil, testOrigin)
	if err != nil {
		t.Fatalf("create second: %v", err)
	}
	if err := svc.Delete(ctx, second.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	third, err := svc.Create(ctx, validInput(), nil, testOrigin)
	if err != nil {
		t.Fatalf("create third: %v", err)
	}

	items, err := svc.List(ctx, testOrigin)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 2 || items[0].ID != third.ID || items[1].ID != first.ID {
		t.Fatalf("unexpected order: %+v", items)
	}
	localName(t, items[1].Image)
	svc.Wait()
}
