package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"estate-market/internal/asset"
	"estate-market/internal/domain"
	"estate-market/internal/repository"
)

const assetCleanupTimeout = 10 * time.Second

// PropertyInput trae los campos de texto tal como llegan; nil o vacio significa "no enviado".
type PropertyInput struct {
	Title       *string
	Type        *string
	Price       *string
	EthPrice    *string
	Address     *string
	Description *string
	// ImageURL permite referenciar una imagen externa en lugar de subir un archivo.
	ImageURL *string
}

// PropertyService coordina el ciclo de vida de los inmuebles y sus imagenes.
type PropertyService struct {
	logger     *zap.Logger
	properties repository.PropertyRepository
	assets     *asset.Manager
	cleanup    sync.WaitGroup
}

func NewPropertyService(logger *zap.Logger, properties repository.PropertyRepository, assets *asset.Manager) *PropertyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PropertyService{
		logger:     logger,
		properties: properties,
		assets:     assets,
	}
}

// List devuelve los inmuebles mas recientes primero con la imagen como URL absoluta.
func (s *PropertyService) List(ctx context.Context, origin string) ([]domain.Property, error) {
	items, err := s.properties.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list properties: %w", err)
	}
	for i := range items {
		items[i] = withPublicImage(items[i], origin)
	}
	return items, nil
}

func (s *PropertyService) Get(ctx context.Context, id int64, origin string) (domain.Property, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}
	return withPublicImage(p, origin), nil
}

// Create valida, guarda la imagen si hay y persiste el inmueble.
func (s *PropertyService) Create(ctx context.Context, input PropertyInput, upload *asset.Upload, origin string) (domain.Property, error) {
	var missing []string
	for _, f := range []struct {
		name  string
		value *string
	}{
		{"title", input.Title},
		{"price", input.Price},
		{"ethPrice", input.EthPrice},
		{"address", input.Address},
		{"description", input.Description},
	} {
		if blank(f.value) {
			missing = append(missing, f.name)
		}
	}
	p := domain.Property{
		Title:       trimmed(input.Title),
		Type:        domain.DefaultPropertyType,
		Address:     trimmed(input.Address),
		Description: trimmed(input.Description),
	}
	if !blank(input.Type) {
		p.Type = strings.TrimSpace(*input.Type)
	}
	invalid := append(applyPrices(&p, input), applyImageURL(&p, input)...)
	if len(missing) > 0 || len(invalid) > 0 {
		return domain.Property{}, newValidationError("Missing or invalid fields", append(missing, invalid...))
	}

	if upload != nil {
		ref, err := s.assets.Store(ctx, *upload)
		if err != nil {
			return domain.Property{}, err
		}
		p.Image = &ref
	}

	id, err := s.properties.Create(ctx, p)
	if err != nil {
		if p.Image != nil && upload != nil {
			s.releaseAsync(*p.Image)
		}
		return domain.Property{}, fmt.Errorf("create property: %w", err)
	}
	p.ID = id
	s.logger.Info("property created", zap.Int64("property_id", id))
	return withPublicImage(p, origin), nil
}

// Update reemplaza solo los campos enviados. Una imagen nueva libera la anterior en segundo plano.
func (s *PropertyService) Update(ctx context.Context, id int64, input PropertyInput, upload *asset.Upload, origin string) (domain.Property, error) {
	p, err := s.load(ctx, id)
	if err != nil {
		return domain.Property{}, err
	}
	previousImage := p.Image

	if !blank(input.Title) {
		p.Title = strings.TrimSpace(*input.Title)
	}
	if !blank(input.Type) {
		p.Type = strings.TrimSpace(*input.Type)
	}
	if !blank(input.Address) {
		p.Address = strings.TrimSpace(*input.Address)
	}
	if !blank(input.Description) {
		p.Description = strings.TrimSpace(*input.Description)
	}
	if invalid := append(applyPrices(&p, input), applyImageURL(&p, input)...); len(invalid) > 0 {
		return domain.Property{}, newValidationError("Missing or invalid fields", invalid)
	}

	if upload != nil {
		ref, err := s.assets.Store(ctx, *upload)
		if err != nil {
			return domain.Property{}, err
		}
		p.Image = &ref
	}

	if err := s.properties.Update(ctx, p); err != nil {
		if upload != nil {
			s.releaseAsync(*p.Image)
		}
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Property{}, ErrPropertyNotFound
		}
		return domain.Property{}, fmt.Errorf("update property: %w", err)
	}

	if previousImage != nil && (p.Image == nil || *p.Image != *previousImage) {
		s.releaseAsync(*previousImage)
	}
	s.logger.Info("property updated", zap.Int64("property_id", id))
	return withPublicImage(p, origin), nil
}

// Delete borra el inmueble y libera su imagen propia en segundo plano.
func (s *PropertyService) Delete(ctx context.Context, id int64) error {
	p, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.properties.Delete(ctx, id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrPropertyNotFound
		}
		return fmt.Errorf("delete property: %w", err)
	}
	if p.Image != nil {
		s.releaseAsync(*p.Image)
	}
	s.logger.Info("property deleted", zap.Int64("property_id", id))
	return nil
}

// Wait bloquea hasta que terminen las limpiezas de imagenes pendientes.
func (s *PropertyService) Wait() {
	s.cleanup.Wait()
}

func (s *PropertyService) load(ctx context.Context, id int64) (domain.Property, error) {
	p, err := s.properties.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Property{}, ErrPropertyNotFound
		}
		return domain.Property{}, fmt.Errorf("load property: %w", err)
	}
	return p, nil
}

func (s *PropertyService) releaseAsync(ref string) {
	if s.assets == nil || ref == "" || asset.IsExternal(ref) {
		return
	}
	s.cleanup.Add(1)
	go func() {
		defer s.cleanup.Done()
		ctx, cancel := context.WithTimeout(context.Background(), assetCleanupTimeout)
		defer cancel()
		if err := s.assets.Delete(ctx, ref); err != nil {
			s.logger.Warn("failed to delete asset", zap.String("asset", ref), zap.Error(err))
			return
		}
		s.logger.Debug("asset deleted", zap.String("asset", ref))
	}()
}

// applyPrices normaliza los precios enviados y devuelve los campos invalidos.
func applyPrices(p *domain.Property, input PropertyInput) []string {
	var invalid []string
	if !blank(input.Price) {
		if v, ok := NormalizePrice(*input.Price); ok {
			p.Price = v
		} else {
			invalid = append(invalid, "price")
		}
	}
	if !blank(input.EthPrice) {
		if v, ok := NormalizePrice(*input.EthPrice); ok {
			p.EthPrice = v
		} else {
			invalid = append(invalid, "ethPrice")
		}
	}
	return invalid
}

func applyImageURL(p *domain.Property, input PropertyInput) []string {
	if blank(input.ImageURL) {
		return nil
	}
	ref := strings.TrimSpace(*input.ImageURL)
	if !asset.IsExternal(ref) {
		return []string{"image"}
	}
	p.Image = &ref
	return nil
}

func withPublicImage(p domain.Property, origin string) domain.Property {
	if p.Image != nil {
		url := asset.PublicURL(*p.Image, origin)
		p.Image = &url
	}
	return p
}

func blank(v *string) bool {
	return v == nil || strings.TrimSpace(*v) == ""
}

func trimmed(v *string) string {
	if v == nil {
		return ""
	}
	return strings.TrimSpace(*v)
}
