package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"muebles-catalog/internal/events"
	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/model"
	"muebles-catalog/internal/repository"
	"muebles-catalog/internal/utils"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

type ProductRepository interface {
	Insert(ctx context.Context, product *model.Product) error
	FindAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error)
	FindByNombre(ctx context.Context, nombre string) (*model.Product, error)
	Update(ctx context.Context, id primitive.ObjectID, updated *model.Product) (*model.Product, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// ProductCache stores listings per invalidation generation. List reads the
// generation before querying the store so a listing read before a write is
// filed under the generation that write retired.
type ProductCache interface {
	Generation(ctx context.Context) (string, bool)
	GetProducts(ctx context.Context, gen, filterKey string) ([]model.Product, bool)
	SetProducts(ctx context.Context, gen, filterKey string, products []model.Product)
	InvalidateProducts(ctx context.Context)
}

type AssetStore interface {
	Upload(ctx context.Context, objectName, contentType string, r io.Reader) (string, error)
	Delete(ctx context.Context, objectName string) error
}

type ProductService struct {
	repo          ProductRepository
	cache         ProductCache
	publisher     events.Publisher
	assets        AssetStore
	maxUploadSize int64
	now           func() time.Time
}

type Option func(*ProductService)

func WithCache(c ProductCache) Option {
	return func(s *ProductService) { s.cache = c }
}

func WithPublisher(p events.Publisher) Option {
	return func(s *ProductService) { s.publisher = p }
}

func WithAssetStore(a AssetStore) Option {
	return func(s *ProductService) { s.assets = a }
}

func WithMaxUploadSize(bytes int64) Option {
	return func(s *ProductService) { s.maxUploadSize = bytes }
}

var ProductServiceTracer = otel.Tracer("ProductService")

const defaultMaxUploadSize = 20 << 20

func NewProductService(repo ProductRepository, opts ...Option) *ProductService {
	s := &ProductService{
		repo:          repo,
		publisher:     events.Noop{},
		maxUploadSize: defaultMaxUploadSize,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func parseID(id string) (primitive.ObjectID, error) {
	objID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, invalidField("_id", "identificador inválido")
	}
	return objID, nil
}

func roundPrice(v *float64) float64 {
	if v == nil {
		return 0
	}
	return decimal.NewFromFloat(*v).Round(2).InexactFloat64()
}

// prepare normalises and validates in. It never touches the store.
func prepare(in *model.ProductInput) error {
	in.Normalize()
	return validateStruct(in)
}

func productFromInput(in model.ProductInput) model.Product {
	return model.Product{
		Nombre:      in.Nombre,
		Color:       in.Color,
		Categoria:   in.Categoria,
		Codigo:      in.Codigo,
		Tipo:        in.Tipo,
		Imagen:      in.Imagen,
		Objeto3D:    in.Objeto3D,
		PrecioVenta: roundPrice(in.PrecioVenta),
		Slug:        utils.Slug(in.Nombre),
	}
}

// Create stores a new product. The name check before the insert gives the
// common case a clean error; the unique index decides concurrent races.
func (s *ProductService) Create(ctx context.Context, in model.ProductInput) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Create")
	defer span.End()
	logger.Info(ctx, "Service")

	if err := prepare(&in); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.String("producto.nombre", in.Nombre))

	existing, err := s.repo.FindByNombre(ctx, in.Nombre)
	switch {
	case err == nil && existing != nil:
		return nil, &DuplicateError{Nombre: in.Nombre}
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return nil, err
	}

	product := productFromInput(in)
	if err := s.repo.Insert(ctx, &product); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, &DuplicateError{Nombre: in.Nombre}
		}
		return nil, err
	}

	s.afterWrite(ctx, events.ActionCreated, &product)
	return &product, nil
}

func (s *ProductService) List(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.List")
	defer span.End()
	logger.Info(ctx, "Service")

	key := filter.CacheKey()
	var (
		gen    string
		cached bool
	)
	if s.cache != nil {
		gen, cached = s.cache.Generation(ctx)
	}
	if cached {
		if products, ok := s.cache.GetProducts(ctx, gen, key); ok {
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return products, nil
		}
	}

	products, err := s.repo.FindAll(ctx, filter)
	if err != nil {
		return nil, err
	}
	if cached {
		s.cache.SetProducts(ctx, gen, key, products)
	}
	return products, nil
}

func (s *ProductService) Get(ctx context.Context, id string) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Get")
	defer span.End()
	logger.Info(ctx, "Service")

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	return s.find(ctx, objID)
}

func (s *ProductService) find(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	product, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, &NotFoundError{Resource: "producto", ID: id.Hex()}
	}
	return product, err
}

// Update replaces the editable fields. An empty imagen or objeto3D keeps the
// stored asset.
func (s *ProductService) Update(ctx context.Context, id string, in model.ProductInput) (*model.Product, error) {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Update")
	defer span.End()
	logger.Info(ctx, "Service")

	objID, err := parseID(id)
	if err != nil {
		return nil, err
	}
	if err := prepare(&in); err != nil {
		return nil, err
	}

	current, err := s.find(ctx, objID)
	if err != nil {
		return nil, err
	}
	if in.Nombre != current.Nombre {
		other, err := s.repo.FindByNombre(ctx, in.Nombre)
		switch {
		case err == nil && other != nil && other.ID != objID:
			return nil, &DuplicateError{Nombre: in.Nombre}
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return nil, err
		}
	}

	next := productFromInput(in)
	var stale []string
	if next.Imagen == "" || next.Imagen == current.Imagen {
		next.Imagen = current.Imagen
		next.ImagenObject = current.ImagenObject
	} else if current.ImagenObject != "" {
		stale = append(stale, current.ImagenObject)
	}
	if next.Objeto3D == nil {
		next.Objeto3D = current.Objeto3D
	} else if current.Objeto3D != nil && current.Objeto3D.ObjectName != "" {
		if next.Objeto3D.URL == current.Objeto3D.URL {
			next.Objeto3D.ObjectName = current.Objeto3D.ObjectName
		} else {
			stale = append(stale, current.Objeto3D.ObjectName)
		}
	}

	updated, err := s.repo.Update(ctx, objID, &next)
	if err != nil {
		return nil, writeError(err, id, in.Nombre)
	}

	s.deleteAssets(ctx, stale...)
	s.afterWrite(ctx, events.ActionUpdated, updated)
	return updated, nil
}

func (s *ProductService) Delete(ctx context.Context, id string) error {
	ctx, span := ProductServiceTracer.Start(ctx, "ProductService.Delete")
	defer span.End()
	logger.Info(ctx, "Service")

	objID, err := parseID(id)
	if err != nil {
		return err
	}
	current, err := s.find(ctx, objID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, objID); err != nil {
		return writeError(err, id, current.Nombre)
	}

	objects := []string{current.ImagenObject}
	if current.Objeto3D != nil {
		objects = append(objects, current.Objeto3D.ObjectName)
	}
	s.deleteAssets(ctx, objects...)
	s.afterWrite(ctx, events.ActionDeleted, current)
	return nil
}

// writeError turns repository sentinels into domain errors.
func writeError(err error, id, nombre string) error {
	switch {
	case errors.Is(err, repository.ErrDuplicate):
		return &DuplicateError{Nombre: nombre}
	case errors.Is(err, repository.ErrNotFound):
		return &NotFoundError{Resource: "producto", ID: id}
	}
	return err
}

// afterWrite runs the best-effort side effects of a successful write.
func (s *ProductService) afterWrite(ctx context.Context, action events.Action, p *model.Product) {
	if s.cache != nil {
		s.cache.InvalidateProducts(ctx)
	}
	err := s.publisher.Publish(ctx, events.Event{
		Action:     action,
		ProductoID: p.ID.Hex(),
		Nombre:     p.Nombre,
		OccurredAt: s.now().UTC(),
	})
	if err != nil {
		logger.Warn(ctx, "Catalog event not published",
			slog.String("action", string(action)),
			slog.String("producto_id", p.ID.Hex()),
			logger.Err(err),
		)
	}
}

func (s *ProductService) deleteAssets(ctx context.Context, objects ...string) {
	if s.assets == nil {
		return
	}
	for _, name := range objects {
		if name == "" {
			continue
		}
		if err := s.assets.Delete(ctx, name); err != nil {
			logger.Warn(ctx, "Asset cleanup failed", slog.String("object", name), logger.Err(err))
		}
	}
}
