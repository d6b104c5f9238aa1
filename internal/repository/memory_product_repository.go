package repository

import (
	"context"
	"sync"
	"time"

	"muebles-catalog/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryProductRepository keeps products in process. Names are unique the same
// way the Mongo index makes them unique.
type MemoryProductRepository struct {
	mu       sync.RWMutex
	products map[primitive.ObjectID]model.Product
	byNombre map[string]primitive.ObjectID
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		products: make(map[primitive.ObjectID]model.Product),
		byNombre: make(map[string]primitive.ObjectID),
	}
}

func (r *MemoryProductRepository) EnsureIndexes(context.Context) error { return nil }

func (r *MemoryProductRepository) Insert(_ context.Context, product *model.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byNombre[product.Nombre]; taken {
		return ErrDuplicate
	}
	now := time.Now().UTC().Truncate(time.Millisecond)
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	r.products[product.ID] = clone(*product)
	r.byNombre[product.Nombre] = product.ID
	return nil
}

func (r *MemoryProductRepository) FindAll(_ context.Context, filter model.ProductFilter) ([]model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Product{}
	for _, p := range r.products {
		if filter.Matches(p) {
			out = append(out, clone(p))
		}
	}
	model.SortByNombre(out)
	return out, nil
}

func (r *MemoryProductRepository) FindByID(_ context.Context, id primitive.ObjectID) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	p = clone(p)
	return &p, nil
}

func (r *MemoryProductRepository) FindByNombre(ctx context.Context, nombre string) (*model.Product, error) {
	r.mu.RLock()
	id, ok := r.byNombre[nombre]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	return r.FindByID(ctx, id)
}

func (r *MemoryProductRepository) Update(_ context.Context, id primitive.ObjectID, updated *model.Product) (*model.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.products[id]
	if !ok {
		return nil, ErrNotFound
	}
	if owner, taken := r.byNombre[updated.Nombre]; taken && owner != id {
		return nil, ErrDuplicate
	}

	next := clone(*updated)
	next.ID = id
	next.CreatedAt = current.CreatedAt
	next.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

	delete(r.byNombre, current.Nombre)
	r.byNombre[next.Nombre] = id
	r.products[id] = next
	next = clone(next)
	return &next, nil
}

func (r *MemoryProductRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.products[id]
	if !ok {
		return ErrNotFound
	}
	delete(r.products, id)
	delete(r.byNombre, p.Nombre)
	return nil
}

func (r *MemoryProductRepository) Count(_ context.Context, filter model.ProductFilter) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var n int64
	for _, p := range r.products {
		if filter.Matches(p) {
			n++
		}
	}
	return n, nil
}

func clone(p model.Product) model.Product {
	if p.Objeto3D != nil {
		o := *p.Objeto3D
		p.Objeto3D = &o
	}
	return p
}
