package model

import (
	"sort"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Product is a catalog entry of the "productos" collection.
type Product struct {
	ID          primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Nombre      string             `json:"nombre" bson:"nombre"`
	Color       string             `json:"color,omitempty" bson:"color,omitempty"`
	Categoria   string             `json:"categoria" bson:"categoria"`
	Codigo      string             `json:"codigo" bson:"codigo"`
	Tipo        string             `json:"tipo" bson:"tipo"`
	Imagen      string             `json:"imagen,omitempty" bson:"imagen,omitempty"`
	Objeto3D    *Objeto3D          `json:"objeto3D,omitempty" bson:"objeto3D,omitempty"`
	PrecioVenta float64            `json:"precioVenta" bson:"precioVenta"`
	Slug        string             `json:"slug,omitempty" bson:"slug,omitempty"`
	CreatedAt   time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt   time.Time          `json:"updatedAt" bson:"updatedAt"`

	// Object name of an uploaded image, so it can be removed when replaced.
	ImagenObject string `json:"-" bson:"imagenObject,omitempty"`
}

// Objeto3D references a 3D model of the product.
type Objeto3D struct {
	URL        string `json:"url" bson:"url" validate:"required,max=2048,asset_ref"`
	Formato    string `json:"formato,omitempty" bson:"formato,omitempty" validate:"max=32"`
	ObjectName string `json:"-" bson:"objectName,omitempty"`
}

// ProductInput is the create/update payload. "image" is accepted as an alias
// of "imagen" because older front-end builds send it.
type ProductInput struct {
	Nombre      string    `json:"nombre" validate:"required,max=120"`
	Color       string    `json:"color" validate:"max=60"`
	Categoria   string    `json:"categoria" validate:"required,max=120"`
	Codigo      string    `json:"codigo" validate:"required,max=60"`
	Tipo        string    `json:"tipo" validate:"required,max=120"`
	Imagen      string    `json:"imagen" validate:"max=2048"`
	Image       string    `json:"image,omitempty" validate:"max=2048"`
	Objeto3D    *Objeto3D `json:"objeto3D,omitempty"`
	PrecioVenta *float64  `json:"precioVenta,omitempty" validate:"omitempty,gte=0"`
}

// Normalize trims every string field and folds Image into Imagen.
func (in *ProductInput) Normalize() {
	in.Nombre = strings.TrimSpace(in.Nombre)
	in.Color = strings.TrimSpace(in.Color)
	in.Categoria = strings.TrimSpace(in.Categoria)
	in.Codigo = strings.TrimSpace(in.Codigo)
	in.Tipo = strings.TrimSpace(in.Tipo)
	in.Imagen = strings.TrimSpace(in.Imagen)
	in.Image = strings.TrimSpace(in.Image)
	if in.Imagen == "" {
		in.Imagen = in.Image
	}
	in.Image = ""
	if in.Objeto3D != nil {
		in.Objeto3D.URL = strings.TrimSpace(in.Objeto3D.URL)
		in.Objeto3D.Formato = strings.ToLower(strings.TrimSpace(in.Objeto3D.Formato))
		in.Objeto3D.ObjectName = ""
	}
}

// ProductFilter holds the optional exact-match filters of a listing.
type ProductFilter struct {
	Tipo      string
	Nombre    string
	Categoria string
}

func (f ProductFilter) Matches(p Product) bool {
	return (f.Tipo == "" || p.Tipo == f.Tipo) &&
		(f.Nombre == "" || p.Nombre == f.Nombre) &&
		(f.Categoria == "" || p.Categoria == f.Categoria)
}

// CacheKey is stable for equal filters.
func (f ProductFilter) CacheKey() string {
	return "tipo=" + f.Tipo + "|nombre=" + f.Nombre + "|categoria=" + f.Categoria
}

// SortByNombre orders products the way listings are returned.
func SortByNombre(products []Product) {
	sort.SliceStable(products, func(i, j int) bool {
		return products[i].Nombre < products[j].Nombre
	})
}
