package repository

import (
	"context"
	"log/slog"
	"time"

	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const (
	ProductCollection = "productos"

	nombreIndexName = "nombre_unique"
	tipoIndexName   = "tipo_idx"
)

type ProductRepository struct {
	collection *mongo.Collection
}

// DuplicateName is one nombre stored more than once, found by FindDuplicateNames.
type DuplicateName struct {
	Nombre string               `bson:"_id"`
	Count  int                  `bson:"count"`
	IDs    []primitive.ObjectID `bson:"ids"`
}

var ProductRepositoryTracer = otel.Tracer("ProductRepository")

func NewProductRepository(db *mongo.Database) *ProductRepository {
	return &ProductRepository{
		collection: db.Collection(ProductCollection),
	}
}

// EnsureIndexes creates the unique nombre index and the tipo index. Creating
// the unique index fails while duplicated names are stored.
func (r *ProductRepository) EnsureIndexes(ctx context.Context) error {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.EnsureIndexes")
	defer span.End()
	logger.Info(ctx, "Repository")

	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "nombre", Value: 1}},
			Options: options.Index().SetName(nombreIndexName).SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "tipo", Value: 1}},
			Options: options.Index().SetName(tipoIndexName),
		},
	})
	return translate(err)
}

func (r *ProductRepository) Insert(ctx context.Context, product *model.Product) error {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Insert")
	defer span.End()
	logger.Info(ctx, "Repository", slog.String("nombre", product.Nombre))

	now := time.Now().UTC().Truncate(time.Millisecond)
	product.ID = primitive.NewObjectID()
	product.CreatedAt = now
	product.UpdatedAt = now
	if _, err := r.collection.InsertOne(ctx, product); err != nil {
		product.ID = primitive.NilObjectID
		return translate(err)
	}
	return nil
}

func filterDoc(filter model.ProductFilter) bson.M {
	doc := bson.M{}
	if filter.Tipo != "" {
		doc["tipo"] = filter.Tipo
	}
	if filter.Nombre != "" {
		doc["nombre"] = filter.Nombre
	}
	if filter.Categoria != "" {
		doc["categoria"] = filter.Categoria
	}
	return doc
}

func (r *ProductRepository) FindAll(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindAll")
	defer span.End()
	span.SetAttributes(attribute.String("filter.tipo", filter.Tipo))
	logger.Info(ctx, "Repository")

	opts := options.Find().SetSort(bson.D{{Key: "nombre", Value: 1}})
	cursor, err := r.collection.Find(ctx, filterDoc(filter), opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	products := []model.Product{}
	for cursor.Next(ctx) {
		var product model.Product
		if err := cursor.Decode(&product); err != nil {
			return nil, err
		}
		products = append(products, product)
	}
	return products, translate(cursor.Err())
}

func (r *ProductRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindByID")
	defer span.End()
	logger.Info(ctx, "Repository")

	var product model.Product
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepository) FindByNombre(ctx context.Context, nombre string) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindByNombre")
	defer span.End()
	logger.Info(ctx, "Repository", slog.String("nombre", nombre))

	var product model.Product
	if err := r.collection.FindOne(ctx, bson.M{"nombre": nombre}).Decode(&product); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// Update replaces the editable fields and returns the stored document.
func (r *ProductRepository) Update(ctx context.Context, id primitive.ObjectID, updated *model.Product) (*model.Product, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Update")
	defer span.End()
	logger.Info(ctx, "Repository")

	set := bson.M{
		"nombre":      updated.Nombre,
		"color":       updated.Color,
		"categoria":   updated.Categoria,
		"codigo":      updated.Codigo,
		"tipo":        updated.Tipo,
		"imagen":      updated.Imagen,
		"precioVenta": updated.PrecioVenta,
		"slug":        updated.Slug,
		"updatedAt":   time.Now().UTC().Truncate(time.Millisecond),
	}
	update := bson.M{"$set": set}
	unset := bson.M{}
	if updated.Objeto3D != nil {
		set["objeto3D"] = updated.Objeto3D
	} else {
		unset["objeto3D"] = ""
	}
	if updated.ImagenObject != "" {
		set["imagenObject"] = updated.ImagenObject
	} else {
		unset["imagenObject"] = ""
	}
	if len(unset) > 0 {
		update["$unset"] = unset
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var product model.Product
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&product); err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

func (r *ProductRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Delete")
	defer span.End()
	logger.Info(ctx, "Repository")

	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return translate(err)
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Count(ctx context.Context, filter model.ProductFilter) (int64, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.Count")
	defer span.End()
	logger.Info(ctx, "Repository")

	n, err := r.collection.CountDocuments(ctx, filterDoc(filter))
	return n, translate(err)
}

// FindDuplicateNames lists every nombre stored more than once. Only data
// written before the unique index existed can produce results.
func (r *ProductRepository) FindDuplicateNames(ctx context.Context) ([]DuplicateName, error) {
	ctx, span := ProductRepositoryTracer.Start(ctx, "ProductRepository.FindDuplicateNames")
	defer span.End()
	logger.Info(ctx, "Repository")

	pipeline := mongo.Pipeline{
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$nombre"},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
			{Key: "ids", Value: bson.D{{Key: "$push", Value: "$_id"}}},
		}}},
		{{Key: "$match", Value: bson.D{{Key: "count", Value: bson.D{{Key: "$gt", Value: 1}}}}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	dups := []DuplicateName{}
	if err := cursor.All(ctx, &dups); err != nil {
		return nil, translate(err)
	}
	return dups, nil
}
