package repository

import (
	"context"

	"muebles-catalog/internal/logger"
	"muebles-catalog/internal/model"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel"
)

const UserCollection = "users"

type UserRepository struct {
	collection *mongo.Collection
}

var UserRepositoryTracer = otel.Tracer("UserRepository")

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{
		collection: db.Collection(UserCollection),
	}
}

// FindAll returns users ordered by username, optionally restricted to one rol.
// Password hashes are projected out.
func (r *UserRepository) FindAll(ctx context.Context, rol string) ([]model.User, error) {
	ctx, span := UserRepositoryTracer.Start(ctx, "UserRepository.FindAll")
	defer span.End()
	logger.Info(ctx, "Repository")

	filter := bson.M{}
	if rol != "" {
		filter["rol"] = rol
	}
	opts := options.Find().
		SetProjection(bson.M{"password": 0}).
		SetSort(bson.D{{Key: "username", Value: 1}})

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, translate(err)
	}
	defer cursor.Close(ctx)

	users := []model.User{}
	if err := cursor.All(ctx, &users); err != nil {
		return nil, translate(err)
	}
	return users, nil
}
