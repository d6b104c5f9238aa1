package model

import "go.mongodb.org/mongo-driver/bson/primitive"

// User is read from the "users" collection. Credentials are never loaded.
type User struct {
	ID       primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Username string             `json:"username" bson:"username"`
	Email    string             `json:"email" bson:"email"`
	Rol      string             `json:"rol" bson:"rol"`
}
