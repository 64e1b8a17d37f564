// internal/domain/models/branch.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Branch is a local chapter. Users other than super admins belong to one.
type Branch struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"-"`
	Code      string             `bson:"code" json:"code"`
	Status    string             `bson:"status" json:"status"` // active | disabled
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
