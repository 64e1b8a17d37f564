package branches

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dalemusser/branchhub/internal/app/system/normalize"
	"github.com/dalemusser/branchhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the branches collection name.
const Collection = "branches"

// ErrDuplicateCode is returned when a branch code is already in use.
var ErrDuplicateCode = errors.New("a branch with this code already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// Create inserts a branch. Code is upper-cased and must be unique.
func (s *Store) Create(ctx context.Context, b models.Branch) (models.Branch, error) {
	b.ID = primitive.NewObjectID()
	b.Name = normalize.Name(b.Name)
	b.NameCI = text.Fold(b.Name)
	b.Code = strings.ToUpper(strings.TrimSpace(b.Code))
	b.Status = normalize.Status(b.Status)
	if b.Name == "" || b.Code == "" {
		return models.Branch{}, errors.New("branch name and code are required")
	}

	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, b); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Branch{}, ErrDuplicateCode
		}
		return models.Branch{}, err
	}
	return b, nil
}

// GetByID loads a branch by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Branch, error) {
	var b models.Branch
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListActive returns active branches ordered by name.
func (s *Store) ListActive(ctx context.Context) ([]models.Branch, error) {
	cur, err := s.c.Find(ctx, bson.M{"status": "active"},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Branch
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureIndexes creates the indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("uniq_code"),
	})
	return err
}
