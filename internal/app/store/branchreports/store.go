package branchreports

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/branchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection is the branch_reports collection name.
const Collection = "branch_reports"

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection)}
}

// SaveRun inserts the rows of one report run. Rows without an ID or
// timestamp get one.
func (s *Store) SaveRun(ctx context.Context, rows []models.BranchReport) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, len(rows))
	for i := range rows {
		if rows[i].ID.IsZero() {
			rows[i].ID = primitive.NewObjectID()
		}
		if rows[i].CreatedAt.IsZero() {
			rows[i].CreatedAt = now
		}
		if rows[i].RunID == "" {
			return errors.New("branch report row without run id")
		}
		docs[i] = rows[i]
	}
	_, err := s.c.InsertMany(ctx, docs)
	return err
}

// LatestForBranch returns up to limit rows for branchID, newest first.
func (s *Store) LatestForBranch(ctx context.Context, branchID primitive.ObjectID, limit int64) ([]models.BranchReport, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"branch_id": branchID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BranchReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ByRun returns every row of runID ordered by branch name.
func (s *Store) ByRun(ctx context.Context, runID string) ([]models.BranchReport, error) {
	cur, err := s.c.Find(ctx, bson.M{"run_id": runID},
		options.Find().SetSort(bson.D{{Key: "branch_name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BranchReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// EnsureIndexes creates the indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "branch_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("branch_created"),
		},
		{
			Keys:    bson.D{{Key: "run_id", Value: 1}},
			Options: options.Index().SetName("run_id"),
		},
	})
	return err
}
