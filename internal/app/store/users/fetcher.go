package userstore

import (
	"context"
	"errors"

	"github.com/dalemusser/branchhub/internal/app/store/branches"
	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/app/system/normalize"
	"github.com/dalemusser/branchhub/internal/app/system/timeouts"
	"github.com/dalemusser/branchhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// Fetcher implements auth.UserFetcher to load fresh user data on each request.
type Fetcher struct {
	users    *mongo.Collection
	branches *mongo.Collection
	log      *zap.Logger
}

// NewFetcher creates a UserFetcher that queries the given database.
func NewFetcher(db *mongo.Database, logger *zap.Logger) *Fetcher {
	return &Fetcher{
		users:    db.Collection(Collection),
		branches: db.Collection(branches.Collection),
		log:      logger,
	}
}

// FetchUser retrieves a user by ID and returns nil if the user is not found,
// disabled, or if any error occurs. This implements auth.UserFetcher.
// Database errors other than a miss are logged at warn, since the caller
// only sees an anonymous request.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	var u models.User
	proj := options.FindOne().SetProjection(bson.M{
		"_id":       1,
		"full_name": 1,
		"login_id":  1,
		"role":      1,
		"status":    1,
		"branch_id": 1,
	})
	if err := f.users.FindOne(ctx, bson.M{"_id": oid}, proj).Decode(&u); err != nil {
		if !errors.Is(err, mongo.ErrNoDocuments) {
			f.log.Warn("user fetch failed; treating request as anonymous",
				zap.String("user_id", userID),
				zap.Error(err))
		}
		return nil
	}

	if normalize.Status(u.Status) != "active" {
		return nil
	}

	su := &auth.SessionUser{
		ID:      u.ID.Hex(),
		Name:    u.FullName,
		LoginID: u.LoginID,
		// Unknown stored roles pass through and rank 0 at the gate.
		Role: normalize.Role(u.Role),
	}

	if u.BranchID != nil {
		su.BranchID = u.BranchID.Hex()

		var b models.Branch
		bproj := options.FindOne().SetProjection(bson.M{"name": 1})
		err := f.branches.FindOne(ctx, bson.M{"_id": u.BranchID}, bproj).Decode(&b)
		switch {
		case err == nil:
			su.BranchName = b.Name
		case !errors.Is(err, mongo.ErrNoDocuments):
			f.log.Warn("branch lookup failed for session user",
				zap.String("user_id", userID),
				zap.Error(err))
		}
		// A failed branch lookup still returns the user with an empty branch name.
	}

	return su
}
