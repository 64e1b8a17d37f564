package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/branchhub/internal/app/system/normalize"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/dalemusser/branchhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"golang.org/x/crypto/bcrypt"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// CreateBranch inserts an active branch.
func (f *Fixtures) CreateBranch(ctx context.Context, name, code string) models.Branch {
	f.t.Helper()

	now := time.Now().UTC()
	b := models.Branch{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Code:      code,
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("branches").InsertOne(ctx, b); err != nil {
		f.t.Fatalf("failed to create test branch: %v", err)
	}
	return b
}

// CreateUser inserts an active user. An empty password leaves the user
// without a hash, which makes sign-in impossible.
func (f *Fixtures) CreateUser(ctx context.Context, fullName, loginID string, role rbac.Role, branchID *primitive.ObjectID, password string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:         primitive.NewObjectID(),
		FullName:   fullName,
		FullNameCI: text.Fold(fullName),
		LoginID:    loginID,
		LoginIDCI:  normalize.LoginID(loginID),
		Role:       role.String(),
		Status:     "active",
		BranchID:   branchID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if password != "" {
		// MinCost keeps fixtures fast.
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			f.t.Fatalf("hash password: %v", err)
		}
		u.PasswordHash = string(hash)
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateMember creates a member of branchID.
func (f *Fixtures) CreateMember(ctx context.Context, fullName, loginID string, branchID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, loginID, rbac.Member, &branchID, "")
}

// CreateLeader creates an MC leader of branchID.
func (f *Fixtures) CreateLeader(ctx context.Context, fullName, loginID string, branchID primitive.ObjectID) models.User {
	f.t.Helper()
	return f.CreateUser(ctx, fullName, loginID, rbac.MCLeader, &branchID, "")
}

// CreateDisabledUser creates a member whose status is disabled.
func (f *Fixtures) CreateDisabledUser(ctx context.Context, fullName, loginID string, branchID primitive.ObjectID) models.User {
	f.t.Helper()
	u := f.CreateMember(ctx, fullName, loginID, branchID)
	if _, err := f.db.Collection("users").UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{"status": "disabled"}}); err != nil {
		f.t.Fatalf("disable user: %v", err)
	}
	u.Status = "disabled"
	return u
}
