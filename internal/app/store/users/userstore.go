package userstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: The MongoDB ObjectID (_id) that uniquely identifies a user record
//   - LoginID / loginID / login_id: The human-readable string users type to log in

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/branchhub/internal/app/system/normalize"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/dalemusser/branchhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// Collection is the users collection name.
const Collection = "users"

type Store struct {
	c    *mongo.Collection
	cost int
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection(Collection), cost: bcrypt.DefaultCost}
}

// SetHashCost overrides the bcrypt cost. Tests use bcrypt.MinCost.
func (s *Store) SetHashCost(cost int) { s.cost = cost }

var (
	// ErrDuplicateLogin is returned when the login ID is already taken.
	ErrDuplicateLogin = errors.New("a user with this login id already exists")

	// ErrInvalidCredentials covers unknown login, wrong password, no password
	// set, and disabled accounts alike.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

var (
	errNoLogin      = errors.New("login_id is required")
	errBranchNeeded = errors.New("member/mc_leader/branch_admin must have branch_id")
	errBadStatus    = errors.New(`status must be "active"|"disabled"`)
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByLoginID looks up a user by case-insensitive login ID. Returns
// mongo.ErrNoDocuments if not found.
func (s *Store) GetByLoginID(ctx context.Context, loginID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"login_id_ci": normalize.LoginID(loginID)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user after normalizing & validating fields. A
// non-empty password is hashed with bcrypt.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.LoginIDCI = normalize.LoginID(u.LoginID)
	u.Email = normalize.Email(u.Email)
	u.Status = normalize.Status(u.Status)

	if u.LoginIDCI == "" {
		return models.User{}, errNoLogin
	}

	role, err := rbac.ParseKnown(u.Role)
	if err != nil {
		return models.User{}, err
	}
	u.Role = role.String()

	if u.Status != "active" && u.Status != "disabled" {
		return models.User{}, errBadStatus
	}

	// Everyone below super_admin is scoped to a branch.
	if role != rbac.SuperAdmin && u.BranchID == nil {
		return models.User{}, errBranchNeeded
	}

	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
		if err != nil {
			return models.User{}, fmt.Errorf("hash password: %w", err)
		}
		u.PasswordHash = string(hash)
	}

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateLogin
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate returns the active user whose login ID and password match.
func (s *Store) Authenticate(ctx context.Context, loginID, password string) (*models.User, error) {
	u, err := s.GetByLoginID(ctx, loginID)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if normalize.Status(u.Status) != "active" || u.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	return u, nil
}

// EnsureSuperAdmin promotes the user with loginID to super_admin, creating
// it when missing. A non-empty password replaces the stored hash. Returns
// true when a new user was inserted.
func (s *Store) EnsureSuperAdmin(ctx context.Context, loginID, password string) (bool, error) {
	loginCI := normalize.LoginID(loginID)
	if loginCI == "" {
		return false, errNoLogin
	}

	now := time.Now().UTC()
	set := bson.M{
		"role":       rbac.SuperAdmin.String(),
		"status":     "active",
		"updated_at": now,
	}
	if password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
		if err != nil {
			return false, fmt.Errorf("hash password: %w", err)
		}
		set["password_hash"] = string(hash)
	}

	res, err := s.c.UpdateOne(ctx,
		bson.M{"login_id_ci": loginCI},
		bson.M{
			"$set":   set,
			"$unset": bson.M{"branch_id": ""},
			"$setOnInsert": bson.M{
				"login_id":     loginID,
				"full_name":    loginID,
				"full_name_ci": text.Fold(loginID),
				"created_at":   now,
			},
		},
		options.Update().SetUpsert(true),
	)
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// ListFilter narrows List. Zero values mean "no restriction".
type ListFilter struct {
	Roles    []rbac.Role
	BranchID *primitive.ObjectID
	Status   string
}

func (f ListFilter) query() bson.M {
	q := bson.M{}
	if len(f.Roles) > 0 {
		roles := make([]string, len(f.Roles))
		for i, r := range f.Roles {
			roles[i] = r.String()
		}
		q["role"] = bson.M{"$in": roles}
	}
	if f.BranchID != nil {
		q["branch_id"] = *f.BranchID
	}
	if f.Status != "" {
		q["status"] = f.Status
	}
	return q
}

// List returns users matching f ordered by name.
func (s *Store) List(ctx context.Context, f ListFilter) ([]models.User, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}).
		SetProjection(bson.M{"password_hash": 0})

	cur, err := s.c.Find(ctx, f.query(), opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByBranch counts active users of role in branchID.
func (s *Store) CountByBranch(ctx context.Context, branchID primitive.ObjectID, role rbac.Role) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{
		"branch_id": branchID,
		"role":      role.String(),
		"status":    "active",
	})
}

// EnsureIndexes creates the indexes the store relies on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "login_id_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_login_id_ci"),
		},
		{
			Keys:    bson.D{{Key: "branch_id", Value: 1}, {Key: "role", Value: 1}},
			Options: options.Index().SetName("branch_role"),
		},
	})
	return err
}
