// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is anyone who can sign in: members, MC leaders, branch admins and
// super admins.
//
// NOTE:
//   - Role is stored as the plain string. Reads go through rbac.Parse, so a
//     hand-edited or legacy value ranks 0 instead of failing.
//   - Super admins have no BranchID; everyone else belongs to one branch.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	LoginID      string              `bson:"login_id" json:"login_id"`
	LoginIDCI    string              `bson:"login_id_ci" json:"-"`
	Email        string              `bson:"email,omitempty" json:"email,omitempty"`
	PasswordHash string              `bson:"password_hash,omitempty" json:"-"`
	Role         string              `bson:"role" json:"role"` // member | mc_leader | branch_admin | super_admin
	Status       string              `bson:"status,omitempty" json:"status,omitempty"`
	BranchID     *primitive.ObjectID `bson:"branch_id,omitempty" json:"branch_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
