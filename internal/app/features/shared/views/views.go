// internal/app/features/shared/views/views.go
package views

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/branchhub/internal/app/system/auth"
	"github.com/dalemusser/branchhub/internal/domain/models"
)

// User is the JSON shape of a user in every response.
type User struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	LoginID    string `json:"login_id"`
	Role       string `json:"role"`
	Status     string `json:"status,omitempty"`
	BranchID   string `json:"branch_id,omitempty"`
	BranchName string `json:"branch_name,omitempty"`
}

// FromSession renders the signed-in user.
func FromSession(u *auth.SessionUser) User {
	return User{
		ID:         u.ID,
		Name:       u.Name,
		LoginID:    u.LoginID,
		Role:       u.Role.String(),
		BranchID:   u.BranchID,
		BranchName: u.BranchName,
	}
}

// FromModel renders a stored user. Password hashes never leave the model.
func FromModel(u models.User) User {
	v := User{
		ID:      u.ID.Hex(),
		Name:    u.FullName,
		LoginID: u.LoginID,
		Role:    u.Role,
		Status:  u.Status,
	}
	if u.BranchID != nil {
		v.BranchID = u.BranchID.Hex()
	}
	return v
}

// JSON writes v with status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
