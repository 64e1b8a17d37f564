package reporting

import (
	"context"

	userstore "github.com/dalemusser/branchhub/internal/app/store/users"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserSource counts active users through the users store.
type UserSource struct {
	Users *userstore.Store
}

func (s UserSource) BranchCounts(ctx context.Context, branchID primitive.ObjectID) (Counts, error) {
	var c Counts
	for _, f := range []struct {
		role rbac.Role
		dst  *int64
	}{
		{rbac.Member, &c.Members},
		{rbac.MCLeader, &c.Leaders},
		{rbac.BranchAdmin, &c.Admins},
	} {
		n, err := s.Users.CountByBranch(ctx, branchID, f.role)
		if err != nil {
			return Counts{}, err
		}
		*f.dst = n
	}
	return c, nil
}
