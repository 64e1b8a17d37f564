// internal/domain/models/branchreport.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Branch report row statuses.
const (
	ReportOK     = "ok"
	ReportFailed = "failed"
)

// BranchReport is one status row from a report run. Every row written by the
// same run shares RunID.
type BranchReport struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	RunID      string             `bson:"run_id" json:"run_id"`
	BranchID   primitive.ObjectID `bson:"branch_id" json:"branch_id"`
	BranchName string             `bson:"branch_name" json:"branch_name"`
	Status     string             `bson:"status" json:"status"`
	Members    int64              `bson:"members" json:"members"`
	Leaders    int64              `bson:"leaders" json:"leaders"`
	Admins     int64              `bson:"admins" json:"admins"`
	Error      string             `bson:"error,omitempty" json:"error,omitempty"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
}
