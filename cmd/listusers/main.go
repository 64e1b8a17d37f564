// Command listusers prints users ordered by role rank (highest first), then
// by name. It is a debugging aid for checking who can reach what.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/dalemusser/branchhub/internal/app/bootstrap"
	userstore "github.com/dalemusser/branchhub/internal/app/store/users"
	"github.com/dalemusser/branchhub/internal/app/system/rbac"
	"github.com/dalemusser/branchhub/internal/app/system/timeouts"
	"github.com/dalemusser/branchhub/internal/domain/models"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		mongoURI string
		mongoDB  string
		roleFlag string
	)

	flagSet := pflag.NewFlagSet("listusers", pflag.ContinueOnError)
	flagSet.StringVar(&mongoURI, "mongo-uri", envOr("BRANCHHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	flagSet.StringVar(&mongoDB, "mongo-db", envOr("BRANCHHUB_MONGO_DATABASE", "branchhub"), "MongoDB database name")
	flagSet.StringVar(&roleFlag, "role", "", "only list users holding exactly this role")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	var filter userstore.ListFilter
	if roleFlag != "" {
		role, err := rbac.ParseKnown(roleFlag)
		if err != nil {
			return err
		}
		filter.Roles = []rbac.Role{role}
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
	defer cancel()

	deps, err := bootstrap.ConnectDB(ctx, nil, bootstrap.AppConfig{MongoURI: mongoURI, MongoDatabase: mongoDB}, zap.NewNop())
	if err != nil {
		return err
	}
	defer func() { _ = deps.BranchHubMongoClient.Disconnect(context.Background()) }()

	users, err := userstore.New(deps.BranchHubMongoDatabase).List(ctx, filter)
	if err != nil {
		return err
	}

	sortByRank(users, rbac.DefaultHierarchy())
	printUsers(os.Stdout, users, rbac.DefaultHierarchy())
	return nil
}

// sortByRank orders users by rank descending, then by folded name. Unknown
// roles rank 0 and sort last.
func sortByRank(users []models.User, h rbac.Hierarchy) {
	sort.SliceStable(users, func(i, j int) bool {
		ri, rj := h.Rank(rbac.Parse(users[i].Role)), h.Rank(rbac.Parse(users[j].Role))
		if ri != rj {
			return ri > rj
		}
		return users[i].FullNameCI < users[j].FullNameCI
	})
}

func printUsers(w io.Writer, users []models.User, h rbac.Hierarchy) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tROLE\tNAME\tLOGIN\tSTATUS\tBRANCH")
	for _, u := range users {
		branch := "-"
		if u.BranchID != nil {
			branch = u.BranchID.Hex()
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n",
			h.Rank(rbac.Parse(u.Role)), u.Role, u.FullName, u.LoginID, u.Status, branch)
	}
	_ = tw.Flush()
	fmt.Fprintf(w, "\n%d users\n", len(users))
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
