// Command branchreport runs one branch report aggregation and prints the
// per-branch status table. It is meant to be invoked from cron.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"github.com/dalemusser/branchhub/internal/app/bootstrap"
	"github.com/dalemusser/branchhub/internal/app/store/branches"
	"github.com/dalemusser/branchhub/internal/app/store/branchreports"
	userstore "github.com/dalemusser/branchhub/internal/app/store/users"
	"github.com/dalemusser/branchhub/internal/app/system/reporting"
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
		dryRun   bool
		verbose  bool
	)

	flagSet := pflag.NewFlagSet("branchreport", pflag.ContinueOnError)
	flagSet.StringVar(&mongoURI, "mongo-uri", envOr("BRANCHHUB_MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection URI")
	flagSet.StringVar(&mongoDB, "mongo-db", envOr("BRANCHHUB_MONGO_DATABASE", "branchhub"), "MongoDB database name")
	flagSet.BoolVar(&dryRun, "dry-run", false, "compute the rows but do not store them")
	flagSet.BoolVarP(&verbose, "verbose", "v", false, "log progress to stderr")

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}

	logger := zap.NewNop()
	if verbose {
		var err error
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps, err := bootstrap.ConnectDB(ctx, nil, bootstrap.AppConfig{MongoURI: mongoURI, MongoDatabase: mongoDB}, logger)
	if err != nil {
		return err
	}
	defer func() { _ = deps.BranchHubMongoClient.Disconnect(context.Background()) }()

	db := deps.BranchHubMongoDatabase
	var sink reporting.Sink
	if !dryRun {
		sink = branchreports.New(db)
	}
	runner := reporting.NewRunner(branches.New(db), reporting.UserSource{Users: userstore.New(db)}, sink, logger)

	runCtx, cancel := context.WithTimeout(ctx, timeouts.Long())
	defer cancel()

	sum, err := runner.Run(runCtx)
	if err != nil {
		return err
	}

	printSummary(os.Stdout, sum, dryRun)
	if sum.Failed > 0 {
		return fmt.Errorf("%d of %d branches failed", sum.Failed, len(sum.Rows))
	}
	return nil
}

func printSummary(w io.Writer, sum reporting.Summary, dryRun bool) {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "BRANCH\tSTATUS\tMEMBERS\tLEADERS\tADMINS\tERROR")
	for _, row := range sum.Rows {
		if row.Status == models.ReportOK {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t\n", row.BranchName, row.Status, row.Members, row.Leaders, row.Admins)
		} else {
			fmt.Fprintf(tw, "%s\t%s\t-\t-\t-\t%s\n", row.BranchName, row.Status, row.Error)
		}
	}
	_ = tw.Flush()

	mode := "stored"
	if dryRun {
		mode = "dry run, not stored"
	}
	fmt.Fprintf(w, "\nrun %s: %d ok, %d failed (%s)\n", sum.RunID, sum.OK, sum.Failed, mode)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
