// Command repair scans the denormalized aggregates (target like/scrap
// counters, poll vote totals, stamp totals) against the action ledger and
// reports drift. With -fix it also rewrites drifted aggregates to their
// ledger-derived values.
//
// Exit codes: 0 = no drift, 1 = error, 2 = drift found.
package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/modoo/community-backend/internal/app"
	"github.com/modoo/community-backend/internal/service/consistency"
)

func main() {
	fix := flag.Bool("fix", false, "rewrite drifted aggregates to their ledger-derived values")
	flag.Parse()

	_ = godotenv.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	a, err := app.Build(ctx)
	if err != nil {
		log.Fatalf("build application: %v", err)
	}
	defer a.Close()

	var report *consistency.Report
	if *fix {
		report, err = a.Consistency.Repair(ctx)
	} else {
		report, err = a.Consistency.Check(ctx)
	}
	if err != nil {
		a.Log.Error("consistency scan failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	for _, drift := range report.Drifts {
		a.Log.Warn("aggregate drift",
			slog.String("kind", string(drift.Kind)),
			slog.String("id", drift.ID.String()),
			slog.Int64("stored", drift.Stored),
			slog.Int64("derived", drift.Derived),
			slog.Bool("repaired", drift.Repaired),
		)
	}

	if len(report.Drifts) > 0 {
		os.Exit(2)
	}
}
