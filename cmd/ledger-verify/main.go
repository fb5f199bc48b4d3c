// ledger-verify replays every part's stock movement ledger and compares the
// result against the cached current_stock column. A mismatch means a write
// path bypassed the ledger; the tool reports, it never repairs.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/ledger-verify [--part-id=N]
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/sav_backend/config"
	"bitbucket.org/mmdatafocus/sav_backend/models"
	"bitbucket.org/mmdatafocus/sav_backend/workflow"
)

func main() {
	partId := flag.Int("part-id", 0, "Verify a single part (default: all parts)")
	flag.Parse()

	ctx := context.Background()
	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	var parts []*models.Part
	q := db.WithContext(ctx).Model(&models.Part{})
	if *partId > 0 {
		q = q.Where("id = ?", *partId)
	}
	if err := q.Order("id ASC").Find(&parts).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to list parts: %v\n", err)
		os.Exit(1)
	}
	if len(parts) == 0 {
		fmt.Fprintln(os.Stderr, "no parts found")
		os.Exit(2)
	}

	mismatches := 0
	for _, part := range parts {
		stored, replayed, err := workflow.VerifyPartLedger(ctx, part.ID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "part %d (%s): verify failed: %v\n", part.ID, part.Sku, err)
			mismatches++
			continue
		}
		if stored != replayed {
			fmt.Printf("MISMATCH part %d (%s): stored=%d replayed=%d\n", part.ID, part.Sku, stored, replayed)
			mismatches++
			continue
		}
		fmt.Printf("ok part %d (%s): stock=%d\n", part.ID, part.Sku, stored)
	}

	if mismatches > 0 {
		fmt.Printf("%d of %d parts inconsistent\n", mismatches, len(parts))
		os.Exit(3)
	}
	fmt.Printf("all %d parts consistent\n", len(parts))
}
