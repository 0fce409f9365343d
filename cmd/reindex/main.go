package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"

	"github.com/yungbote/skillhub-backend/internal/app"
	"github.com/yungbote/skillhub-backend/internal/platform/dbctx"
)

func main() {
	var dryRun bool
	flag.BoolVar(&dryRun, "dry-run", false, "count embedding rows without writing to the index")
	flag.Parse()

	ctx := context.Background()
	application, err := app.New(ctx)
	if err != nil {
		fmt.Printf("init app: %v\n", err)
		os.Exit(1)
	}
	defer application.Close()

	if dryRun {
		n, err := countEmbeddings(ctx, application)
		if err != nil {
			fmt.Printf("count embeddings: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("dry run: %d embedding rows would be written to %s\n", n, application.Index.Name())
		return
	}

	if err := application.Reindex(ctx); err != nil {
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}
}

func countEmbeddings(ctx context.Context, a *app.App) (int, error) {
	dbc := dbctx.Context{Ctx: ctx}
	after := uuid.Nil
	total := 0
	for {
		rows, err := a.Repos.SkillEmbedding.ListPage(dbc, after, 500)
		if err != nil {
			return total, err
		}
		total += len(rows)
		if len(rows) < 500 {
			return total, nil
		}
		after = rows[len(rows)-1].ID
	}
}
