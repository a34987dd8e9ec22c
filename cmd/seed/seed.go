package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nulzo/registry-sync/internal/presets"
	"github.com/nulzo/registry-sync/internal/store/sqlite"
)

// Seeds the database with a local Ollama provider so a fresh install has
// something to sync immediately.
func main() {
	repo, err := sqlite.NewSQLiteStorage("registry-sync.db", zap.NewNop())
	if err != nil {
		log.Fatal(err)
	}
	defer repo.Close()

	ctx := context.Background()

	preset, _ := presets.BySlug("ollama-local")
	prov := preset.Provider()
	prov.ID = uuid.New().String()
	prov.CreatedAt = time.Now().UTC()
	prov.UpdatedAt = prov.CreatedAt

	if err := repo.Providers().Create(ctx, &prov); err != nil {
		log.Printf("Provider might already exist: %v", err)
	} else {
		fmt.Printf("Created provider: %s (%s)\n", prov.Name, prov.ID)
	}

	fmt.Println("\nSuccessfully seeded database!")
	fmt.Println("Start the server and POST /api/v1/sync to run a first pass.")
}
