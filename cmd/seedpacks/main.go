package main

import (
	"log"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/repository"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/database"
	"github.com/hydrooooooooooo/Testingfun-sub003/internal/pkg/env"
)

// Resets the pack catalog to the built-in defaults. Run after deploys that
// change pack pricing.
func main() {
	env.SetupEnvFile()
	database.SetupDatabase()

	repo := repository.NewPackRepository(database.GetDB())
	if err := repo.ReseedDefaults(); err != nil {
		log.Fatalf("failed to reseed packs: %v", err)
	}

	packs, err := repo.GetAll()
	if err != nil {
		log.Fatalf("failed to list packs: %v", err)
	}
	for _, p := range packs {
		log.Printf("pack %s: %s (%d credits, %.2f EUR / %d MGA)", p.PackID, p.Name, p.NbDownloads, float64(p.PriceEURCents)/100, p.PriceMGA)
	}
}
