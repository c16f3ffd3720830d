package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/app"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/config"
)

func main() {
	_ = godotenv.Load()

	cfg, _, err := config.LoadDefault()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	store, closeStore, err := app.NewStore(cfg)
	if err != nil {
		log.Fatalf("failed to connect to vector store: %v", err)
	}
	defer closeStore()

	ctx := context.Background()
	for _, collection := range []string{cfg.Collections.Chunks, cfg.Collections.Summaries, cfg.Collections.Main} {
		if err := store.DeleteCollection(ctx, collection); err != nil {
			log.Fatalf("failed to drop collection %s: %v", collection, err)
		}
		fmt.Printf("Dropped collection %s\n", collection)
	}

	if err := os.RemoveAll(cfg.Eval.ResultsDir); err != nil {
		log.Fatalf("failed to remove results dir %s: %v", cfg.Eval.ResultsDir, err)
	}
	fmt.Printf("Removed %s\n", cfg.Eval.ResultsDir)
}
