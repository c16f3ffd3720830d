package main

import (
	"context"
	"flag"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/app"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/config"
)

func main() {
	_ = godotenv.Load()

	var corpusPath string
	flag.StringVar(&corpusPath, "corpus", "", "Path to the corpus file (defaults to corpus.path from config)")
	flag.Parse()

	cfg, _, err := config.LoadDefault()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	a, err := app.New(cfg, nil)
	if err != nil {
		log.Fatalf("failed to assemble application: %v", err)
	}
	defer a.Close()

	doc, err := a.LoadCorpus(corpusPath)
	if err != nil {
		log.Fatalf("failed to read corpus: %v", err)
	}

	written, err := a.Pipeline().EncodeMain(context.Background(), doc)
	if err != nil {
		log.Fatalf("encode-main failed: %v", err)
	}
	fmt.Printf("Encoded %s: %d chunks into %s\n", doc.Path, written, cfg.Collections.Main)
}
