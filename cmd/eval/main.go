package main

import (
	"context"
	"fmt"
	"log"

	"github.com/joho/godotenv"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/app"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/config"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/eval"
)

func main() {
	_ = godotenv.Load()

	cfg, _, err := config.LoadDefault()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	a, err := app.New(cfg, nil)
	if err != nil {
		log.Fatalf("failed to assemble application: %v", err)
	}
	defer a.Close()

	set, err := eval.LoadCases(cfg.Eval.CasesPath)
	if err != nil {
		log.Fatalf("failed to load evaluation cases: %v", err)
	}

	report, err := a.Evaluator().Run(context.Background(), set)
	if err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}

	path, err := eval.WriteReport(cfg.Eval.ResultsDir, report)
	if err != nil {
		log.Fatalf("failed to write report: %v", err)
	}

	fmt.Println(eval.RenderSummary(report))
	fmt.Printf("Report written to %s\n", path)
}
