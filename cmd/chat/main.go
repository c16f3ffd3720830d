package main

import (
	"log"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"

	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/app"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/config"
	"github.com/Zephyr-ace/Mentis-KI-Challange-Version/internal/tui"
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

	orchestrator := a.ChatOrchestrator()
	model := tui.New("Diary Chat", orchestrator.Answer)
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		log.Fatalf("chat failed: %v", err)
	}
}
