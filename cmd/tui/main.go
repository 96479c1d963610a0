package main

import (
	"fmt"
	"os"

	"github.com/arnavchau/authd/cmd/tui/client"
	"github.com/arnavchau/authd/cmd/tui/ui"
	tea "github.com/charmbracelet/bubbletea"
)

func main() {

	baseURL := os.Getenv("AUTHD_URL")
	if baseURL == "" {
		baseURL = "http://localhost:3000"
	}

	authClient := client.NewAuthClient(baseURL)

	p := tea.NewProgram(
		ui.NewModel(authClient),
		tea.WithAltScreen(),
	)

	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
