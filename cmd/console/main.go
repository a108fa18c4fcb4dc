package main

import (
	"bufio"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/jwebster45206/gatekeeper/pkg/scene"
)

type ConsoleConfig struct {
	APIBaseURL string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		Timeout:    90 * time.Second,
	}

	client := &http.Client{
		Timeout: cfg.Timeout,
	}

	if !testConnection(client, cfg.APIBaseURL) {
		fmt.Fprintf(os.Stderr, "Could not connect to API. Please ensure the API is running.\nTry: docker-compose up -d\n")
		os.Exit(1)
	}

	characters := promptForCast()
	conv, err := createConversation(client, cfg.APIBaseURL, characters)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create conversation: %v\n", err)
		os.Exit(1)
	}

	// The gatekeeper only acts while enabled
	if _, err := patchSettings(client, cfg.APIBaseURL, map[string]any{"enabled": true}); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to enable gatekeeper: %v\n", err)
		os.Exit(1)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client, conv),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}

// promptForCast reads character names from stdin, one per line, blank to
// finish. An empty cast is allowed; injections then broadcast to whoever
// speaks.
func promptForCast() []scene.Character {
	fmt.Println("Enter characters in the scene (blank line to finish):")

	var characters []scene.Character
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Printf("  Character %d name: ", len(characters)+1)
		if !scanner.Scan() {
			break
		}
		name := strings.TrimSpace(scanner.Text())
		if name == "" {
			break
		}

		fmt.Print("  Short description: ")
		var description string
		if scanner.Scan() {
			description = strings.TrimSpace(scanner.Text())
		}

		characters = append(characters, scene.Character{
			Name:        name,
			Description: description,
		})
	}
	return characters
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
