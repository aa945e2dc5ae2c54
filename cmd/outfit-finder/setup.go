package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/raine/outfit-finder/internal/analysis"
	"github.com/raine/outfit-finder/internal/config"
	"golang.org/x/term"
)

// isInteractiveTerminal returns true if both stdin and stdout are TTYs.
// The setup wizard cannot run otherwise.
func isInteractiveTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// runSetupWizard asks for the backend location and polling settings and
// writes them to config.env. Returns true if the configuration was saved.
func runSetupWizard() bool {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("99")).
		MarginBottom(1)

	fmt.Println()
	fmt.Println(titleStyle.Render("Outfit Finder - Setup"))
	fmt.Println()

	apiURL := os.Getenv("OUTFIT_API_URL")
	if apiURL == "" {
		apiURL = "http://localhost:8080"
	}
	attempts := strconv.Itoa(30)
	interval := "2s"

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Analysis API URL").
				Description("Where the outfit analysis service runs; /api is added if missing").
				Value(&apiURL).
				Validate(func(s string) error {
					if err := config.ValidateAPIURL(s); err != nil {
						return err
					}
					return checkBackend(s)
				}),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Poll attempts").
				Description("How many times to check a job before giving up").
				Value(&attempts).
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil || n <= 0 {
						return errors.New("must be a positive number")
					}
					return nil
				}),
			huh.NewInput().
				Title("Poll interval").
				Description("Wait between checks, e.g. 2s or 500ms").
				Value(&interval).
				Validate(func(s string) error {
					d, err := time.ParseDuration(s)
					if err != nil || d < 0 {
						return errors.New("must be a duration like 2s")
					}
					return nil
				}),
		),
	).WithTheme(huh.ThemeBase16())

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Println("\nSetup cancelled.")
			return false
		}
		fmt.Printf("\nError: %v\n", err)
		return false
	}

	values := map[string]string{
		"OUTFIT_API_URL":           apiURL,
		"OUTFIT_POLL_MAX_ATTEMPTS": attempts,
		"OUTFIT_POLL_INTERVAL":     interval,
	}
	configPath, err := config.WriteEnvFile(values)
	if err != nil {
		fmt.Printf("\nError saving configuration: %v\n", err)
		return false
	}

	successStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("42")).
		Bold(true)

	pathStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("245"))

	fmt.Println()
	fmt.Println(successStyle.Render("✓ Configuration saved"))
	fmt.Println(pathStyle.Render("  " + configPath))
	fmt.Println()

	return true
}

// checkBackend makes sure something answers at the configured URL.
func checkBackend(apiURL string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := analysis.NewHTTPClient(analysis.ClientOpts{
		BaseURL: config.NormalizeBaseURL(apiURL),
		Timeout: 10 * time.Second,
	})
	if err := client.Ping(ctx); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return errors.New("connection timed out - is the service running?")
		}
		return errors.New("connection failed - is the service running?")
	}
	return nil
}
