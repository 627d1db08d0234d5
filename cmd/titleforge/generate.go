package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/atotto/clipboard"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/entrhq/titleforge/pkg/session"
	"github.com/entrhq/titleforge/pkg/synthesis"
	"github.com/entrhq/titleforge/pkg/types"
)

var generateOpts struct {
	topic   string
	wait    time.Duration
	copy    bool
	asJSON  bool
	noColor bool
}

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Scrape a page and print title ideas",
	Long: `Open the start page, scrape its titles, and print candidate titles for
a topic. The browser is closed when the command exits.

Examples:
  titleforge generate --topic "weeknight pasta"
  titleforge generate --topic "home lab" --url "https://www.youtube.com/results?search_query=homelab"
  titleforge generate --topic "speedrun history" --copy --json`,
	RunE: runGenerate,
}

func init() {
	f := generateCmd.Flags()
	f.StringVarP(&generateOpts.topic, "topic", "t", "", "topic for the new titles (required)")
	f.DurationVar(&generateOpts.wait, "wait", 3*time.Second, "time to let the page render before scraping")
	f.BoolVar(&generateOpts.copy, "copy", false, "copy the first title to the clipboard")
	f.BoolVar(&generateOpts.asJSON, "json", false, "print the result as JSON")
	f.BoolVar(&generateOpts.noColor, "no-color", false, "disable colored output")
	_ = generateCmd.MarkFlagRequired("topic")
	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctrl, router, err := newRuntime(ctx)
	if err != nil {
		return err
	}
	defer ctrl.Shutdown()

	if !router.Status().Configured {
		return errors.New("no API key configured: pass --api-key or set TITLEFORGE_API_KEY")
	}
	if err := router.SetContext(ctx, generateOpts.topic); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	msg, err := router.StartSession(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.ErrOrStderr(), msg)

	select {
	case <-time.After(generateOpts.wait):
	case <-ctx.Done():
		return ctx.Err()
	}

	scraped, err := router.Scrape(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Scraped %d titles from %s\n", len(scraped.Titles), scraped.URL)

	res, err := router.Generate(ctx)
	if err != nil {
		var pe *session.PreconditionError
		if errors.As(err, &pe) && len(scraped.Titles) == 0 {
			return fmt.Errorf("no titles found on %s; try a longer --wait", scraped.URL)
		}
		return err
	}

	if generateOpts.asJSON {
		err = printJSON(out, res, !generateOpts.noColor)
	} else {
		printCandidates(out, generateOpts.topic, res, generateOpts.noColor)
	}
	if err != nil {
		return err
	}

	if generateOpts.copy && len(res.Candidates) > 0 {
		if err := clipboard.WriteAll(res.Candidates[0].Title); err != nil {
			return fmt.Errorf("failed to copy to clipboard: %w", err)
		}
		fmt.Fprintln(cmd.ErrOrStderr(), "Copied the first title to the clipboard")
	}
	return nil
}

func printCandidates(w io.Writer, topic string, res *synthesis.Result, plain bool) {
	fmt.Fprintln(w, renderCandidates(topic, res.Model, res.Candidates, plain))
}

func renderCandidates(topic, model string, candidates []types.TitleCandidate, plain bool) string {
	if plain {
		var b strings.Builder
		fmt.Fprintf(&b, "Titles for %q (%s)\n", topic, model)
		for i, c := range candidates {
			fmt.Fprintf(&b, "%d. %s\n   %s\n", i+1, c.Title, c.Rationale)
		}
		return strings.TrimRight(b.String(), "\n")
	}

	rows := []string{headerStyle.Render(fmt.Sprintf("Titles for %q", topic)), rationaleStyle.UnsetPaddingLeft().Render(model), ""}
	for i, c := range candidates {
		line := lipgloss.JoinHorizontal(lipgloss.Top, numberStyle.Render(fmt.Sprintf("%d.", i+1)), titleStyle.Render(c.Title))
		rows = append(rows, line, rationaleStyle.Render(c.Rationale))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

// printJSON writes the result, highlighted for terminals when color is set.
func printJSON(w io.Writer, res *synthesis.Result, color bool) error {
	data, err := json.MarshalIndent(struct {
		Model          string                 `json:"model"`
		GeneratedTitle []types.TitleCandidate `json:"generatedTitle"`
		Dropped        int                    `json:"dropped"`
	}{res.Model, res.Candidates, res.Dropped}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}

	if !color {
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	if err := quick.Highlight(w, string(data)+"\n", "json", "terminal256", "monokai"); err != nil {
		return fmt.Errorf("failed to highlight output: %w", err)
	}
	return nil
}
