package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/phobologic/routeaudit/internal/logging"
	"github.com/phobologic/routeaudit/internal/report"
)

const (
	sentinelStart = "<!-- routeaudit:start -->"
	sentinelEnd   = "<!-- routeaudit:end -->"
)

// newEmbedCmd implements `routeaudit embed`, which writes (or updates) the
// report inside a sentinel-wrapped block of a Markdown document.
func newEmbedCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		dryRun     bool
		root       string
		configFile string
	)

	cmd := &cobra.Command{
		Use:   "embed [flags] DOC",
		Short: "Write the route report into a Markdown document",
		Long: `Write the route report into DOC. The report is wrapped in sentinel comments
so it can be updated in place on subsequent runs without touching surrounding
content. Creates the file if it does not exist.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			configFile, _ = cmd.Flags().GetString("config")
			rootDir, cfg, err := setup(cmd, configFile, []string{root})
			if err != nil {
				return err
			}
			_, md, err := generate(rootDir, cfg)
			if err != nil {
				return err
			}

			path := args[0]
			existing, err := os.ReadFile(path)
			if err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("reading %s: %w", path, err)
			}
			updated := applySection(string(existing), generateSection(md))

			if dryRun {
				_, _ = fmt.Fprint(stdout, updated)
				return nil
			}

			if err := report.WriteFileAtomic(path, []byte(updated)); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}
			logging.Log.Infof("wrote route report to %s", path)
			return nil
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print what would be written without modifying the file")
	cmd.Flags().StringVar(&root, "root", ".", "tree to audit")
	return cmd
}

// generateSection wraps a report in sentinels.
func generateSection(report string) string {
	return sentinelStart + "\n" + strings.TrimRight(report, "\n") + "\n" + sentinelEnd
}

// applySection inserts section into content, replacing an existing sentinel
// block if present or appending if not. It is a pure function for easy testing.
func applySection(content, section string) string {
	start := strings.Index(content, sentinelStart)
	end := strings.Index(content, sentinelEnd)

	if start >= 0 && end > start {
		return content[:start] + section + content[end+len(sentinelEnd):]
	}

	// Append, ensuring a blank line separator.
	if len(content) > 0 && !strings.HasSuffix(content, "\n") {
		content += "\n"
	}
	if len(content) == 0 {
		return section + "\n"
	}
	return content + "\n" + section + "\n"
}
