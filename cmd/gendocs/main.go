package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/terminally-online/verifyusers/internal/cli"
)

func main() {
	if err := newGendocsCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newGendocsCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "gendocs [out-dir]",
		Short: "Generate the verifyusers command reference",
		Long: `Render one page per verifyusers command into out-dir (default docs/cli),
as markdown or as section 1 man pages.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			outDir := "docs/cli"
			if len(args) == 1 {
				outDir = args[0]
			}
			return generate(cli.Root(), format, outDir)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", "markdown", "output format: markdown or man")

	return cmd
}

func generate(root *cobra.Command, format, outDir string) error {
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}
	root.DisableAutoGenTag = true

	switch format {
	case "markdown", "md":
		return doc.GenMarkdownTree(root, outDir)
	case "man":
		return doc.GenManTree(root, &doc.GenManHeader{
			Title:   "VERIFYUSERS",
			Section: "1",
			Source:  "verifyusers",
		}, outDir)
	}
	return fmt.Errorf("unsupported format %q (want markdown or man)", format)
}
