package commands

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/thoreinstein/hostenv/cmd"
	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/paths"
)

var genDocCmd = &cobra.Command{
	Use:    "gen-doc",
	Short:  "Generate Markdown or man page documentation for the CLI",
	Hidden: true,
	Args:   cobra.NoArgs,
	RunE: func(c *cobra.Command, _ []string) error {
		outputDir, _ := c.Flags().GetString("dir")
		format, _ := c.Flags().GetString("format")
		if outputDir == "" {
			return errors.NewUserError(errors.New("output directory is required"), "pass --dir")
		}

		if err := paths.EnsureDir(outputDir, 0o755); err != nil {
			return errors.Wrap(err, "creating output directory")
		}

		var err error
		switch format {
		case "markdown", "md":
			// front matter for the docs site
			err = doc.GenMarkdownTreeCustom(rootCmd, outputDir, filePrepender, linkHandler)
		case "man":
			err = doc.GenManTree(rootCmd, &doc.GenManHeader{
				Title:   strings.ToUpper(paths.AppName),
				Section: "1",
				Source:  "hostenv " + cmd.Version,
			}, outputDir)
		default:
			return errors.NewUserError(errors.Newf("unknown doc format %q", format), "use markdown or man")
		}
		if err != nil {
			return errors.Wrapf(err, "generating %s docs", format)
		}

		fmt.Fprintf(c.OutOrStdout(), "Documentation generated in %s\n", outputDir)
		return nil
	},
}

func init() {
	genDocCmd.Flags().StringP("dir", "d", "", "Output directory for documentation")
	genDocCmd.Flags().String("format", "markdown", "documentation format: markdown, man")
	rootCmd.AddCommand(genDocCmd)
}

func filePrepender(filename string) string {
	name := filepath.Base(filename)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	// Convert hostenv_runtime_capture.md -> hostenv runtime capture
	title := strings.ReplaceAll(base, "_", " ")

	return fmt.Sprintf(`---
title: "%s"
description: "Reference for %s command"
draft: false
toc: true
---
`, title, title)
}

func linkHandler(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return "/docs/reference/" + strings.ToLower(base) + "/"
}
