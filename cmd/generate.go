package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/nikogura/cvforge/pkg/content"
	"github.com/nikogura/cvforge/pkg/pipeline"
	"github.com/nikogura/cvforge/pkg/profile"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var genProfile string

//nolint:gochecknoglobals // Cobra boilerplate
var genDocs []string

//nolint:gochecknoglobals // Cobra boilerplate
var genJD string

//nolint:gochecknoglobals // Cobra boilerplate
var genTemplate string

//nolint:gochecknoglobals // Cobra boilerplate
var genTheme string

//nolint:gochecknoglobals // Cobra boilerplate
var genFormats []string

//nolint:gochecknoglobals // Cobra boilerplate
var genLanguage string

//nolint:gochecknoglobals // Cobra boilerplate
var genStyle string

//nolint:gochecknoglobals // Cobra boilerplate
var genOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var genNoCleanup bool

//nolint:gochecknoglobals // Cobra boilerplate
var genContent string

//nolint:gochecknoglobals // Cobra boilerplate
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a new version of a profile",
	Long: `Generate a tailored resume from source documents and write it as a new version
of the profile.

The job description can be literal text, a file path or a URL. Source documents may
be PDF, Word (.docx), Markdown or plain text.

A format that fails to render is reported as a warning; the run only fails when no
format could be written.

Version ids are UTC minute timestamps (vYYYYMMDDHHMM), with a -N suffix when a
profile gets more than one version in the same minute.

Example:
  cvforge generate --profile "Jane Doe" --docs cv.pdf --docs projects.md --jd jd.txt
  cvforge generate --profile jane --docs cv.docx --jd https://example.com/jobs/123 --format html,markdown --theme modern
  cvforge generate --profile jane --content resume.json --format word`,
	Args: cobra.NoArgs,
	RunE: runGenerate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(generateCmd)
	generateCmd.Flags().StringVar(&genProfile, "profile", "", "Profile id (required)")
	generateCmd.Flags().StringSliceVar(&genDocs, "docs", nil, "Source documents (.pdf, .docx, .md, .txt)")
	generateCmd.Flags().StringVar(&genJD, "jd", "", "Job description: text, file path or URL")
	generateCmd.Flags().StringVar(&genTemplate, "template", "", "Template name (default from config)")
	generateCmd.Flags().StringVar(&genTheme, "theme", "", "Theme: professional, modern, creative or traditional (default from config)")
	generateCmd.Flags().StringSliceVar(&genFormats, "format", nil, "Output formats: markdown, word, html (default from config)")
	generateCmd.Flags().StringVar(&genLanguage, "language", "", "Output language: english, chinese or bilingual (default from config)")
	generateCmd.Flags().StringVar(&genStyle, "style", "", "Style reference: text or file path")
	generateCmd.Flags().StringVar(&genOutputDir, "output-dir", "", "Profile store directory (default from config)")
	generateCmd.Flags().BoolVar(&genNoCleanup, "no-cleanup", false, "Do not prune old versions after this run")
	generateCmd.Flags().StringVar(&genContent, "content", "", "Render a prepared content JSON file instead of calling the AI")
	_ = generateCmd.MarkFlagRequired("profile")
}

func runGenerate(cmd *cobra.Command, args []string) (err error) {
	var a app
	a, err = loadApp(genOutputDir)
	if err != nil {
		return err
	}

	req := pipeline.GenerateRequest{
		ProfileID:      genProfile,
		SourceFiles:    genDocs,
		JobDescription: genJD,
		Template:       genTemplate,
		Theme:          genTheme,
		Formats:        genFormats,
		Language:       genLanguage,
		StyleReference: genStyle,
	}

	if genNoCleanup {
		off := false
		req.AutoCleanup = &off
	}

	if genContent != "" {
		var resume content.Resume
		resume, err = content.Load(genContent)
		if err != nil {
			err = errors.Wrap(err, "failed to load content")
			return err
		}
		req.Content = &resume
	} else if len(genDocs) == 0 {
		err = errors.New("--docs is required unless --content is given")
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*a.cfg.Timeout())
	defer cancel()

	message := "Generating tailored resume with Claude API..."
	if req.Content != nil {
		message = "Rendering resume..."
	}

	progress := startSpinner(message)
	var result profile.Result
	result, err = a.svc.Generate(ctx, req)
	progress.finish()
	if err != nil {
		err = errors.Wrap(err, "generation failed")
		return err
	}

	printResult(cmd.OutOrStdout(), result)
	return err
}

// printResult reports every artifact and warns about the formats that failed.
func printResult(w io.Writer, result profile.Result) {
	fmt.Fprintf(w, "✓ Created %s version %s\n", result.ProfileID, result.Version)
	fmt.Fprintf(w, "  Directory: %s\n", result.Dir)

	for _, f := range result.Formats {
		if f.Err != nil {
			fmt.Fprintf(w, "  Warning: %s output failed: %v\n", f.Format, f.Err)
			continue
		}
		fmt.Fprintf(w, "  %-8s %s\n", f.Format, f.Path)
	}

	if result.Metadata.PreviousVersion != "" {
		fmt.Fprintf(w, "  Based on: %s\n", result.Metadata.PreviousVersion)
	}

	for _, id := range result.Pruned {
		fmt.Fprintf(w, "  Pruned old version %s\n", id)
	}

	if result.Partial() {
		fmt.Fprintf(w, "\nWarning: %d of %d formats failed; the version was still saved.\n", len(result.Failed()), len(result.Formats))
	}
}
