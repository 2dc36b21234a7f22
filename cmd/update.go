package cmd

import (
	"context"

	"github.com/nikogura/cvforge/pkg/pipeline"
	"github.com/nikogura/cvforge/pkg/profile"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var updOldProfile string

//nolint:gochecknoglobals // Cobra boilerplate
var updDocs []string

//nolint:gochecknoglobals // Cobra boilerplate
var updJD string

//nolint:gochecknoglobals // Cobra boilerplate
var updNoCleanup bool

//nolint:gochecknoglobals // Cobra boilerplate
var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Create a new version from an existing one plus new material",
	Long: `Update merges new documents, or a new job description, into an existing version
and writes the result as a new version of the same profile. The existing version
is never modified.

--old-profile may point at a version directory or at any file inside it. Without
--jd the job description stored with the existing version is reused in full.

Example:
  cvforge update --old-profile profiles/jane/v202403010915 --docs new-project.md
  cvforge update --old-profile profiles/jane/v202403010915/jane.v202403010915.md --jd jd2.txt`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(updateCmd)
	updateCmd.Flags().StringVar(&updOldProfile, "old-profile", "", "Existing version directory or artifact (required)")
	updateCmd.Flags().StringSliceVar(&updDocs, "docs", nil, "New source documents")
	updateCmd.Flags().StringVar(&updJD, "jd", "", "New job description: text, file path or URL")
	updateCmd.Flags().BoolVar(&updNoCleanup, "no-cleanup", false, "Do not prune old versions after this run")
	_ = updateCmd.MarkFlagRequired("old-profile")
}

func runUpdate(cmd *cobra.Command, args []string) (err error) {
	var a app
	a, err = loadApp("")
	if err != nil {
		return err
	}

	req := pipeline.UpdateRequest{
		ExistingVersionPath: updOldProfile,
		NewSourceFiles:      updDocs,
		JobDescription:      updJD,
	}
	if updNoCleanup {
		off := false
		req.AutoCleanup = &off
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 2*a.cfg.Timeout())
	defer cancel()

	progress := startSpinner("Updating resume with Claude API...")
	var result profile.Result
	result, err = a.svc.Update(ctx, req)
	progress.finish()
	if err != nil {
		err = errors.Wrap(err, "update failed")
		return err
	}

	printResult(cmd.OutOrStdout(), result)
	return err
}
