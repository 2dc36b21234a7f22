package cmd

import (
	"fmt"

	"github.com/nikogura/cvforge/pkg/version"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cleanProfile string

//nolint:gochecknoglobals // Cobra boilerplate
var cleanKeep int

//nolint:gochecknoglobals // Cobra boilerplate
var cleanOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Delete old versions of a profile",
	Long: `Cleanup keeps the newest complete versions of a profile and deletes the rest.
Without --keep the keep_versions setting is used. --keep 0 deletes nothing.

Example:
  cvforge cleanup --profile jane --keep 3`,
	Args: cobra.NoArgs,
	RunE: runCleanup,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().StringVar(&cleanProfile, "profile", "", "Profile id (required)")
	cleanupCmd.Flags().IntVar(&cleanKeep, "keep", -1, "Versions to keep (default from config)")
	cleanupCmd.Flags().StringVar(&cleanOutputDir, "output-dir", "", "Profile store directory (default from config)")
	_ = cleanupCmd.MarkFlagRequired("profile")
}

func runCleanup(cmd *cobra.Command, args []string) (err error) {
	var a app
	a, err = loadApp(cleanOutputDir)
	if err != nil {
		return err
	}

	var deleted []version.ID
	deleted, err = a.svc.Cleanup(cleanProfile, cleanKeep)
	if err != nil {
		return err
	}

	if len(deleted) == 0 {
		fmt.Println("Nothing to delete")
		return err
	}

	for _, id := range deleted {
		fmt.Printf("Deleted %s\n", id)
	}
	fmt.Printf("✓ Removed %d version(s)\n", len(deleted))

	return err
}
