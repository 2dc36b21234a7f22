package cmd

import (
	"fmt"
	"strings"

	"github.com/nikogura/cvforge/pkg/profile"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var listDetailed bool

//nolint:gochecknoglobals // Cobra boilerplate
var listOutputDir string

//nolint:gochecknoglobals // Cobra boilerplate
var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List profiles and their versions",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listDetailed, "detailed", false, "Show every version with its metadata")
	listCmd.Flags().StringVar(&listOutputDir, "output-dir", "", "Profile store directory (default from config)")
}

func runList(cmd *cobra.Command, args []string) (err error) {
	var a app
	a, err = loadApp(listOutputDir)
	if err != nil {
		return err
	}

	var summaries []profile.Summary
	summaries, err = a.svc.List(listDetailed)
	if err != nil {
		return err
	}

	if len(summaries) == 0 {
		fmt.Printf("No profiles in %s\n", a.svc.StoreRoot())
		return err
	}

	for _, sum := range summaries {
		latest := sum.Latest().String()
		if latest == "" {
			latest = "-"
		}
		fmt.Printf("%-30s latest %-18s %d version(s)\n", sum.ProfileID, latest, len(sum.Versions))

		if !listDetailed {
			continue
		}

		for _, v := range sum.Versions {
			if v.Metadata == nil {
				fmt.Printf("    %s\n", v.ID)
				continue
			}
			m := v.Metadata
			fmt.Printf("    %s  %s  %s  [%s]\n", v.ID, m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Model, strings.Join(m.FormatsGenerated, ", "))
			if m.PreviousVersion != "" {
				fmt.Printf("        based on %s\n", m.PreviousVersion)
			}
			if m.JobDescriptionExcerpt != "" {
				fmt.Printf("        jd: %s\n", truncate(m.JobDescriptionExcerpt, 80))
			}
		}
	}

	return err
}

func truncate(s string, n int) (out string) {
	r := []rune(s)
	if len(r) <= n {
		out = s
		return out
	}
	out = string(r[:n]) + "…"
	return out
}
