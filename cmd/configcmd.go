package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/nikogura/cvforge/pkg/config"
	"github.com/nikogura/cvforge/pkg/render"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

//nolint:gochecknoglobals // Cobra boilerplate
var cfgShow bool

//nolint:gochecknoglobals // Cobra boilerplate
var cfgValidate bool

//nolint:gochecknoglobals // Cobra boilerplate
var cfgSample string

//nolint:gochecknoglobals // Cobra boilerplate
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show, validate or create the configuration",
	Long: `Inspect the effective configuration (file plus environment overrides).

Example:
  cvforge config --show
  cvforge config --validate
  cvforge config --sample ~/.cvforge/config.json`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

//nolint:gochecknoinits // Cobra boilerplate
func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&cfgShow, "show", false, "Print the effective configuration with secrets redacted")
	configCmd.Flags().BoolVar(&cfgValidate, "validate", false, "Validate the configuration")
	configCmd.Flags().StringVar(&cfgSample, "sample", "", "Write a sample configuration to this path")
	configCmd.MarkFlagsOneRequired("show", "validate", "sample")
}

func runConfig(cmd *cobra.Command, args []string) (err error) {
	if cfgSample != "" {
		var path string
		path, err = config.InitConfig(cfgSample)
		if err != nil {
			return err
		}
		fmt.Printf("✓ Sample configuration written to %s\n", path)
		fmt.Println("Set anthropic_api_key (or ANTHROPIC_API_KEY) before generating.")
		return err
	}

	var cfg config.Config
	cfg, err = config.Load(getConfigFile())
	if err != nil {
		return err
	}

	if cfgValidate {
		_, err = render.NewDirSource(cfg.TemplateDir)
		if err != nil {
			err = errors.Wrap(err, "template directory is unusable")
			return err
		}
		if cfg.AnthropicAPIKey == "" {
			fmt.Println("Warning: no Anthropic API key configured; only --content generation will work")
		}
		fmt.Println("✓ Configuration is valid")
	}

	if cfgShow {
		var data []byte
		data, err = json.MarshalIndent(cfg.Redacted(), "", "  ")
		if err != nil {
			err = errors.Wrap(err, "failed to marshal config")
			return err
		}
		fmt.Println(string(data))
	}

	return err
}
