package cmd

import (
	"fmt"
	"log/slog"

	"github.com/nikogura/cvforge/pkg/config"
	"github.com/nikogura/cvforge/pkg/docparse"
	"github.com/nikogura/cvforge/pkg/jd"
	"github.com/nikogura/cvforge/pkg/llm"
	"github.com/nikogura/cvforge/pkg/pipeline"
	"github.com/nikogura/cvforge/pkg/profile"
	"github.com/nikogura/cvforge/pkg/render"
	"github.com/pkg/errors"
)

// app bundles what every command needs.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	svc    *pipeline.Service
}

// loadApp reads the configuration, applies the output directory override and wires
// the pipeline.
func loadApp(outputDirOverride string) (a app, err error) {
	a.cfg, err = config.Load(getConfigFile())
	if err != nil {
		err = errors.Wrap(err, "failed to load config")
		return a, err
	}

	if outputDirOverride != "" {
		a.cfg.OutputDir = outputDirOverride
	}

	a.logger = newLogger(a.cfg.LogLevel)

	if getVerbose() {
		fmt.Printf("Profile store: %s\n", a.cfg.OutputDir)
		fmt.Printf("Templates: %s\n", a.cfg.TemplateDir)
	}

	a.svc, err = buildService(a.cfg, a.logger)
	return a, err
}

func buildService(cfg config.Config, logger *slog.Logger) (svc *pipeline.Service, err error) {
	var source *render.DirSource
	source, err = render.NewDirSource(cfg.TemplateDir)
	if err != nil {
		err = errors.Wrap(err, "failed to load templates")
		return svc, err
	}

	var formats []render.Format
	formats, err = render.ParseFormats(cfg.Formats())
	if err != nil {
		return svc, err
	}

	var lang llm.Language
	lang, err = llm.ParseLanguage(cfg.Language)
	if err != nil {
		return svc, err
	}

	coordinator := profile.NewCoordinator(profile.CoordinatorConfig{
		StoreRoot:    cfg.OutputDir,
		KeepVersions: cfg.KeepVersions,
		AutoCleanup:  cfg.AutoCleanup,
	}, render.NewRegistry(source), logger)

	client := llm.NewClient(llm.ClientConfig{
		APIKey:      cfg.AnthropicAPIKey,
		Model:       cfg.AIModel,
		Temperature: cfg.AITemperature,
		MaxTokens:   cfg.AIMaxTokens,
		Timeout:     cfg.Timeout(),
	})

	svc = pipeline.NewService(pipeline.Options{
		Formats:      formats,
		Template:     cfg.DefaultTemplate,
		Theme:        cfg.DefaultTheme,
		Language:     lang,
		KeepVersions: cfg.KeepVersions,
	}, docparse.NewParser(cfg.MaxFileBytes()), client, jd.NewFetcher(nil), coordinator, logger)

	return svc, err
}
