// Package profile owns the on-disk profile store: version directories, their
// artifacts, metadata records, retention and listing.
package profile

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/nikogura/cvforge/pkg/content"
	"github.com/nikogura/cvforge/pkg/jd"
	"github.com/nikogura/cvforge/pkg/render"
	"github.com/nikogura/cvforge/pkg/version"
	"github.com/pkg/errors"
)

const (
	defaultAllocationAttempts = 3
	excerptRunes              = 500
)

// CoordinatorConfig holds the store-wide settings of a Coordinator.
type CoordinatorConfig struct {
	StoreRoot          string
	KeepVersions       int
	AutoCleanup        bool
	AllocationAttempts int
	Now                func() time.Time
}

// GenerateInput describes one generation run.
type GenerateInput struct {
	ProfileID       string
	Resume          content.Resume
	Formats         []render.Format
	Template        render.TemplateRef
	SourceFiles     []string
	JobDescription  string
	Model           string
	Language        string
	Temperature     float64
	PreviousVersion version.ID
	// AutoCleanup overrides the configured default when set.
	AutoCleanup *bool
}

// FormatResult is the outcome of one format.
type FormatResult struct {
	Format render.Format
	Path   string
	Err    error
}

// Result is the outcome of a generation run.
type Result struct {
	ProfileID string
	Version   version.ID
	Dir       string
	Formats   []FormatResult
	Metadata  Metadata
	Pruned    []version.ID
}

// Succeeded returns the formats that were written.
func (r Result) Succeeded() (formats []render.Format) {
	for _, f := range r.Formats {
		if f.Err == nil {
			formats = append(formats, f.Format)
		}
	}
	return formats
}

// Failed returns the formats that could not be produced.
func (r Result) Failed() (failed []FormatResult) {
	for _, f := range r.Formats {
		if f.Err != nil {
			failed = append(failed, f)
		}
	}
	return failed
}

// Partial reports whether some, but not all, formats failed.
func (r Result) Partial() (partial bool) {
	failed := len(r.Failed())
	partial = failed > 0 && failed < len(r.Formats)
	return partial
}

// Coordinator runs generations against a profile store.
type Coordinator struct {
	cfg      CoordinatorConfig
	registry *render.Registry
	pruner   *Pruner
	logger   *slog.Logger
}

// NewCoordinator returns a Coordinator. A nil logger uses slog.Default().
func NewCoordinator(cfg CoordinatorConfig, registry *render.Registry, logger *slog.Logger) (c *Coordinator) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AllocationAttempts <= 0 {
		cfg.AllocationAttempts = defaultAllocationAttempts
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	c = &Coordinator{
		cfg:      cfg,
		registry: registry,
		pruner:   NewPruner(logger),
		logger:   logger,
	}
	return c
}

// Pruner returns the pruner used for auto cleanup.
func (c *Coordinator) Pruner() (p *Pruner) {
	p = c.pruner
	return p
}

// StoreRoot returns the directory holding every profile.
func (c *Coordinator) StoreRoot() (root string) {
	root = c.cfg.StoreRoot
	return root
}

// Generate creates a new version of a profile and renders every requested format into it.
// The run fails only when no format could be written; per-format failures are reported
// in the Result.
func (c *Coordinator) Generate(ctx context.Context, in GenerateInput) (result Result, err error) {
	err = ctx.Err()
	if err != nil {
		return result, err
	}

	if len(in.Formats) == 0 {
		err = errors.New("no output formats requested")
		return result, err
	}

	result.ProfileID, err = Sanitize(in.ProfileID)
	if err != nil {
		return result, err
	}

	profileRoot := filepath.Join(c.cfg.StoreRoot, result.ProfileID)
	_, statErr := os.Stat(profileRoot)
	newProfile := errors.Is(statErr, fs.ErrNotExist)

	err = os.MkdirAll(profileRoot, 0o750)
	if err != nil {
		err = &IOError{Op: "mkdir", Path: profileRoot, Cause: err}
		return result, err
	}

	var alloc version.Allocation
	alloc, err = c.createVersionDir(profileRoot)
	if err != nil {
		if newProfile {
			_ = os.Remove(profileRoot)
		}
		return result, err
	}
	result.Version = alloc.ID
	result.Dir = alloc.Dir

	logger := c.logger.With("profile", result.ProfileID, "version", result.Version.String())
	logger.Debug("created version directory", "dir", result.Dir)

	for _, format := range in.Formats {
		fr := c.renderFormat(result, in, format)
		if fr.Err != nil {
			logger.Warn("format failed", "format", format.String(), "error", fr.Err)
		}
		result.Formats = append(result.Formats, fr)
	}

	if len(result.Succeeded()) == 0 {
		removeErr := os.RemoveAll(result.Dir)
		if removeErr != nil {
			logger.Error("failed to remove empty version directory", "dir", result.Dir, "error", removeErr)
		}
		// os.Remove leaves the profile alone if a concurrent run already wrote into it
		if newProfile && removeErr == nil {
			_ = os.Remove(profileRoot)
		}
		err = errors.Wrapf(result.Formats[0].Err, "no format could be generated for %s", result.ProfileID)
		return result, err
	}

	if in.JobDescription != "" {
		err = writeArtifact(filepath.Join(result.Dir, JobDescriptionFile), []byte(in.JobDescription))
		if err != nil {
			return result, err
		}
	}

	result.Metadata = c.buildMetadata(result, in)
	err = writeMetadata(result.Dir, result.Metadata)
	if err != nil {
		return result, err
	}

	logger.Info("version generated", "formats", len(result.Succeeded()), "failed", len(result.Failed()))

	autoCleanup := c.cfg.AutoCleanup
	if in.AutoCleanup != nil {
		autoCleanup = *in.AutoCleanup
	}
	if autoCleanup {
		var pruneErr error
		result.Pruned, pruneErr = c.pruner.Prune(profileRoot, c.cfg.KeepVersions)
		if pruneErr != nil {
			logger.Warn("auto cleanup failed", "error", pruneErr)
		}
	}

	return result, err
}

// createVersionDir allocates and atomically creates a version directory. Losing a race
// to a concurrent run re-allocates; an existing directory is never reused.
func (c *Coordinator) createVersionDir(profileRoot string) (alloc version.Allocation, err error) {
	for attempt := 1; attempt <= c.cfg.AllocationAttempts; attempt++ {
		alloc, err = version.Allocate(profileRoot, c.cfg.Now())
		if err != nil {
			return alloc, err
		}

		err = os.Mkdir(alloc.Dir, 0o750)
		if err == nil {
			return alloc, err
		}
		// a concurrent run whose formats all failed may have removed a fresh profile
		if errors.Is(err, fs.ErrNotExist) {
			err = os.MkdirAll(profileRoot, 0o750)
			if err != nil {
				err = &IOError{Op: "mkdir", Path: profileRoot, Cause: err}
				return alloc, err
			}
			continue
		}
		if !errors.Is(err, fs.ErrExist) {
			err = &IOError{Op: "mkdir", Path: alloc.Dir, Cause: err}
			return alloc, err
		}

		c.logger.Debug("version directory taken, reallocating", "dir", alloc.Dir, "attempt", attempt)
	}

	err = &IOError{Op: "mkdir", Path: alloc.Dir, Cause: fs.ErrExist}
	return alloc, err
}

func (c *Coordinator) renderFormat(result Result, in GenerateInput, format render.Format) (fr FormatResult) {
	fr.Format = format
	fr.Path = filepath.Join(result.Dir, ArtifactName(result.ProfileID, result.Version, format))

	renderer, err := c.registry.Renderer(format)
	if err != nil {
		fr.Err = err
		return fr
	}

	data, err := renderer.Render(in.Resume, in.Template)
	if err != nil {
		fr.Err = err
		return fr
	}

	fr.Err = writeArtifact(fr.Path, data)
	return fr
}

func (c *Coordinator) buildMetadata(result Result, in GenerateInput) (meta Metadata) {
	ref := in.Template
	if ref.Name == "" {
		ref.Name = render.DefaultTemplate
	}
	if ref.Theme == "" {
		ref.Theme = render.DefaultTheme
	}

	meta = Metadata{
		ProfileID:             result.ProfileID,
		Version:               result.Version,
		RunID:                 uuid.NewString(),
		CreatedAt:             c.cfg.Now().UTC(),
		SourceFiles:           baseNames(in.SourceFiles),
		JobDescriptionExcerpt: jd.Excerpt(in.JobDescription, excerptRunes),
		FormatsGenerated:      []string{},
		Model:                 in.Model,
		Language:              in.Language,
		Template:              ref.Name,
		Theme:                 ref.Theme,
		AITemperature:         in.Temperature,
		PreviousVersion:       in.PreviousVersion,
	}

	if in.JobDescription != "" {
		sum := sha256.Sum256([]byte(in.JobDescription))
		meta.JobDescriptionSHA256 = hex.EncodeToString(sum[:])
	}

	for _, f := range result.Formats {
		if f.Err == nil {
			meta.FormatsGenerated = append(meta.FormatsGenerated, f.Format.String())
			continue
		}
		if meta.FormatsFailed == nil {
			meta.FormatsFailed = make(map[string]string)
		}
		meta.FormatsFailed[f.Format.String()] = f.Err.Error()
	}

	return meta
}

// ArtifactName returns <profileId>.<versionId>.<ext>.
func ArtifactName(profileID string, id version.ID, format render.Format) (name string) {
	name = fmt.Sprintf("%s.%s.%s", profileID, id, format.Ext())
	return name
}

// writeArtifact creates path exclusively; an existing file is an error, never overwritten.
func writeArtifact(path string, data []byte) (err error) {
	var f *os.File
	f, err = os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		err = &IOError{Op: "create", Path: path, Cause: err}
		return err
	}

	_, err = f.Write(data)
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		err = &IOError{Op: "write", Path: path, Cause: err}
		return err
	}

	return err
}

func baseNames(paths []string) (names []string) {
	names = make([]string, 0, len(paths))
	for _, p := range paths {
		names = append(names, filepath.Base(p))
	}
	return names
}
