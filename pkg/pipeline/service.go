// Package pipeline wires document parsing, AI optimization and the profile store into
// the operations exposed by the CLI and the web UI.
package pipeline

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nikogura/cvforge/pkg/content"
	"github.com/nikogura/cvforge/pkg/docparse"
	"github.com/nikogura/cvforge/pkg/llm"
	"github.com/nikogura/cvforge/pkg/profile"
	"github.com/nikogura/cvforge/pkg/render"
	"github.com/nikogura/cvforge/pkg/version"
	"github.com/pkg/errors"
)

// DocumentParser extracts text from source documents.
type DocumentParser interface {
	ParseAll(ctx context.Context, paths []string) ([]docparse.Document, error)
}

// Optimizer turns raw material into structured resume content.
type Optimizer interface {
	Optimize(ctx context.Context, req llm.OptimizeRequest) (content.Resume, error)
	Model() string
	Temperature() float64
}

// TextResolver turns literal text, a file path or a URL into text.
type TextResolver interface {
	Resolve(ctx context.Context, input string) (string, error)
}

// Options are the defaults applied to requests that leave a field empty.
type Options struct {
	Formats      []render.Format
	Template     string
	Theme        string
	Language     llm.Language
	KeepVersions int
}

// Service runs generation, update, listing and cleanup against one profile store.
type Service struct {
	opts        Options
	parser      DocumentParser
	optimizer   Optimizer
	resolver    TextResolver
	coordinator *profile.Coordinator
	logger      *slog.Logger
}

// GenerateRequest asks for a new version of a profile.
type GenerateRequest struct {
	ProfileID   string
	SourceFiles []string
	// JobDescription is literal text, a file path or a URL.
	JobDescription string
	Template       string
	Theme          string
	Formats        []string
	Language       string
	// StyleReference is literal text or a file path.
	StyleReference string
	AutoCleanup    *bool
	// Content skips parsing and optimization when set.
	Content *content.Resume
	// RemoteOnly treats JobDescription and StyleReference as text or URLs, never as
	// local paths.
	RemoteOnly bool
}

// UpdateRequest asks for a new version derived from an existing one.
type UpdateRequest struct {
	ExistingVersionPath string
	NewSourceFiles      []string
	JobDescription      string
	AutoCleanup         *bool
	RemoteOnly          bool
}

// NewService returns a Service. A nil logger uses slog.Default().
func NewService(opts Options, parser DocumentParser, optimizer Optimizer, resolver TextResolver, coordinator *profile.Coordinator, logger *slog.Logger) (s *Service) {
	if logger == nil {
		logger = slog.Default()
	}
	if len(opts.Formats) == 0 {
		opts.Formats = render.AllFormats()
	}
	if opts.Language == "" {
		opts.Language = llm.LanguageEnglish
	}

	s = &Service{
		opts:        opts,
		parser:      parser,
		optimizer:   optimizer,
		resolver:    resolver,
		coordinator: coordinator,
		logger:      logger,
	}
	return s
}

// StoreRoot returns the directory holding every profile.
func (s *Service) StoreRoot() (root string) {
	root = s.coordinator.StoreRoot()
	return root
}

// Generate parses the source files, optimizes them against the job description and
// writes a new version of the profile.
func (s *Service) Generate(ctx context.Context, req GenerateRequest) (result profile.Result, err error) {
	var pid string
	pid, err = profile.Sanitize(req.ProfileID)
	if err != nil {
		return result, err
	}

	var formats []render.Format
	formats, err = s.formats(req.Formats)
	if err != nil {
		return result, err
	}

	var lang llm.Language
	lang, err = s.language(req.Language)
	if err != nil {
		return result, err
	}

	var jobDescription string
	jobDescription, err = s.resolve(ctx, "job description", req.JobDescription, req.RemoteOnly)
	if err != nil {
		return result, err
	}

	in := profile.GenerateInput{
		ProfileID:      pid,
		Formats:        formats,
		Template:       s.templateRef(req.Template, req.Theme),
		SourceFiles:    req.SourceFiles,
		JobDescription: jobDescription,
		Language:       string(lang),
		AutoCleanup:    req.AutoCleanup,
	}

	if req.Content != nil {
		in.Resume = *req.Content
		in.Model = "none"
		result, err = s.coordinator.Generate(ctx, in)
		return result, err
	}

	if len(req.SourceFiles) == 0 {
		err = errors.New("at least one source document is required")
		return result, err
	}

	var rawText string
	rawText, err = s.parse(ctx, req.SourceFiles)
	if err != nil {
		return result, err
	}

	var style string
	style, err = s.resolve(ctx, "style reference", req.StyleReference, req.RemoteOnly)
	if err != nil {
		return result, err
	}

	s.logger.Info("optimizing content", "profile", pid, "documents", len(req.SourceFiles), "language", string(lang))
	in.Resume, err = s.optimizer.Optimize(ctx, llm.OptimizeRequest{
		RawText:        rawText,
		JobDescription: jobDescription,
		Language:       lang,
		StyleReference: style,
	})
	if err != nil {
		return result, err
	}
	in.Model = s.optimizer.Model()
	in.Temperature = s.optimizer.Temperature()

	result, err = s.coordinator.Generate(ctx, in)
	return result, err
}

// Update merges new material into an existing version and writes the result as a new
// version of the same profile. The existing version is left untouched.
func (s *Service) Update(ctx context.Context, req UpdateRequest) (result profile.Result, err error) {
	if len(req.NewSourceFiles) == 0 && strings.TrimSpace(req.JobDescription) == "" {
		err = errors.New("update needs new source documents or a new job description")
		return result, err
	}

	var prior profile.LoadedVersion
	prior, err = profile.LoadVersion(req.ExistingVersionPath)
	if err != nil {
		return result, err
	}

	logger := s.logger.With("profile", prior.ProfileID, "from_version", prior.Version.String())

	var rawText string
	if len(req.NewSourceFiles) > 0 {
		rawText, err = s.parse(ctx, req.NewSourceFiles)
		if err != nil {
			return result, err
		}
	}

	jobDescription := prior.JobDescription
	if strings.TrimSpace(req.JobDescription) != "" {
		jobDescription, err = s.resolve(ctx, "job description", req.JobDescription, req.RemoteOnly)
		if err != nil {
			return result, err
		}
	}

	var lang llm.Language
	lang, err = s.language(prior.Metadata.Language)
	if err != nil {
		return result, err
	}

	logger.Info("updating content", "documents", len(req.NewSourceFiles))
	var updated content.Resume
	updated, err = s.optimizer.Optimize(ctx, llm.OptimizeRequest{
		RawText:        rawText,
		JobDescription: jobDescription,
		Language:       lang,
		Prior:          &prior.Resume,
	})
	if err != nil {
		return result, err
	}

	var formats []render.Format
	formats, err = s.formats(priorFormats(prior.Metadata))
	if err != nil {
		return result, err
	}

	result, err = s.coordinator.Generate(ctx, profile.GenerateInput{
		ProfileID:       prior.ProfileID,
		Resume:          content.Merge(prior.Resume, updated),
		Formats:         formats,
		Template:        s.templateRef(prior.Metadata.Template, prior.Metadata.Theme),
		SourceFiles:     append(append([]string{}, prior.Metadata.SourceFiles...), req.NewSourceFiles...),
		JobDescription:  jobDescription,
		Model:           s.optimizer.Model(),
		Language:        string(lang),
		Temperature:     s.optimizer.Temperature(),
		PreviousVersion: prior.Version,
		AutoCleanup:     req.AutoCleanup,
	})
	return result, err
}

// List summarizes every profile in the store.
func (s *Service) List(detailed bool) (summaries []profile.Summary, err error) {
	summaries, err = profile.List(s.coordinator.StoreRoot(), detailed)
	return summaries, err
}

// Cleanup prunes a profile down to its newest keep versions. A negative keep uses the
// configured default.
func (s *Service) Cleanup(profileID string, keep int) (deleted []version.ID, err error) {
	var pid string
	pid, err = profile.Sanitize(profileID)
	if err != nil {
		return deleted, err
	}

	if keep < 0 {
		keep = s.opts.KeepVersions
	}

	root := filepath.Join(s.coordinator.StoreRoot(), pid)
	_, err = os.Stat(root)
	if err != nil {
		err = &profile.IOError{Op: "stat", Path: root, Cause: err}
		err = errors.Wrapf(err, "profile %s not found", pid)
		return deleted, err
	}

	deleted, err = s.coordinator.Pruner().Prune(root, keep)
	if err != nil {
		err = errors.Wrapf(err, "failed to clean up profile %s", pid)
		return deleted, err
	}

	s.logger.Info("cleanup finished", "profile", pid, "keep", keep, "deleted", len(deleted))
	return deleted, err
}

func (s *Service) parse(ctx context.Context, paths []string) (text string, err error) {
	var docs []docparse.Document
	docs, err = s.parser.ParseAll(ctx, paths)
	if err != nil {
		return text, err
	}

	text = docparse.Combine(docs)
	return text, err
}

func (s *Service) resolve(ctx context.Context, what, input string, remoteOnly bool) (text string, err error) {
	if strings.TrimSpace(input) == "" {
		return text, err
	}

	if remoteOnly && !isURL(input) {
		text = strings.TrimSpace(input)
		return text, err
	}

	text, err = s.resolver.Resolve(ctx, input)
	if err != nil {
		err = errors.Wrapf(err, "failed to read %s", what)
		return text, err
	}

	return text, err
}

func (s *Service) formats(names []string) (formats []render.Format, err error) {
	if len(names) == 0 {
		formats = s.opts.Formats
		return formats, err
	}

	formats, err = render.ParseFormats(names)
	return formats, err
}

func (s *Service) language(name string) (lang llm.Language, err error) {
	if strings.TrimSpace(name) == "" {
		lang = s.opts.Language
		return lang, err
	}

	lang, err = llm.ParseLanguage(name)
	return lang, err
}

func (s *Service) templateRef(name, theme string) (ref render.TemplateRef) {
	ref = render.TemplateRef{Name: name, Theme: theme}
	if ref.Name == "" {
		ref.Name = s.opts.Template
	}
	if ref.Theme == "" {
		ref.Theme = s.opts.Theme
	}
	return ref
}

func isURL(input string) (ok bool) {
	input = strings.TrimSpace(input)
	ok = strings.HasPrefix(input, "http://") || strings.HasPrefix(input, "https://")
	return ok
}

// priorFormats is every format the earlier run attempted, in a stable order.
func priorFormats(meta profile.Metadata) (names []string) {
	names = append(names, meta.FormatsGenerated...)
	failed := make([]string, 0, len(meta.FormatsFailed))
	for name := range meta.FormatsFailed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	names = append(names, failed...)
	return names
}
