package pipeline

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nikogura/cvforge/pkg/content"
	"github.com/nikogura/cvforge/pkg/docparse"
	"github.com/nikogura/cvforge/pkg/llm"
	"github.com/nikogura/cvforge/pkg/profile"
	"github.com/nikogura/cvforge/pkg/render"
	"github.com/nikogura/cvforge/pkg/version"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeParser struct {
	err   error
	paths []string
}

func (f *fakeParser) ParseAll(_ context.Context, paths []string) ([]docparse.Document, error) {
	f.paths = append(f.paths, paths...)
	if f.err != nil {
		return nil, f.err
	}
	docs := make([]docparse.Document, 0, len(paths))
	for _, p := range paths {
		docs = append(docs, docparse.Document{Path: p, Text: "text of " + filepath.Base(p)})
	}
	return docs, nil
}

type fakeOptimizer struct {
	mu       sync.Mutex
	resume   content.Resume
	err      error
	requests []llm.OptimizeRequest
}

func (f *fakeOptimizer) Optimize(_ context.Context, req llm.OptimizeRequest) (content.Resume, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	return f.resume, f.err
}

func (f *fakeOptimizer) Model() string        { return "fake-model" }
func (f *fakeOptimizer) Temperature() float64 { return 0.2 }

type fakeResolver struct{}

func (fakeResolver) Resolve(_ context.Context, input string) (string, error) {
	if input == "broken" {
		return "", errors.New("unreachable")
	}
	return "resolved " + input, nil
}

var fixedNow = time.Date(2024, 3, 1, 9, 15, 0, 0, time.UTC)

func newTestService(t *testing.T, optimizer *fakeOptimizer, parser *fakeParser) (s *Service, root string) {
	t.Helper()
	root = t.TempDir()
	coordinator := profile.NewCoordinator(profile.CoordinatorConfig{
		StoreRoot:    root,
		KeepVersions: 10,
		AutoCleanup:  true,
		Now:          func() time.Time { return fixedNow },
	}, render.NewRegistry(render.EmbeddedSource{}), nil)

	s = NewService(Options{
		Template:     render.DefaultTemplate,
		Theme:        render.DefaultTheme,
		KeepVersions: 2,
	}, parser, optimizer, fakeResolver{}, coordinator, nil)
	return s, root
}

func janeResume() (r content.Resume) {
	r = content.Resume{
		Name:    "Jane Doe",
		Contact: content.Contact{Email: "jane@example.com"},
		Experience: []content.Experience{
			{Organization: "Acme", Title: "Engineer", Bullets: []string{"Built things"}},
		},
		Skills: []content.Skill{{Skill: "Go", Level: "Expert"}},
	}
	return r
}

func TestGenerate(t *testing.T) {
	optimizer := &fakeOptimizer{resume: janeResume()}
	parser := &fakeParser{}
	s, root := newTestService(t, optimizer, parser)

	result, err := s.Generate(context.Background(), GenerateRequest{
		ProfileID:      "Jane Doe",
		SourceFiles:    []string{"/in/cv.pdf", "/in/notes.md"},
		JobDescription: "jd.txt",
		StyleReference: "concise",
		Language:       "Chinese",
	})
	require.NoError(t, err)

	assert.Equal(t, "Jane_Doe", result.ProfileID)
	assert.Equal(t, version.ID("v202403010915"), result.Version)
	assert.Len(t, result.Succeeded(), 3)
	assert.False(t, result.Partial())
	assert.Equal(t, filepath.Join(root, "Jane_Doe", "v202403010915"), result.Dir)

	require.Len(t, optimizer.requests, 1)
	req := optimizer.requests[0]
	assert.Contains(t, req.RawText, "=== cv.pdf ===\ntext of cv.pdf")
	assert.Contains(t, req.RawText, "=== notes.md ===")
	assert.Equal(t, "resolved jd.txt", req.JobDescription)
	assert.Equal(t, "resolved concise", req.StyleReference)
	assert.Equal(t, llm.LanguageChinese, req.Language)
	assert.Nil(t, req.Prior)

	meta, err := profile.ReadMetadata(result.Dir)
	require.NoError(t, err)
	assert.Equal(t, "fake-model", meta.Model)
	assert.Equal(t, "chinese", meta.Language)
	assert.InDelta(t, 0.2, meta.AITemperature, 1e-9)
	assert.Equal(t, []string{"cv.pdf", "notes.md"}, meta.SourceFiles)
	assert.Equal(t, "resolved jd.txt", meta.JobDescriptionExcerpt)
}

func TestGenerateWithContentSkipsOptimizer(t *testing.T) {
	optimizer := &fakeOptimizer{}
	parser := &fakeParser{}
	s, _ := newTestService(t, optimizer, parser)

	resume := janeResume()
	result, err := s.Generate(context.Background(), GenerateRequest{
		ProfileID: "jane",
		Formats:   []string{"md", "html"},
		Theme:     "modern",
		Content:   &resume,
	})
	require.NoError(t, err)

	assert.Empty(t, optimizer.requests)
	assert.Empty(t, parser.paths)
	assert.Equal(t, []render.Format{render.FormatMarkdown, render.FormatHTML}, result.Succeeded())
	assert.Equal(t, "modern", result.Metadata.Theme)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		req  GenerateRequest
	}{
		{name: "no sources", req: GenerateRequest{ProfileID: "jane"}},
		{name: "bad profile", req: GenerateRequest{ProfileID: "///", SourceFiles: []string{"a.md"}}},
		{name: "bad format", req: GenerateRequest{ProfileID: "jane", SourceFiles: []string{"a.md"}, Formats: []string{"pdf"}}},
		{name: "bad language", req: GenerateRequest{ProfileID: "jane", SourceFiles: []string{"a.md"}, Language: "klingon"}},
		{name: "unreadable job description", req: GenerateRequest{ProfileID: "jane", SourceFiles: []string{"a.md"}, JobDescription: "broken"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			optimizer := &fakeOptimizer{resume: janeResume()}
			s, root := newTestService(t, optimizer, &fakeParser{})

			_, err := s.Generate(context.Background(), tt.req)
			require.Error(t, err)
			assert.Empty(t, optimizer.requests)

			entries, readErr := os.ReadDir(root)
			require.NoError(t, readErr)
			assert.Empty(t, entries, "nothing may be written on rejected input")
		})
	}
}

func TestGenerateOptimizerFailure(t *testing.T) {
	optimizer := &fakeOptimizer{err: &llm.AIServiceError{Kind: llm.KindQuota, StatusCode: 429, Message: "slow down"}}
	s, root := newTestService(t, optimizer, &fakeParser{})

	_, err := s.Generate(context.Background(), GenerateRequest{ProfileID: "jane", SourceFiles: []string{"cv.md"}})
	require.Error(t, err)

	var aiErr *llm.AIServiceError
	require.True(t, errors.As(err, &aiErr))
	assert.Equal(t, llm.KindQuota, aiErr.Kind)
	assert.NoDirExists(t, filepath.Join(root, "jane"))
}

func TestGenerateParserFailure(t *testing.T) {
	optimizer := &fakeOptimizer{resume: janeResume()}
	parser := &fakeParser{err: &docparse.UnsupportedFormatError{Path: "cv.rtf", Ext: ".rtf"}}
	s, _ := newTestService(t, optimizer, parser)

	_, err := s.Generate(context.Background(), GenerateRequest{ProfileID: "jane", SourceFiles: []string{"cv.rtf"}})
	var unsupported *docparse.UnsupportedFormatError
	require.True(t, errors.As(err, &unsupported))
	assert.Empty(t, optimizer.requests)
}

func TestUpdate(t *testing.T) {
	optimizer := &fakeOptimizer{}
	s, _ := newTestService(t, optimizer, &fakeParser{})

	resume := janeResume()
	first, err := s.Generate(context.Background(), GenerateRequest{
		ProfileID:      "jane",
		SourceFiles:    []string{"cv.md"},
		JobDescription: "platform role",
		Formats:        []string{"markdown", "html"},
		Theme:          "creative",
		Language:       "bilingual",
		Content:        &resume,
	})
	require.NoError(t, err)

	// the optimizer drops the name; the merge must keep it
	optimizer.resume = content.Resume{Skills: []content.Skill{{Skill: "Go"}, {Skill: "Rust"}}}

	second, err := s.Update(context.Background(), UpdateRequest{
		ExistingVersionPath: filepath.Join(first.Dir, profile.ArtifactName("jane", first.Version, render.FormatHTML)),
		NewSourceFiles:      []string{"/tmp/rust-project.md"},
	})
	require.NoError(t, err)

	require.Len(t, optimizer.requests, 1)
	req := optimizer.requests[0]
	require.NotNil(t, req.Prior)
	assert.Equal(t, "Jane Doe", req.Prior.Name)
	assert.Contains(t, req.RawText, "rust-project.md")
	assert.Equal(t, "resolved platform role", req.JobDescription)
	assert.Equal(t, llm.LanguageBilingual, req.Language)

	assert.Equal(t, "jane", second.ProfileID)
	assert.Equal(t, version.ID("v202403010915-2"), second.Version)
	assert.Equal(t, first.Version, second.Metadata.PreviousVersion)
	assert.Equal(t, "creative", second.Metadata.Theme)
	assert.Equal(t, []string{"markdown", "html"}, second.Metadata.FormatsGenerated)
	assert.Equal(t, []string{"cv.md", "rust-project.md"}, second.Metadata.SourceFiles)

	loaded, err := profile.LoadVersion(second.Dir)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", loaded.Resume.Name)
	assert.Equal(t, "jane@example.com", loaded.Resume.Contact.Email)
	assert.Len(t, loaded.Resume.Skills, 2)
	assert.Equal(t, resume.Experience, loaded.Resume.Experience)

	// the earlier version is untouched
	assert.DirExists(t, first.Dir)
}

func TestUpdateReusesFullJobDescription(t *testing.T) {
	optimizer := &fakeOptimizer{resume: janeResume()}
	s, _ := newTestService(t, optimizer, &fakeParser{})
	long := strings.Repeat("Operate multi-region Kubernetes clusters. ", 40)

	first, err := s.Generate(context.Background(), GenerateRequest{
		ProfileID:      "jane",
		SourceFiles:    []string{"cv.md"},
		JobDescription: long,
	})
	require.NoError(t, err)

	second, err := s.Update(context.Background(), UpdateRequest{
		ExistingVersionPath: first.Dir,
		NewSourceFiles:      []string{"talk.md"},
	})
	require.NoError(t, err)

	require.Len(t, optimizer.requests, 2)
	assert.Equal(t, "resolved "+long, optimizer.requests[1].JobDescription)
	assert.Equal(t, first.Metadata.JobDescriptionSHA256, second.Metadata.JobDescriptionSHA256)
}

func TestUpdateRequiresNewMaterial(t *testing.T) {
	s, _ := newTestService(t, &fakeOptimizer{}, &fakeParser{})

	_, err := s.Update(context.Background(), UpdateRequest{ExistingVersionPath: "/nowhere"})
	require.Error(t, err)
}

func TestUpdateMissingVersion(t *testing.T) {
	optimizer := &fakeOptimizer{}
	s, root := newTestService(t, optimizer, &fakeParser{})

	_, err := s.Update(context.Background(), UpdateRequest{
		ExistingVersionPath: filepath.Join(root, "jane", "v202401010000"),
		NewSourceFiles:      []string{"new.md"},
	})
	require.Error(t, err)
	assert.Empty(t, optimizer.requests)
}

func TestListAndCleanup(t *testing.T) {
	s, _ := newTestService(t, &fakeOptimizer{}, &fakeParser{})

	resume := janeResume()
	for i := 0; i < 4; i++ {
		_, err := s.Generate(context.Background(), GenerateRequest{ProfileID: "jane", Formats: []string{"md"}, Content: &resume})
		require.NoError(t, err)
	}

	summaries, err := s.List(true)
	require.NoError(t, err)
	require.Len(t, summaries, 1)
	require.Len(t, summaries[0].Versions, 4)
	assert.NotNil(t, summaries[0].Versions[0].Metadata)

	deleted, err := s.Cleanup("jane", 3)
	require.NoError(t, err)
	assert.Equal(t, []version.ID{"v202403010915"}, deleted)

	// negative keep falls back to the configured default of 2
	deleted, err = s.Cleanup("jane", -1)
	require.NoError(t, err)
	assert.Equal(t, []version.ID{"v202403010915-2"}, deleted)

	summaries, err = s.List(false)
	require.NoError(t, err)
	assert.Equal(t, version.ID("v202403010915-4"), summaries[0].Latest())
	assert.Len(t, summaries[0].Versions, 2)
}

func TestCleanupUnknownProfile(t *testing.T) {
	s, _ := newTestService(t, &fakeOptimizer{}, &fakeParser{})

	_, err := s.Cleanup("ghost", 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestGenerateRemoteOnlyKeepsLocalPathsLiteral(t *testing.T) {
	optimizer := &fakeOptimizer{resume: janeResume()}
	s, _ := newTestService(t, optimizer, &fakeParser{})

	_, err := s.Generate(context.Background(), GenerateRequest{
		ProfileID:      "jane",
		SourceFiles:    []string{"cv.md"},
		JobDescription: "/etc/hosts",
		StyleReference: "https://example.com/style",
		RemoteOnly:     true,
	})
	require.NoError(t, err)

	require.Len(t, optimizer.requests, 1)
	assert.Equal(t, "/etc/hosts", optimizer.requests[0].JobDescription)
	assert.Equal(t, "resolved https://example.com/style", optimizer.requests[0].StyleReference)
}
