package profile

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/nikogura/cvforge/pkg/content"
	"github.com/nikogura/cvforge/pkg/render"
	"github.com/nikogura/cvforge/pkg/version"
	"github.com/pkg/errors"
)

// LoadedVersion is an existing version together with the content it was rendered from.
type LoadedVersion struct {
	ProfileID string
	Version   version.ID
	Dir       string
	Metadata  Metadata
	Resume    content.Resume

	// JobDescription is the full job description, or the metadata excerpt for
	// versions written without one.
	JobDescription string
}

// LoadVersion resolves a version directory, or any artifact inside one, and recovers
// its content from the Markdown front matter.
func LoadVersion(path string) (loaded LoadedVersion, err error) {
	var info os.FileInfo
	info, err = os.Stat(path)
	if err != nil {
		err = &IOError{Op: "stat", Path: path, Cause: err}
		return loaded, err
	}

	loaded.Dir = filepath.Clean(path)
	if !info.IsDir() {
		loaded.Dir = filepath.Dir(loaded.Dir)
	}

	loaded.Version, err = version.Parse(filepath.Base(loaded.Dir))
	if err != nil {
		err = errors.Wrapf(err, "%s is not a version directory", loaded.Dir)
		return loaded, err
	}
	loaded.ProfileID = filepath.Base(filepath.Dir(loaded.Dir))

	loaded.Metadata, err = ReadMetadata(loaded.Dir)
	if err != nil {
		err = errors.Wrapf(err, "version %s is incomplete", loaded.Dir)
		return loaded, err
	}

	mdPath := filepath.Join(loaded.Dir, ArtifactName(loaded.ProfileID, loaded.Version, render.FormatMarkdown))
	var doc []byte
	doc, err = os.ReadFile(mdPath)
	if err != nil {
		err = &IOError{Op: "read", Path: mdPath, Cause: err}
		err = errors.Wrap(err, "content can only be recovered from the markdown artifact")
		return loaded, err
	}

	var fm render.FrontMatter
	fm, _, err = render.ParseFrontMatter(doc)
	if err != nil {
		err = errors.Wrapf(err, "failed to recover content from %s", mdPath)
		return loaded, err
	}
	loaded.Resume = fm.Content

	loaded.JobDescription = loaded.Metadata.JobDescriptionExcerpt
	jdPath := filepath.Join(loaded.Dir, JobDescriptionFile)
	var jdText []byte
	jdText, err = os.ReadFile(jdPath)
	switch {
	case err == nil:
		loaded.JobDescription = string(jdText)
	case errors.Is(err, fs.ErrNotExist):
		err = nil
	default:
		err = &IOError{Op: "read", Path: jdPath, Cause: err}
		return loaded, err
	}

	return loaded, err
}
