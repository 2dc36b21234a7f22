package profile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/nikogura/cvforge/pkg/version"
)

// MetadataFile is written last; a version directory without it is incomplete.
const MetadataFile = "metadata.json"

// JobDescriptionFile holds the full job description a version was tailored to.
const JobDescriptionFile = "job_description.txt"

// Metadata is the provenance record of one version.
type Metadata struct {
	ProfileID             string            `json:"profile_id"`
	Version               version.ID        `json:"version"`
	RunID                 string            `json:"run_id"`
	CreatedAt             time.Time         `json:"created_at"`
	SourceFiles           []string          `json:"source_files"`
	JobDescriptionExcerpt string            `json:"job_description_excerpt"`
	JobDescriptionSHA256  string            `json:"job_description_sha256,omitempty"`
	FormatsGenerated      []string          `json:"formats_generated"`
	FormatsFailed         map[string]string `json:"formats_failed,omitempty"`
	Model                 string            `json:"model"`
	Language              string            `json:"language"`
	Template              string            `json:"template"`
	Theme                 string            `json:"theme"`
	AITemperature         float64           `json:"ai_temperature"`
	PreviousVersion       version.ID        `json:"previous_version,omitempty"`
}

// ReadMetadata loads metadata.json from a version directory.
func ReadMetadata(versionDir string) (meta Metadata, err error) {
	path := filepath.Join(versionDir, MetadataFile)

	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = &IOError{Op: "read", Path: path, Cause: err}
		return meta, err
	}

	err = json.Unmarshal(data, &meta)
	if err != nil {
		err = &IOError{Op: "decode", Path: path, Cause: err}
		return meta, err
	}

	return meta, err
}

// IsComplete reports whether versionDir carries a readable metadata record.
func IsComplete(versionDir string) (ok bool) {
	_, err := ReadMetadata(versionDir)
	ok = err == nil
	return ok
}

// writeMetadata stages the record in a temp file and renames it into place, so
// readers never see a partially written metadata.json.
func writeMetadata(versionDir string, meta Metadata) (err error) {
	path := filepath.Join(versionDir, MetadataFile)

	var data []byte
	data, err = json.MarshalIndent(meta, "", "  ")
	if err != nil {
		err = &IOError{Op: "encode", Path: path, Cause: err}
		return err
	}
	data = append(data, '\n')

	var tmp *os.File
	tmp, err = os.CreateTemp(versionDir, ".metadata-*.tmp")
	if err != nil {
		err = &IOError{Op: "create", Path: path, Cause: err}
		return err
	}
	tmpPath := tmp.Name()

	_, err = tmp.Write(data)
	if err == nil {
		err = tmp.Sync()
	}
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(tmpPath)
		err = &IOError{Op: "write", Path: path, Cause: err}
		return err
	}

	err = os.Rename(tmpPath, path)
	if err != nil {
		_ = os.Remove(tmpPath)
		err = &IOError{Op: "rename", Path: path, Cause: err}
		return err
	}

	return err
}
