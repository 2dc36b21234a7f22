package profile

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/nikogura/cvforge/pkg/version"
)

// VersionSummary describes one complete version.
type VersionSummary struct {
	ID       version.ID `json:"id"`
	Dir      string     `json:"dir"`
	Metadata *Metadata  `json:"metadata,omitempty"`
}

// Summary describes one profile and its complete versions, oldest first.
type Summary struct {
	ProfileID string           `json:"profile_id"`
	Dir       string           `json:"dir"`
	Versions  []VersionSummary `json:"versions"`
}

// Latest returns the newest version, or "" when the profile has none.
func (s Summary) Latest() (id version.ID) {
	if len(s.Versions) > 0 {
		id = s.Versions[len(s.Versions)-1].ID
	}
	return id
}

// List enumerates every profile under storeRoot. Incomplete version directories and
// entries that are not valid profile or version names are skipped.
func List(storeRoot string, detailed bool) (summaries []Summary, err error) {
	summaries = []Summary{}

	var entries []os.DirEntry
	entries, err = os.ReadDir(storeRoot)
	if err != nil {
		if os.IsNotExist(err) {
			err = nil
			return summaries, err
		}
		err = &IOError{Op: "list", Path: storeRoot, Cause: err}
		return summaries, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if sanitized, sanitizeErr := Sanitize(name); sanitizeErr != nil || sanitized != name {
			continue
		}

		var summary Summary
		summary, err = summarize(filepath.Join(storeRoot, name), name, detailed)
		if err != nil {
			return summaries, err
		}
		summaries = append(summaries, summary)
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].ProfileID < summaries[j].ProfileID
	})

	return summaries, err
}

func summarize(profileRoot, profileID string, detailed bool) (summary Summary, err error) {
	summary = Summary{ProfileID: profileID, Dir: profileRoot, Versions: []VersionSummary{}}

	var ids []version.ID
	ids, err = version.Existing(profileRoot)
	if err != nil {
		return summary, err
	}

	for _, id := range ids {
		dir := filepath.Join(profileRoot, id.String())
		meta, readErr := ReadMetadata(dir)
		if readErr != nil {
			continue
		}

		vs := VersionSummary{ID: id, Dir: dir}
		if detailed {
			m := meta
			vs.Metadata = &m
		}
		summary.Versions = append(summary.Versions, vs)
	}

	return summary, err
}
