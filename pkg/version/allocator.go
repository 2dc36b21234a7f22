package version

import (
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
)

// Allocation is a reserved, not yet created, version directory.
type Allocation struct {
	ID  ID
	Dir string
}

// Existing lists the version identifiers present under profileRoot, ascending. Every
// well-formed directory counts, complete or not. A missing root yields no ids.
func Existing(profileRoot string) (ids []ID, err error) {
	var entries []os.DirEntry
	entries, err = os.ReadDir(profileRoot)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			err = nil
			return ids, err
		}
		err = &PathError{Path: profileRoot, Cause: err}
		return ids, err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		id, parseErr := Parse(entry.Name())
		if parseErr != nil {
			continue
		}
		ids = append(ids, id)
	}

	Sort(ids)
	return ids, err
}

// Allocate computes the next free version identifier for profileRoot at time now.
// It has no side effects; the caller creates the directory and must handle losing a
// race to a concurrent allocator.
func Allocate(profileRoot string, now time.Time) (alloc Allocation, err error) {
	info, statErr := os.Stat(profileRoot)
	if statErr == nil && !info.IsDir() {
		err = &PathError{Path: profileRoot, Cause: errors.New("not a directory")}
		return alloc, err
	}

	var ids []ID
	ids, err = Existing(profileRoot)
	if err != nil {
		return alloc, err
	}

	alloc.ID = Next(ids, now)
	alloc.Dir = filepath.Join(profileRoot, alloc.ID.String())
	return alloc, err
}

// Next returns the smallest identifier for now that sorts after every id in existing.
// When the clock is behind the newest existing minute, the newest minute is reused
// with a higher suffix so identifiers keep increasing.
func Next(existing []ID, now time.Time) (id ID) {
	stamp := now.UTC().Truncate(time.Minute)
	suffix := 1

	var newest *parsedID
	for _, e := range existing {
		p, err := parse(string(e))
		if err != nil {
			continue
		}
		if newest == nil || p.stamp.After(newest.stamp) || (p.stamp.Equal(newest.stamp) && p.suffix > newest.suffix) {
			pc := p
			newest = &pc
		}
	}

	if newest != nil && !stamp.After(newest.stamp) {
		stamp = newest.stamp
		suffix = newest.suffix + 1
	}

	id = New(stamp, suffix)
	return id
}
