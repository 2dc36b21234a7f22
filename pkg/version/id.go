// Package version allocates and orders profile version identifiers.
//
// Identifiers have the form vYYYYMMDDHHMM, optionally followed by -N (N >= 2) when more
// than one version is created within the same minute.
package version

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

const timestampLayout = "200601021504"

var idPattern = regexp.MustCompile(`^v(\d{12})(?:-(\d+))?$`)

// ID is a version identifier such as v202401151030 or v202401151030-2.
type ID string

// String returns the identifier text.
func (id ID) String() string {
	return string(id)
}

type parsedID struct {
	stamp  time.Time
	suffix int
}

// New builds the identifier for the given minute and suffix. A suffix below 2 yields the bare form.
func New(t time.Time, suffix int) (id ID) {
	base := "v" + t.UTC().Truncate(time.Minute).Format(timestampLayout)
	if suffix < 2 {
		id = ID(base)
		return id
	}
	id = ID(fmt.Sprintf("%s-%d", base, suffix))
	return id
}

// Parse validates s as a version identifier.
func Parse(s string) (id ID, err error) {
	_, err = parse(s)
	if err != nil {
		return id, err
	}
	id = ID(s)
	return id, err
}

func parse(s string) (p parsedID, err error) {
	m := idPattern.FindStringSubmatch(s)
	if m == nil {
		err = errors.Errorf("invalid version id %q", s)
		return p, err
	}

	p.stamp, err = time.Parse(timestampLayout, m[1])
	if err != nil {
		err = errors.Wrapf(err, "invalid version timestamp in %q", s)
		return p, err
	}

	p.suffix = 1
	if m[2] != "" {
		p.suffix, err = strconv.Atoi(m[2])
		if err != nil || p.suffix < 2 {
			err = errors.Errorf("invalid version suffix in %q", s)
			return p, err
		}
	}

	return p, err
}

// Timestamp returns the minute encoded in the identifier, in UTC.
func (id ID) Timestamp() (t time.Time, err error) {
	var p parsedID
	p, err = parse(string(id))
	if err != nil {
		return t, err
	}
	t = p.stamp
	return t, err
}

// Suffix returns the disambiguation counter, 1 when the identifier has none.
func (id ID) Suffix() (n int, err error) {
	var p parsedID
	p, err = parse(string(id))
	if err != nil {
		return n, err
	}
	n = p.suffix
	return n, err
}

// Compare orders identifiers by timestamp and then suffix. Invalid identifiers sort
// before valid ones and fall back to plain string comparison among themselves.
func Compare(a, b ID) (c int) {
	pa, errA := parse(string(a))
	pb, errB := parse(string(b))

	switch {
	case errA != nil && errB != nil:
		c = compareStrings(string(a), string(b))
	case errA != nil:
		c = -1
	case errB != nil:
		c = 1
	case pa.stamp.Before(pb.stamp):
		c = -1
	case pa.stamp.After(pb.stamp):
		c = 1
	default:
		c = compareInts(pa.suffix, pb.suffix)
	}

	return c
}

// Sort orders ids ascending in place.
func Sort(ids []ID) {
	sort.SliceStable(ids, func(i, j int) bool {
		return Compare(ids[i], ids[j]) < 0
	})
}

func compareInts(a, b int) (c int) {
	switch {
	case a < b:
		c = -1
	case a > b:
		c = 1
	}
	return c
}

func compareStrings(a, b string) (c int) {
	switch {
	case a < b:
		c = -1
	case a > b:
		c = 1
	}
	return c
}
