package profile

import (
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/nikogura/cvforge/pkg/version"
)

// pruneLocks serialises prune runs per profile root within this process.
//
//nolint:gochecknoglobals // process-wide lock table
var pruneLocks sync.Map

// Pruner deletes old complete versions of a profile.
type Pruner struct {
	logger    *slog.Logger
	removeAll func(path string) error
}

// NewPruner returns a Pruner. A nil logger uses slog.Default().
func NewPruner(logger *slog.Logger) (p *Pruner) {
	if logger == nil {
		logger = slog.Default()
	}
	p = &Pruner{logger: logger, removeAll: os.RemoveAll}
	return p
}

// Prune keeps the newest keep complete versions under profileRoot and deletes the rest,
// oldest first. keep <= 0 deletes nothing. A version that cannot be removed is logged
// and skipped; the returned ids are the versions actually deleted.
func (p *Pruner) Prune(profileRoot string, keep int) (deleted []version.ID, err error) {
	if keep <= 0 {
		p.logger.Debug("prune skipped, keep is not positive", "profile_root", profileRoot, "keep", keep)
		return deleted, err
	}

	unlock := lockRoot(profileRoot)
	defer unlock()

	var complete []version.ID
	complete, err = CompleteVersions(profileRoot)
	if err != nil {
		return deleted, err
	}

	if len(complete) <= keep {
		return deleted, err
	}

	for _, id := range complete[:len(complete)-keep] {
		dir := filepath.Join(profileRoot, id.String())
		removeErr := p.removeAll(dir)
		if removeErr != nil {
			p.logger.Warn("failed to delete version", "dir", dir, "error", removeErr)
			continue
		}
		p.logger.Info("deleted version", "dir", dir)
		deleted = append(deleted, id)
	}

	return deleted, err
}

// CompleteVersions lists the versions under profileRoot that have a metadata record, ascending.
func CompleteVersions(profileRoot string) (ids []version.ID, err error) {
	var all []version.ID
	all, err = version.Existing(profileRoot)
	if err != nil {
		return ids, err
	}

	for _, id := range all {
		if IsComplete(filepath.Join(profileRoot, id.String())) {
			ids = append(ids, id)
		}
	}

	return ids, err
}

func lockRoot(profileRoot string) (unlock func()) {
	key := filepath.Clean(profileRoot)
	if abs, err := filepath.Abs(key); err == nil {
		key = abs
	}

	value, _ := pruneLocks.LoadOrStore(key, &sync.Mutex{})
	mu := value.(*sync.Mutex)
	mu.Lock()
	unlock = mu.Unlock
	return unlock
}
