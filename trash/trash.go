// Package trash implements the two delete-staging policies spec.md section
// 4.6 describes as an external collaborator to the file actor: a
// recovery-preserving rename, and a staged delete through a root-level
// .delete directory. Both are plain filesystem operations triggered by a
// caller outside any file actor's mailbox; neither depends on file, block,
// chunk, or header.
//
// There is no teacher file to ground this on directly — gaeadb never
// deletes a data file — so the shape (a small Policy interface plus two
// concrete implementations, one per spec.md's two named policies) follows
// the rest of the pack's convention of a narrow interface type next to its
// implementations (see e.g. disk.Disk/cache.Cache in the teacher). The
// staged policy's startup sweep of stale entries is adapted from the
// teacher's cache/locker Run-loop pattern: an errgroup fan-out with one
// goroutine per stale entry (no worker limit) instead of a single
// long-running goroutine, since cleanup is one-shot, not ongoing.
package trash

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nnsgmsone/damrey/logger"
	"golang.org/x/sync/errgroup"
)

// Policy removes a file from its normal location. RecoveryRename keeps the
// bytes under a new name; Staged moves them into the staging directory and
// removes them there, either before Delete returns or in the background.
type Policy interface {
	Delete(path string) error
}

// RecoveryRename renames a deleted file into a sibling carrying a
// timestamped ".deleted" suffix and bumps its mtime to now, so it sorts
// with other recent activity and can be told apart from a live file of the
// same stem.
type RecoveryRename struct {
	// Now is overridable for tests; defaults to time.Now.
	Now func() time.Time
}

func (r RecoveryRename) Delete(path string) error {
	now := r.Now
	if now == nil {
		now = time.Now
	}
	t := now()

	dir, base := filepath.Split(path)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	newBase := fmt.Sprintf("%s.%s.deleted%s", stem, t.Format("20060102.150405"), ext)
	dest := filepath.Join(dir, newBase)

	if err := os.Rename(path, dest); err != nil {
		return err
	}
	return os.Chtimes(dest, t, t)
}

// Staged renames a deleted file into <Root>/.delete/<uuid> and then either
// removes it immediately or hands it to a background worker, depending on
// Async. NewStaged clears any entries left over from a previous run's
// unfinished async deletes.
type Staged struct {
	Root  string // database root; staging area is Root/.delete
	Async bool
	Log   logger.Log
}

const stagingDirName = ".delete"

// NewStaged ensures Root/.delete exists and sweeps it clean of whatever a
// previous process left behind, concurrently, before returning.
func NewStaged(root string, async bool, log logger.Log) (*Staged, error) {
	dir := filepath.Join(root, stagingDirName)
	if err := os.MkdirAll(dir, 0775); err != nil {
		return nil, err
	}
	s := &Staged{Root: root, Async: async, Log: log}
	if err := s.sweepStale(dir); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Staged) sweepStale(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(context.Background())
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		g.Go(func() error {
			if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
				return err
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	if s.Log != nil && len(entries) > 0 {
		s.Log.Infof("cleared %d stale staged delete(s) from %s", len(entries), dir)
	}
	return nil
}

func (s *Staged) Delete(path string) error {
	dest := filepath.Join(s.Root, stagingDirName, uuid.New().String())
	if err := os.Rename(path, dest); err != nil {
		return err
	}
	if !s.Async {
		return os.Remove(dest)
	}
	go func() {
		if err := os.Remove(dest); err != nil && !os.IsNotExist(err) && s.Log != nil {
			s.Log.Errorf("staged delete of %s failed: %v", dest, err)
		}
	}()
	return nil
}
