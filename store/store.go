package store

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/emberstore/emberfile/file"
	"github.com/emberstore/emberfile/trash"
	"github.com/nnsgmsone/damrey/logger"
)

// Open ensures cfg.DirName exists, wires up the configured delete-staging
// policy (clearing stale staged entries if Staged is selected), and returns
// a ready Store. This is the store package's analog to the teacher's
// db.Open, minus everything the B-tree/MVCC/WAL layers existed to support.
func Open(cfg Config) (*Store, error) {
	if cfg.LogWriter == nil {
		cfg.LogWriter = os.Stderr
	}
	if err := checkDir(cfg.DirName); err != nil {
		return nil, err
	}
	log := logger.New(cfg.LogWriter, "emberfile")

	var policy trash.Policy
	if cfg.StagedDelete {
		staged, err := trash.NewStaged(cfg.DirName, cfg.AsyncDelete, log)
		if err != nil {
			return nil, err
		}
		policy = staged
	} else {
		policy = trash.RecoveryRename{}
	}

	return &Store{
		cfg:    cfg,
		root:   cfg.DirName,
		policy: policy,
		log:    log,
		owners: make(map[string]chan struct{}),
	}, nil
}

// Open opens or creates the named file beneath the store's root and
// registers the store as its owner, so the file actor's death-notification
// path fires if the store ever forgets it via Close.
func (s *Store) Open(name string, opts file.Options) (*file.File, error) {
	path := filepath.Join(s.root, name)
	f, err := file.OpenTimed(path, opts, s.log, s.cfg.InitialWait, s.cfg.MonitorCheck)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.owners[path] = done
	s.mu.Unlock()
	if err := f.SetOwner(done); err != nil {
		return nil, err
	}
	return f, nil
}

// Forget releases the store's ownership of the named file without deleting
// it, closing its owner-death channel so the file's idle check runs.
func (s *Store) Forget(name string) {
	path := filepath.Join(s.root, name)
	s.mu.Lock()
	done, ok := s.owners[path]
	if ok {
		delete(s.owners, path)
	}
	s.mu.Unlock()
	if ok {
		close(done)
	}
}

// Delete forgets the named file (if the store owns it) and hands it to the
// configured trash policy.
func (s *Store) Delete(name string) error {
	s.Forget(name)
	path := filepath.Join(s.root, name)
	return s.policy.Delete(path)
}

// Close forgets every file the store owns. It does not close any open
// file.File handles directly; closing is the caller's responsibility, and
// a forgotten file's idle timer will close it once unobserved.
func (s *Store) Close() error {
	s.mu.Lock()
	owners := s.owners
	s.owners = make(map[string]chan struct{})
	s.mu.Unlock()
	for _, done := range owners {
		close(done)
	}
	return nil
}

func checkDir(dir string) error {
	st, err := os.Stat(dir)
	switch {
	case os.IsNotExist(err):
		return os.MkdirAll(dir, 0775)
	case err != nil:
		return err
	case !st.IsDir():
		return errors.New("store: " + dir + " is not a directory")
	}
	return nil
}
