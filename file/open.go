package file

import (
	"os"
	"path/filepath"
	"time"

	"github.com/emberstore/emberfile/constant"
	"github.com/emberstore/emberfile/errmsg"
	"github.com/nnsgmsone/damrey/logger"
)

// Open implements spec.md 4.5's lifecycle algorithm and starts the actor's
// mailbox loop before returning the handle. log may be nil for tests that
// don't care about logging.
func Open(path string, opts Options, log logger.Log) (*File, error) {
	return openWithTimers(path, opts, log, constant.InitialWait, constant.MonitorCheck)
}

// OpenTimed is Open with explicit idle-close timings, for callers (like
// store.Config) that override spec.md's INITIAL_WAIT/MONITOR_CHECK
// defaults.
func OpenTimed(path string, opts Options, log logger.Log, initialWait, monitorCheck time.Duration) (*File, error) {
	return openWithTimers(path, opts, log, initialWait, monitorCheck)
}

func openWithTimers(path string, opts Options, log logger.Log, initialWait, monitorCheck time.Duration) (*File, error) {
	fd, eof, err := openFd(path, opts, log)
	if err != nil {
		return nil, err
	}

	a := &actor{
		fd:           fd,
		path:         path,
		eof:          eof,
		isSys:        opts.Sys,
		log:          log,
		mailbox:      make(chan *request, 64),
		done:         make(chan struct{}),
		initialWait:  initialWait,
		monitorCheck: monitorCheck,
	}
	go a.Run()
	return &File{path: path, a: a}, nil
}

func openFd(path string, opts Options, log logger.Log) (*os.File, int64, error) {
	if opts.Create {
		if err := os.MkdirAll(filepath.Dir(path), 0775); err != nil {
			return nil, 0, err
		}
		flag := os.O_CREATE | os.O_RDWR
		fd, err := os.OpenFile(path, flag, 0664)
		if err != nil {
			return nil, 0, err
		}
		st, err := fd.Stat()
		if err != nil {
			fd.Close()
			return nil, 0, err
		}
		size := st.Size()
		switch {
		case size > 0 && !opts.Overwrite:
			fd.Close()
			return nil, 0, errmsg.AlreadyExists
		case size > 0 && opts.Overwrite:
			if err := fd.Truncate(0); err != nil {
				fd.Close()
				return nil, 0, err
			}
			if err := fd.Sync(); err != nil {
				fd.Close()
				return nil, 0, err
			}
			size = 0
		}
		return fd, size, nil
	}

	probe, err := os.OpenFile(path, os.O_RDONLY, 0)
	if err != nil {
		if os.IsNotExist(err) {
			if !opts.NoLogIfMissing && log != nil {
				log.Errorf("file not found: %s", path)
			}
			return nil, 0, errmsg.NotFound
		}
		return nil, 0, err
	}
	probe.Close()

	flag := os.O_RDWR
	if opts.ReadOnly {
		flag = os.O_RDONLY
	}
	fd, err := os.OpenFile(path, flag, 0664)
	if err != nil {
		return nil, 0, err
	}
	st, err := fd.Stat()
	if err != nil {
		fd.Close()
		return nil, 0, err
	}
	return fd, st.Size(), nil
}
