// Package file implements the file actor: the long-lived owner of one open
// file descriptor that serializes every read/write operation against it and
// maintains the authoritative end-of-file cursor.
//
// Grounded on the teacher's scheduler package for the mailbox shape (a
// typed message with an op code and a one-shot reply channel, processed by
// a single goroutine's Run loop) and on cache/locker for the idle
// refcount-and-ticker pattern, reworked from "page cache entry with a
// hot/cold/free queue" into "open file with an observer count and a single
// reschedulable idle timer", which is all spec.md's idle-close needs.
package file

import (
	"os"
	"sync/atomic"
	"time"

	"github.com/emberstore/emberfile/errmsg"
	"github.com/nnsgmsone/damrey/logger"
)

// Options selects how Open behaves, mirroring spec.md section 4.5's option
// set.
type Options struct {
	Create         bool // create the file if it doesn't exist
	Overwrite      bool // truncate an existing non-empty file instead of failing AlreadyExists
	ReadOnly       bool // open for reads only; implies !Create
	Sys            bool // system file: excluded from open-fd tracking upstream
	NoLogIfMissing bool // suppress the NotFound log line
}

const (
	opAppend = iota
	opAppendRaw
	opPread
	opWriteHeader
	opReadHeader
	opTruncate
	opSync
	opBytes
	opClose
	opSetOwner
	opOwnerDied
)

type request struct {
	kind      int
	payload   []byte
	withMD5   bool
	pos       int64
	ownerDone <-chan struct{}
	reply     chan response
}

type response struct {
	pos    int64
	n      int
	size   int64
	payload []byte
	digest  []byte
	err     error
}

// File is an opaque handle to an open file actor. All methods are safe to
// call concurrently; the actor behind the handle serializes them.
type File struct {
	path  string
	a     *actor
}

// actor owns the descriptor and the eof cursor. Every field below is only
// ever touched by the goroutine running Run, except observers (atomic) and
// mailbox/done (channels, safe to use from any goroutine by construction).
type actor struct {
	fd    *os.File
	path  string
	eof   int64
	isSys bool
	log   logger.Log

	observers int32 // atomic; see Attach/Detach

	mailbox chan *request
	done    chan struct{}

	ownerCancel func() // cancels the current owner death-watch goroutine, if any

	initialWait  time.Duration
	monitorCheck time.Duration
}

func (a *actor) call(req *request) response {
	req.reply = make(chan response, 1)
	select {
	case a.mailbox <- req:
	case <-a.done:
		return response{err: errmsg.Closed}
	}
	select {
	case r := <-req.reply:
		return r
	case <-a.done:
		return response{err: errmsg.Closed}
	}
}

func addObserver(n *int32, delta int32) int32 {
	return atomic.AddInt32(n, delta)
}
