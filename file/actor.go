package file

import (
	"errors"
	"io"
	"os"
	"time"

	"github.com/emberstore/emberfile/block"
	"github.com/emberstore/emberfile/chunk"
	"github.com/emberstore/emberfile/constant"
	"github.com/emberstore/emberfile/errmsg"
	"github.com/emberstore/emberfile/header"
	"golang.org/x/sys/unix"
)

// Run is the actor's mailbox loop: one goroutine owns fd and eof for the
// life of the file. It starts an idle timer on entry and reschedules it on
// every message, closing the file itself once the timer fires with no
// observers attached. A registered owner does not keep the file open.
func (a *actor) Run() {
	defer close(a.done)
	timer := time.NewTimer(a.initialWait)
	defer timer.Stop()
	for {
		select {
		case req, ok := <-a.mailbox:
			if !ok {
				return
			}
			resetTimer(timer, a.monitorCheck)
			if stop := a.handle(req); stop {
				return
			}
		case <-timer.C:
			if addObserver(&a.observers, 0) == 0 {
				if a.log != nil {
					a.log.Infof("idle-close: %s", a.path)
				}
				a.closeLocked()
				return
			}
			resetTimer(timer, a.monitorCheck)
		}
	}
}

func resetTimer(t *time.Timer, d time.Duration) {
	t.Stop()
	t.Reset(d)
}

func (a *actor) closeLocked() {
	if a.ownerCancel != nil {
		a.ownerCancel()
	}
	a.fd.Close()
}

func (a *actor) handle(req *request) (stop bool) {
	switch req.kind {
	case opAppend:
		a.doAppend(req)
	case opAppendRaw:
		a.doAppendRaw(req)
	case opPread:
		return a.doPread(req)
	case opWriteHeader:
		a.doWriteHeader(req)
	case opReadHeader:
		a.doReadHeader(req)
	case opTruncate:
		a.doTruncate(req)
	case opSync:
		a.doSync(req)
	case opBytes:
		req.reply <- response{size: a.eof}
	case opSetOwner:
		a.doSetOwner(req)
	case opOwnerDied:
		a.ownerCancel = nil
		req.reply <- response{}
		if addObserver(&a.observers, 0) == 0 {
			if a.log != nil {
				a.log.Infof("owner died, closing idle file: %s", a.path)
			}
			a.closeLocked()
			return true
		}
	case opClose:
		a.closeLocked()
		req.reply <- response{}
		return true
	}
	return false
}

func (a *actor) doAppend(req *request) {
	encoded, err := chunk.Encode(req.payload, req.withMD5)
	if err != nil {
		req.reply <- response{err: err}
		return
	}
	pos := a.eof
	segs := block.Frame(block.Offset(pos), encoded, constant.PrefixData)
	n, err := a.pwritev(segs, pos)
	if err != nil {
		req.reply <- response{err: err}
		return
	}
	a.eof = pos + int64(n)
	req.reply <- response{pos: pos, n: n}
}

func (a *actor) doAppendRaw(req *request) {
	pos := a.eof
	segs := block.Frame(block.Offset(pos), req.payload, constant.PrefixData)
	n, err := a.pwritev(segs, pos)
	if err != nil {
		req.reply <- response{err: err}
		return
	}
	a.eof = pos + int64(n)
	req.reply <- response{pos: pos, n: n}
}

// doPread reports corruption back to the caller and, per spec.md's error
// handling design, treats a verified MD5 mismatch as fatal to the actor:
// the file is considered unusable and the mailbox loop exits after this
// reply.
func (a *actor) doPread(req *request) (stop bool) {
	payload, digest, err := chunk.DecodeAt(fdReaderAt{a.fd}, a.path, req.pos)
	if err != nil {
		req.reply <- response{err: err}
		var corrupt *errmsg.Corruption
		if errors.As(err, &corrupt) {
			if a.log != nil {
				a.log.Errorf("emergency: File corruption in %s at position %d", corrupt.Path, corrupt.Pos)
			}
			a.closeLocked()
			return true
		}
		return false
	}
	req.reply <- response{payload: payload, digest: digest}
	return false
}

func (a *actor) doWriteHeader(req *request) {
	out, newEOF, err := header.Encode(a.eof, req.payload)
	if err != nil {
		req.reply <- response{err: err}
		return
	}
	n, err := a.pwrite(out, a.eof)
	if err != nil {
		req.reply <- response{err: err}
		return
	}
	pos := a.eof
	a.eof = newEOF
	req.reply <- response{pos: pos, n: n}
}

func (a *actor) doReadHeader(req *request) {
	payload, err := header.Find(fdReaderAt{a.fd}, a.eof)
	if err != nil {
		req.reply <- response{err: err}
		return
	}
	req.reply <- response{payload: payload}
}

func (a *actor) doTruncate(req *request) {
	if err := unix.Ftruncate(int(a.fd.Fd()), req.pos); err != nil {
		req.reply <- response{err: err}
		return
	}
	a.eof = req.pos
	req.reply <- response{}
}

func (a *actor) doSync(req *request) {
	req.reply <- response{err: unix.Fdatasync(int(a.fd.Fd()))}
}

func (a *actor) doSetOwner(req *request) {
	if a.ownerCancel != nil {
		a.ownerCancel()
	}
	if req.ownerDone == nil {
		a.ownerCancel = nil
		req.reply <- response{}
		return
	}
	stop := make(chan struct{})
	a.ownerCancel = func() { close(stop) }
	mailbox := a.mailbox
	go func() {
		select {
		case <-req.ownerDone:
			select {
			case mailbox <- &request{kind: opOwnerDied, reply: make(chan response, 1)}:
			case <-stop:
			}
		case <-stop:
		}
	}()
	req.reply <- response{}
}

// pwritev writes segs starting at off as a single vectored write, retrying
// on a short write the way a positioned write must: the kernel is free to
// write less than requested even when no error is returned.
func (a *actor) pwritev(segs [][]byte, off int64) (int, error) {
	total := 0
	for _, s := range segs {
		total += len(s)
	}
	if total == 0 {
		return 0, nil
	}
	iovs := segs
	for len(iovs) > 0 {
		n, err := unix.Pwritev(int(a.fd.Fd()), iovs, off)
		if err != nil {
			return 0, err
		}
		if n == 0 {
			return 0, errmsg.WriteFailed
		}
		off += int64(n)
		iovs = dropWritten(iovs, n)
	}
	return total, nil
}

func (a *actor) pwrite(buf []byte, off int64) (int, error) {
	return a.pwritev([][]byte{buf}, off)
}

// dropWritten trims n bytes off the front of a list of iovecs, for resuming
// a short vectored write.
func dropWritten(iovs [][]byte, n int) [][]byte {
	for n > 0 && len(iovs) > 0 {
		if n < len(iovs[0]) {
			iovs[0] = iovs[0][n:]
			return iovs
		}
		n -= len(iovs[0])
		iovs = iovs[1:]
	}
	return iovs
}

// fdReaderAt adapts *os.File to io.ReaderAt for codec callers that don't
// need to know they're reading a real file.
type fdReaderAt struct{ fd *os.File }

func (f fdReaderAt) ReadAt(p []byte, off int64) (int, error) {
	n, err := unix.Pread(int(f.fd.Fd()), p, off)
	if err != nil {
		return n, err
	}
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}
