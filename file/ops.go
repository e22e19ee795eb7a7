package file

// Path returns the path the file was opened with.
func (f *File) Path() string { return f.path }

// Done returns a channel that closes once the actor has shut down, for
// callers that want to wait on an idle-close or owner-death exit rather
// than poll.
func (f *File) Done() <-chan struct{} { return f.a.done }

// Attach registers an external observer, preventing idle-close while it
// holds the reference. Every Attach must be paired with a Detach.
func (f *File) Attach() { addObserver(&f.a.observers, 1) }

// Detach releases an observer registered with Attach.
func (f *File) Detach() { addObserver(&f.a.observers, -1) }

// AppendChunk appends payload as an unsigned chunk, returning the position
// it landed at and the number of raw bytes written.
func (f *File) AppendChunk(payload []byte) (pos int64, n int, err error) {
	r := f.a.call(&request{kind: opAppend, payload: payload, withMD5: false})
	return r.pos, r.n, r.err
}

// AppendChunkMD5 appends payload as an MD5-signed chunk.
func (f *File) AppendChunkMD5(payload []byte) (pos int64, n int, err error) {
	r := f.a.call(&request{kind: opAppend, payload: payload, withMD5: true})
	return r.pos, r.n, r.err
}

// AppendRaw appends an already-encoded chunk (or any other raw byte
// sequence) verbatim, framing it at the current eof.
func (f *File) AppendRaw(encoded []byte) (pos int64, n int, err error) {
	r := f.a.call(&request{kind: opAppendRaw, payload: encoded})
	return r.pos, r.n, r.err
}

// PreadChunk decodes the chunk starting at the absolute position pos,
// returning its payload and, if it was MD5-signed, the embedded digest.
func (f *File) PreadChunk(pos int64) (payload []byte, digest []byte, err error) {
	r := f.a.call(&request{kind: opPread, pos: pos})
	return r.payload, r.digest, r.err
}

// WriteHeader writes a new MD5-signed header record at the current eof,
// padding to the next block boundary first if necessary.
func (f *File) WriteHeader(payload []byte) (pos int64, err error) {
	r := f.a.call(&request{kind: opWriteHeader, payload: payload})
	return r.pos, r.err
}

// ReadHeader scans backward from eof for the most recently written valid
// header, returning its payload.
func (f *File) ReadHeader() (payload []byte, err error) {
	r := f.a.call(&request{kind: opReadHeader})
	return r.payload, r.err
}

// Truncate moves the file's logical and physical size to pos.
func (f *File) Truncate(pos int64) error {
	r := f.a.call(&request{kind: opTruncate, pos: pos})
	return r.err
}

// Sync flushes the file's data to stable storage.
func (f *File) Sync() error {
	r := f.a.call(&request{kind: opSync})
	return r.err
}

// Bytes returns the file's current logical size.
func (f *File) Bytes() (int64, error) {
	r := f.a.call(&request{kind: opBytes})
	return r.size, r.err
}

// Close shuts the actor down, closing its descriptor. It is safe to call
// more than once; later calls return errmsg.Closed.
func (f *File) Close() error {
	r := f.a.call(&request{kind: opClose})
	return r.err
}

// SetOwner registers ownerDone as the owner's death notification: once it
// is closed, the actor becomes ownerless and runs an idle check. The owner
// is not counted as an observer (see Attach). Passing a nil channel clears the
// current owner without installing a watcher.
func (f *File) SetOwner(ownerDone <-chan struct{}) error {
	r := f.a.call(&request{kind: opSetOwner, ownerDone: ownerDone})
	return r.err
}
