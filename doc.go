/*
Package emberfile implements a block-framed, append-only file store: the
on-disk substrate a document database uses to persist chunks of data and
periodic commit headers to a single file, recovering the latest committed
state by scanning backward from the end of the file.

See the block, chunk, and header packages for the on-disk codecs, file for
the actor that serializes I/O against one open file, and store for the
directory-level façade that opens named files and retires them through a
delete-staging policy.
*/
package emberfile
