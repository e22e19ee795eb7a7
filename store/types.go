// Package store is the directory-level façade over the file actor and the
// delete-staging collaborator: it owns a root directory, opens and tracks
// the named files beneath it, and removes them through whichever trash
// policy the configuration selects.
//
// Grounded on the teacher's db package: Config/DefaultConfig/Open/Close
// follow db.go and types.go directly, generalized from "one fixed-layout
// B-tree database directory" to "a directory of independently named
// block-framed files".
package store

import (
	"io"
	"sync"
	"time"

	"github.com/emberstore/emberfile/constant"
	"github.com/emberstore/emberfile/trash"
	"github.com/nnsgmsone/damrey/logger"
)

// Config mirrors the teacher's db.Config: a small struct of knobs with a
// DefaultConfig constructor rather than functional options.
type Config struct {
	DirName      string
	LogWriter    io.Writer
	InitialWait  time.Duration
	MonitorCheck time.Duration
	StagedDelete bool // false selects RecoveryRename, true selects Staged
	AsyncDelete  bool // only meaningful when StagedDelete is set
}

// DefaultConfig returns the production defaults, matching the teacher's
// db.DefaultConfig.
func DefaultConfig() Config {
	return Config{
		DirName:      "emberfile.db",
		InitialWait:  constant.InitialWait,
		MonitorCheck: constant.MonitorCheck,
		StagedDelete: true,
		AsyncDelete:  true,
	}
}

// Store opens and deletes named files beneath a single root directory,
// playing the owner role for every file.File it hands out.
type Store struct {
	cfg    Config
	root   string
	policy trash.Policy
	log    logger.Log

	mu     sync.Mutex
	owners map[string]chan struct{} // path -> owner-death channel, closed on forget
}
