// Package arc provides utility functions for the archive index.
package arc

import "errors"

// Sentinel errors for package arc.
// These errors can be checked with errors.Is() for specific error handling.
var (
	// Lookup errors
	ErrMissing      = errors.New("hash not found in index")
	ErrNotDirectory = errors.New("expected directory but got file")
	ErrExpectedFile = errors.New("expected file, got directory")

	// Mutation errors
	ErrSlotOutOfRange  = errors.New("table slot out of range")
	ErrIndexOutOfRange = errors.New("index out of range")

	// Archive errors
	ErrNotArczExtension = errors.New("file path extension is not '.arcz'")
	ErrBlockMissing     = errors.New("data block missing from archive")
)
