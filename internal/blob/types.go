// Package blob is the entry point to object storage. It re-exports the core
// abstractions and owns the only imports of the infra drivers.
package blob

import (
	"rotorcore/internal/blob/core"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a write.
	PutOptions = core.PutOptions
	// Info describes stored object metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverMemory     = core.DriverMemory
)

var (
	ErrNotFound   = core.ErrNotFound
	ErrExists     = core.ErrExists
	ErrInvalidKey = core.ErrInvalidKey
)

const (
	ContentTypeConfig     = core.ContentTypeConfig
	ContentTypeYAML       = core.ContentTypeYAML
	ContentTypeTranscript = core.ContentTypeTranscript
	MetaKind              = core.MetaKind
	MetaSource            = core.MetaSource
)
