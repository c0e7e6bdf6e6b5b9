package blob

import (
	"context"
	"fmt"
	"os"

	"rotorcore/internal/infra/blob/fs"
	memorystore "rotorcore/internal/infra/blob/memory"
	infraS3 "rotorcore/internal/infra/blob/s3"
)

// Environment variables read by Open.
const (
	EnvDriver = "ROTORCORE_BLOB_DRIVER"
	EnvFSRoot = "ROTORCORE_BLOB_FS_ROOT"
)

// Open selects a Store using environment variables:
//
//	ROTORCORE_BLOB_DRIVER: fs|s3|memory (default fs)
//	ROTORCORE_BLOB_FS_ROOT: directory root when driver=fs (default ./blobdata)
//	ROTORCORE_BLOB_S3_*: see NewS3FromEnv
func Open(ctx context.Context) (Store, error) {
	driver := os.Getenv(EnvDriver)
	if driver == "" {
		driver = string(DriverFilesystem)
	}
	switch Driver(driver) {
	case DriverFilesystem:
		return NewFilesystem(os.Getenv(EnvFSRoot))
	case DriverS3:
		return NewS3FromEnv(ctx)
	case DriverMemory:
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown blob driver %s", driver)
	}
}

// NewFilesystem returns a Store rooted at root.
func NewFilesystem(root string) (Store, error) {
	return fs.New(root)
}

// NewMemory returns an in-memory Store.
func NewMemory() Store { return memorystore.New() }

// S3Config configures NewS3.
type S3Config = infraS3.Config

// NewS3 returns an S3-backed Store.
func NewS3(ctx context.Context, cfg S3Config) (Store, error) {
	return infraS3.New(ctx, cfg)
}

// NewS3FromEnv returns an S3-backed Store configured from ROTORCORE_BLOB_S3_BUCKET,
// ROTORCORE_BLOB_S3_REGION, ROTORCORE_BLOB_S3_ENDPOINT and ROTORCORE_BLOB_S3_PATH_STYLE.
func NewS3FromEnv(ctx context.Context) (Store, error) {
	return infraS3.OpenFromEnv(ctx)
}

// NewMockS3ForTests exposes the fake S3 bucket for cross-package tests.
func NewMockS3ForTests() Store { return infraS3.NewMockForTests() }
