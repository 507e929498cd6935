package ports

import (
	"context"
	"io"
)

type PutObjectInput struct {
	ObjectKey   string
	ContentType string
	Reader      io.Reader
	Size        int64
}

type PutObjectOutput struct {
	// ObjectKey as stored by the provider. For localfs this is the input
	// key; for gdrive it is the Drive fileId.
	ObjectKey string
	// URL is a publicly reachable address for the object, empty when the
	// provider cannot serve one (localfs).
	URL  string
	Size int64
}

// StorageProvider abstracts the artifact storage tiers (localfs, gdrive).
type StorageProvider interface {
	Provider() string
	// Remote reports whether objects live outside the local filesystem.
	// The publisher only deletes local artifacts after a remote put.
	Remote() bool

	PutObject(ctx context.Context, in PutObjectInput) (PutObjectOutput, error)
	// DeleteObject removes a published object; the reaper uses it to clean
	// up remote artifacts of expired jobs.
	DeleteObject(ctx context.Context, objectKey string) error
}
