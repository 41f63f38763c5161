package ports

import "context"

// BlobStorage is the external blob-storage collaborator.
type BlobStorage interface {
	// Put writes data under key and returns its public URL. Implementations
	// must refuse to overwrite an existing key.
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
	// KeyFromURL recovers the storage key from a URL returned by Put.
	KeyFromURL(url string) (string, error)
}

// BlobRemover removes a previously uploaded blob by its public URL.
type BlobRemover interface {
	Remove(ctx context.Context, url string) error
}
