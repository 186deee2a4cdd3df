package archivechaine

import (
	"context"
	"io"
)

// Client is the capability the workflow depends on to talk to the
// archival service. The HTTP implementation is returned by Dial; tests
// inject a fake to replay update sequences deterministically.
type Client interface {
	// Submit sends an archival request and returns its acknowledgment.
	Submit(ctx context.Context, req Request) (*Handle, error)

	// SubscribeUpdates opens the finite update stream for an archive.
	// The stream ends at the first completed or failed update and is
	// not restartable.
	SubscribeUpdates(ctx context.Context, archiveID string) (UpdateStream, error)

	// Lookup fetches the persisted record of an existing archive.
	Lookup(ctx context.Context, archiveID string) (*Record, error)

	// Search queries the archive index.
	Search(ctx context.Context, query SearchQuery) (*SearchResponse, error)

	// Fetch downloads archived content from one of an archive's access
	// URLs. It returns the body and its content type; the caller must
	// close the body.
	Fetch(ctx context.Context, rawURL string) (io.ReadCloser, string, error)

	// Close releases the underlying connections. Safe to call more
	// than once.
	Close() error
}

// UpdateStream is a lazy sequence of status updates for one archive,
// consumed strictly in delivery order.
type UpdateStream interface {
	// Next returns the next update. It returns io.EOF once the stream
	// is exhausted, which by contract happens right after the first
	// terminal update.
	Next() (*StatusUpdate, error)

	// Close releases the stream. Safe to call more than once.
	Close() error
}
