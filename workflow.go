package archivechaine

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pkg/errors"
)

// Tracker is the core of the client workflow. It owns the lifecycle of
// one archive request from submission to terminal status, plus the
// read-only lookup, search and download paths. Each operation acquires
// the injected client for its whole duration and releases it on every
// exit path.
type Tracker struct {
	Client Client

	EnableLog        bool
	EnableVerboseLog bool

	isValidated bool
}

// TrackResult is the outcome of a successful submit-and-track run.
type TrackResult struct {
	Handle    *Handle
	FinalSize int64
	ViewURL   string

	// Updates counts the status updates consumed, terminal included.
	Updates int
}

// SubmitOption overrides a piece of the request built by
// SubmitAndTrack.
type SubmitOption func(*Request)

// WithTags sets the submission tags.
func WithTags(tags ...string) SubmitOption {
	return func(req *Request) {
		req.Metadata.Tags = tags
	}
}

// WithPriority sets the archival priority.
func WithPriority(priority Priority) SubmitOption {
	return func(req *Request) {
		req.Metadata.Priority = priority
	}
}

// WithMetadata replaces the derived metadata entirely.
func WithMetadata(meta Metadata) SubmitOption {
	return func(req *Request) {
		req.Metadata = meta
	}
}

// WithOptions replaces the default capture options.
func WithOptions(opts Options) SubmitOption {
	return func(req *Request) {
		req.Options = opts
	}
}

// Validate prepares the Tracker to make sure its configuration is
// valid and ready to use. Must be run at least once before any
// operation.
func (t *Tracker) Validate() {
	t.isValidated = t.Client != nil
}

// buildRequest assembles the archival request with derived default
// metadata and default options, then applies overrides.
func buildRequest(url string, now time.Time, opts ...SubmitOption) Request {
	req := Request{
		URL: url,
		Metadata: Metadata{
			Title:       "Archive of " + url,
			Description: "Automatic archive created at " + now.Format(time.RFC3339),
			Priority:    PriorityNormal,
		},
		Options: DefaultOptions,
	}

	for _, opt := range opts {
		opt(&req)
	}

	return req
}

// SubmitAndTrack submits url for archiving and consumes the update
// stream until the first terminal status. Progress is reported as
// received; nothing after the first terminal update is processed. A
// failed terminal update is returned as a RemoteError.
func (t *Tracker) SubmitAndTrack(ctx context.Context, url string, opts ...SubmitOption) (*TrackResult, error) {
	if !t.isValidated {
		return nil, fmt.Errorf("tracker hasn't been validated")
	}
	defer t.Client.Close()

	// Local validation happens before any network interaction.
	if err := validateArchiveURL(url); err != nil {
		return nil, err
	}

	req := buildRequest(url, time.Now(), opts...)

	t.logf("submitting %s for archiving\n", url)
	handle, err := t.Client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	t.logf("archive created: id=%s status=%s estimated cost=%.2f ARC\n",
		handle.ArchiveID, handle.Status, handle.CostEstimation.TotalCost)

	stream, err := t.Client.SubscribeUpdates(ctx, handle.ArchiveID)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	result := &TrackResult{Handle: handle}
	for {
		update, err := stream.Next()
		if err == io.EOF {
			return nil, &TransportError{
				Op:  "monitor",
				Err: errors.New("update stream ended before a terminal status"),
			}
		}
		if err != nil {
			return nil, err
		}

		result.Updates++
		switch update.Status {
		case StatusProcessing:
			t.logf("progress: %d%% - %s\n", update.Progress, update.Phase)
		case StatusCompleted:
			result.FinalSize = update.FinalSize
			if update.AccessURLs != nil {
				result.ViewURL = update.AccessURLs.View
			}
			t.logf("archive completed: final size=%d bytes\n", result.FinalSize)
			t.logf("view url: %s\n", result.ViewURL)
			return result, nil
		case StatusFailed:
			t.logf("archival failed: %s\n", update.Error)
			return nil, &RemoteError{ArchiveID: handle.ArchiveID, Message: update.Error}
		default:
			t.verbosef("status: %s\n", update.Status)
		}
	}
}

// LookupArchive fetches and reports the persisted record of an
// existing archive. The remote service is the source of truth for the
// id; only emptiness is checked locally.
func (t *Tracker) LookupArchive(ctx context.Context, archiveID string) (*Record, error) {
	if !t.isValidated {
		return nil, fmt.Errorf("tracker hasn't been validated")
	}
	defer t.Client.Close()

	if archiveID == "" {
		return nil, &ValidationError{Field: "archive_id", Reason: "must not be empty"}
	}

	record, err := t.Client.Lookup(ctx, archiveID)
	if err != nil {
		return nil, err
	}

	t.logf("archive %s: url=%s status=%s size=%d bytes\n",
		record.ArchiveID, record.URL, record.Status, record.Size)
	t.verbosef("created at %s, %d replicas, integrity score %.2f\n",
		record.CreatedAt.Format(time.RFC3339), len(record.Replicas), record.StorageInfo.IntegrityScore)

	return record, nil
}

// SearchArchives queries the archive index.
func (t *Tracker) SearchArchives(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	if !t.isValidated {
		return nil, fmt.Errorf("tracker hasn't been validated")
	}
	defer t.Client.Close()

	result, err := t.Client.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	t.logf("search %q: %d results (%d total)\n",
		result.Query, len(result.Results), result.TotalResults)

	return result, nil
}

// DownloadArchive looks up an archive and copies its raw content to
// dst. It returns the record and the content type of the download.
func (t *Tracker) DownloadArchive(ctx context.Context, archiveID string, dst io.Writer) (*Record, string, error) {
	if !t.isValidated {
		return nil, "", fmt.Errorf("tracker hasn't been validated")
	}
	defer t.Client.Close()

	if archiveID == "" {
		return nil, "", &ValidationError{Field: "archive_id", Reason: "must not be empty"}
	}

	record, err := t.Client.Lookup(ctx, archiveID)
	if err != nil {
		return nil, "", err
	}

	if record.Status != StatusCompleted {
		return nil, "", &ValidationError{
			Field:  "archive_id",
			Reason: fmt.Sprintf("archive is %s, only completed archives can be downloaded", record.Status),
		}
	}

	src := record.AccessURLs.Raw
	if src == "" {
		src = record.AccessURLs.Download
	}

	body, contentType, err := t.Client.Fetch(ctx, src)
	if err != nil {
		return nil, "", err
	}
	defer body.Close()

	written, err := io.Copy(dst, body)
	if err != nil {
		return nil, "", &TransportError{Op: "fetch", Err: err}
	}
	t.logf("downloaded %d bytes of %s\n", written, contentType)

	return record, contentType, nil
}
