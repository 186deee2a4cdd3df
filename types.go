package archivechaine

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Priority is the archival priority requested for a submission.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
)

// Status is the lifecycle status of an archive as reported by the
// service. Expired only appears on persisted records, never in the
// update stream.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusExpired    Status = "expired"
)

// Terminal reports whether no further updates follow this status.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// Metadata describes an archive submission.
type Metadata struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Tags        []string `json:"tags,omitempty"`
	Priority    Priority `json:"priority"`
}

// Options control how the remote engine captures a page.
type Options struct {
	IncludeAssets      bool `json:"include_assets"`
	MaxDepth           int  `json:"max_depth"`
	PreserveJavaScript bool `json:"preserve_javascript"`
	Timeout            int  `json:"timeout_seconds"`
}

// DefaultOptions are the capture options used when the caller does
// not override them.
var DefaultOptions = Options{
	IncludeAssets:      true,
	MaxDepth:           2,
	PreserveJavaScript: false,
	Timeout:            30,
}

// Request is data of an archival request. Immutable once submitted.
type Request struct {
	URL      string   `json:"url"`
	Metadata Metadata `json:"metadata"`
	Options  Options  `json:"options"`
}

// Cost is an amount in the service's cost unit. The service encodes
// costs as decimal strings, with or without a trailing unit
// ("42.50", "0.0015 ARC"); bare JSON numbers are accepted too.
type Cost float64

func (c *Cost) UnmarshalJSON(data []byte) error {
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if i := strings.IndexByte(s, ' '); i >= 0 {
			s = s[:i]
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("invalid cost %q", s)
		}
		*c = Cost(v)
		return nil
	}

	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*c = Cost(v)
	return nil
}

func (c Cost) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatFloat(float64(c), 'f', -1, 64))
}

// CostEstimation is the service-computed projected cost of an
// archival operation, denominated in ARC.
type CostEstimation struct {
	StorageCost    Cost `json:"storage_cost"`
	ProcessingCost Cost `json:"processing_cost"`
	TotalCost      Cost `json:"total_cost"`
}

// Handle is the acknowledgment returned by a successful submission.
type Handle struct {
	ArchiveID           string         `json:"archive_id"`
	Status              Status         `json:"status"`
	EstimatedCompletion *time.Time     `json:"estimated_completion,omitempty"`
	CostEstimation      CostEstimation `json:"cost_estimation"`
}

// AccessURLs are the endpoints from which a completed archive can be
// retrieved.
type AccessURLs struct {
	View     string `json:"view"`
	Download string `json:"download"`
	Raw      string `json:"raw"`
}

// StatusUpdate is one item of the monitoring stream. Progress and
// Phase are meaningful while processing; FinalSize and AccessURLs are
// set on completion; Error is set on failure.
type StatusUpdate struct {
	ArchiveID  string      `json:"archive_id"`
	Status     Status      `json:"status"`
	Progress   int         `json:"progress,omitempty"`
	Phase      string      `json:"phase,omitempty"`
	FinalSize  int64       `json:"final_size,omitempty"`
	AccessURLs *AccessURLs `json:"access_urls,omitempty"`
	Error      string      `json:"error,omitempty"`
}

// Replica is one stored copy of an archive's data.
type Replica struct {
	NodeID string `json:"node_id"`
	Region string `json:"region,omitempty"`
}

// StorageInfo describes how the service stores an archive.
type StorageInfo struct {
	Replicas       int       `json:"replicas"`
	Locations      []string  `json:"locations,omitempty"`
	IntegrityScore float64   `json:"integrity_score"`
	LastVerified   time.Time `json:"last_verified"`
}

// Record is the full persisted description of an archive.
type Record struct {
	ArchiveID   string      `json:"archive_id"`
	URL         string      `json:"url"`
	Status      Status      `json:"status"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
	Size        int64       `json:"size"`
	Metadata    Metadata    `json:"metadata"`
	Replicas    []Replica   `json:"replicas,omitempty"`
	StorageInfo StorageInfo `json:"storage_info"`
	AccessURLs  AccessURLs  `json:"access_urls"`
}

// SearchQuery selects archives from the service index.
type SearchQuery struct {
	Query  string
	Tags   []string
	Status Status
	Limit  int
	Page   int
}

// SearchResult is one match of a search query.
type SearchResult struct {
	ArchiveID      string    `json:"archive_id"`
	URL            string    `json:"url"`
	Title          string    `json:"title,omitempty"`
	Snippet        string    `json:"snippet,omitempty"`
	RelevanceScore float64   `json:"relevance_score"`
	ArchivedAt     time.Time `json:"archived_at"`
	Size           int64     `json:"size"`
	ContentType    string    `json:"content_type,omitempty"`
}

// Pagination describes the position of a search response within the
// full result set.
type Pagination struct {
	Page    int   `json:"page"`
	Limit   int   `json:"limit"`
	Total   int64 `json:"total"`
	HasNext bool  `json:"has_next"`
	HasPrev bool  `json:"has_prev"`
}

// SearchResponse is the service's answer to a search query.
type SearchResponse struct {
	Query        string         `json:"query"`
	Results      []SearchResult `json:"results"`
	TotalResults int64          `json:"total_results"`
	SearchTimeMS int64          `json:"search_time_ms"`
	Pagination   Pagination     `json:"pagination"`
}
