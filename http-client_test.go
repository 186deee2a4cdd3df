package archivechaine

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(serverURL string) Config {
	return Config{
		APIKey:  "test-key",
		APIURL:  serverURL,
		Network: "testnet",
	}
}

func dialTest(t *testing.T, serverURL string) Client {
	t.Helper()
	client, err := Dial(testConfig(serverURL))
	require.NoError(t, err)
	t.Cleanup(func() { client.Close() })
	return client
}

func TestDial_MissingAPIKey(t *testing.T) {
	_, err := Dial(Config{})

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, EnvAPIKey, cerr.Key)
}

func TestRemoteClient_Submit(t *testing.T) {
	var received Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/archives", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "testnet", r.Header.Get("X-ArchiveChain-Network"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))

		w.WriteHeader(http.StatusCreated)
		fmt.Fprint(w, `{
			"archive_id": "arc_1234567890abcdef",
			"status": "pending",
			"cost_estimation": {"storage_cost": "10.00", "processing_cost": "32.50", "total_cost": "42.50"}
		}`)
	}))
	defer server.Close()

	client := dialTest(t, server.URL)

	handle, err := client.Submit(context.Background(), Request{
		URL:      "https://example.com",
		Metadata: Metadata{Title: "Archive of https://example.com", Priority: PriorityNormal},
		Options:  DefaultOptions,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://example.com", received.URL)
	assert.Equal(t, 2, received.Options.MaxDepth)

	assert.Equal(t, "arc_1234567890abcdef", handle.ArchiveID)
	assert.Equal(t, StatusPending, handle.Status)
	assert.Equal(t, Cost(42.5), handle.CostEstimation.TotalCost)
}

func TestRemoteClient_SubmitNeverRetries(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		http.Error(w, `{"error":{"code":"internal","message":"node unavailable"}}`, http.StatusInternalServerError)
	}))
	defer server.Close()

	client := dialTest(t, server.URL)

	_, err := client.Submit(context.Background(), Request{URL: "https://example.com"})

	var rerr *RemoteError
	require.True(t, errors.As(err, &rerr))
	assert.Equal(t, http.StatusInternalServerError, rerr.Code)
	assert.Equal(t, "node unavailable", rerr.Message)
	assert.Equal(t, 1, requests, "a submission must not be replayed")
}

func TestRemoteClient_SubmitServerValidation(t *testing.T) {
	for _, status := range []int{http.StatusBadRequest, http.StatusUnprocessableEntity} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error":{"code":"validation","message":"url rejected"}}`, status)
		}))

		client := dialTest(t, server.URL)

		_, err := client.Submit(context.Background(), Request{URL: "https://example.com"})

		var verr *ValidationError
		require.True(t, errors.As(err, &verr), "status %d must map to a validation failure", status)
		assert.Contains(t, verr.Reason, "url rejected")

		server.Close()
	}
}

func TestRemoteClient_SubmitBadCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"auth","message":"invalid api key"}}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := dialTest(t, server.URL)

	_, err := client.Submit(context.Background(), Request{URL: "https://example.com"})

	var cerr *ConfigError
	require.True(t, errors.As(err, &cerr))
	assert.Contains(t, cerr.Reason, "invalid api key")
}

func TestRemoteClient_Lookup(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/archives/arc_42", r.URL.Path)
		fmt.Fprint(w, `{
			"archive_id": "arc_42",
			"url": "https://example.com",
			"status": "completed",
			"created_at": "2025-03-14T09:26:53Z",
			"size": 2048,
			"metadata": {"title": "Archive of https://example.com", "priority": "normal"},
			"replicas": [{"node_id": "node-1", "region": "eu-west"}, {"node_id": "node-2", "region": "us-east"}],
			"storage_info": {"replicas": 2, "integrity_score": 0.98, "last_verified": "2025-03-15T00:00:00Z"},
			"access_urls": {"view": "https://view.test/arc_42", "download": "https://dl.test/arc_42", "raw": "https://raw.test/arc_42"}
		}`)
	}))
	defer server.Close()

	client := dialTest(t, server.URL)

	record, err := client.Lookup(context.Background(), "arc_42")
	require.NoError(t, err)
	assert.Equal(t, "arc_42", record.ArchiveID)
	assert.Equal(t, StatusCompleted, record.Status)
	assert.Equal(t, int64(2048), record.Size)
	assert.Len(t, record.Replicas, 2)
	assert.Equal(t, 0.98, record.StorageInfo.IntegrityScore)
	assert.Equal(t, "https://view.test/arc_42", record.AccessURLs.View)
}

func TestRemoteClient_LookupNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"code":"not_found","message":"unknown archive"}}`, http.StatusNotFound)
	}))
	defer server.Close()

	client := dialTest(t, server.URL)

	_, err := client.Lookup(context.Background(), "unknown-id")

	var nferr *NotFoundError
	require.True(t, errors.As(err, &nferr))
	assert.Equal(t, "unknown-id", nferr.ArchiveID)
}

func TestRemoteClient_LookupRetriesServerErrors(t *testing.T) {
	var requests int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requests++
		if requests < 3 {
			http.Error(w, "busy", http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"archive_id": "arc_9", "url": "https://example.com", "status": "pending",
			"created_at": "2025-03-14T09:26:53Z", "size": 0,
			"metadata": {"priority": "normal"},
			"storage_info": {"replicas": 0, "integrity_score": 0, "last_verified": "2025-03-14T09:26:53Z"},
			"access_urls": {"view": "", "download": "", "raw": ""}}`)
	}))
	defer server.Close()

	client := dialTest(t, server.URL)

	record, err := client.Lookup(context.Background(), "arc_9")
	require.NoError(t, err)
	assert.Equal(t, "arc_9", record.ArchiveID)
	assert.Equal(t, 3, requests)
}

func TestRemoteClient_SubscribeUpdates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/archives/arc_7/events", r.URL.Path)
		assert.Equal(t, "text/event-stream", r.Header.Get("Accept"))

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, ": heartbeat\n\n")
		fmt.Fprint(w, `data: {"archive_id":"arc_7","status":"processing","progress":10,"phase":"crawling"}`+"\n\n")
		fmt.Fprint(w, `data: {"archive_id":"arc_7","status":"processing","progress":55,"phase":"storing"}`+"\n\n")
		fmt.Fprint(w, `data: {"archive_id":"arc_7","status":"completed","final_size":4096,"access_urls":{"view":"https://view.test/arc_7"}}`+"\n\n")
		// Anything after the terminal update must never surface.
		fmt.Fprint(w, `data: {"archive_id":"arc_7","status":"processing","progress":99}`+"\n\n")
	}))
	defer server.Close()

	client := dialTest(t, server.URL)

	stream, err := client.SubscribeUpdates(context.Background(), "arc_7")
	require.NoError(t, err)
	defer stream.Close()

	first, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, StatusProcessing, first.Status)
	assert.Equal(t, 10, first.Progress)
	assert.Equal(t, "crawling", first.Phase)

	second, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, 55, second.Progress)

	terminal, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, terminal.Status)
	assert.Equal(t, int64(4096), terminal.FinalSize)
	require.NotNil(t, terminal.AccessURLs)
	assert.Equal(t, "https://view.test/arc_7", terminal.AccessURLs.View)

	_, err = stream.Next()
	assert.Equal(t, io.EOF, err)

	assert.NoError(t, stream.Close())
	assert.NoError(t, stream.Close(), "close must be idempotent")
}

func TestRemoteClient_SubscribeUpdatesNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such archive", http.StatusNotFound)
	}))
	defer server.Close()

	client := dialTest(t, server.URL)

	_, err := client.SubscribeUpdates(context.Background(), "unknown-id")

	var nferr *NotFoundError
	assert.True(t, errors.As(err, &nferr))
}

func TestRemoteClient_Search(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "example.com", r.URL.Query().Get("q"))
		assert.Equal(t, []string{"news", "daily"}, r.URL.Query()["tag"])
		assert.Equal(t, "completed", r.URL.Query().Get("status"))
		assert.Equal(t, "10", r.URL.Query().Get("limit"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))

		fmt.Fprint(w, `{
			"query": "example.com",
			"results": [{"archive_id": "arc_1", "url": "https://example.com", "relevance_score": 0.9,
				"archived_at": "2025-03-14T09:26:53Z", "size": 1024}],
			"total_results": 1,
			"search_time_ms": 12,
			"pagination": {"page": 2, "limit": 10, "total": 1, "has_next": false, "has_prev": true}
		}`)
	}))
	defer server.Close()

	client := dialTest(t, server.URL)

	response, err := client.Search(context.Background(), SearchQuery{
		Query:  "example.com",
		Tags:   []string{"news", "daily"},
		Status: StatusCompleted,
		Limit:  10,
		Page:   2,
	})
	require.NoError(t, err)
	require.Len(t, response.Results, 1)
	assert.Equal(t, "arc_1", response.Results[0].ArchiveID)
	assert.Equal(t, int64(1), response.TotalResults)
	assert.True(t, response.Pagination.HasPrev)
}

func TestRemoteClient_Fetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, "<html>archived</html>")
	}))
	defer server.Close()

	client := dialTest(t, server.URL)

	body, contentType, err := client.Fetch(context.Background(), server.URL+"/raw/arc_1")
	require.NoError(t, err)
	defer body.Close()

	content, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, "<html>archived</html>", string(content))
	assert.Equal(t, "text/html; charset=utf-8", contentType)
}

func TestRemoteClient_FetchInvalidURL(t *testing.T) {
	client := dialTest(t, "http://localhost:0")

	_, _, err := client.Fetch(context.Background(), "not a url")

	var verr *ValidationError
	assert.True(t, errors.As(err, &verr))
}
