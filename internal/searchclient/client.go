// Package searchclient wraps the Weaviate Go client with the contract the
// core pipeline needs: a pooled Client and a bulk indexing session with
// auto-flush and a post-operation error list, grounded on the teacher's
// weaviate_native.go single-object calls and its indexer-prototype's
// ObjectsBatcher usage.
package searchclient

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
	weaviate "github.com/weaviate/weaviate-go-client/v5/weaviate"
)

// Client is a single connection to the search backend. It must not be used
// concurrently by two callers; the Pool enforces that via checkout.
type Client struct {
	client  *weaviate.Client
	baseURL string
}

// New constructs a Client against a Weaviate instance at baseURL
// (host:port, no scheme).
func New(baseURL string) (*Client, error) {
	cfg := weaviate.Config{Scheme: "http", Host: baseURL}
	cl, err := weaviate.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("searchclient: new client: %w", err)
	}
	return &Client{client: cl, baseURL: baseURL}, nil
}

// HealthPing implements health.HealthPinger: GET /v1/meta, expect 200.
func (c *Client) HealthPing(ctx context.Context) error {
	url := c.baseURL
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		url = "http://" + url
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url+"/v1/meta", nil)
	if err != nil {
		return err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("searchclient: weaviate health status %d", resp.StatusCode)
	}
	return nil
}

// NewBulkSession opens a bulk indexing session against class, with the
// given auto-flush threshold.
func (c *Client) NewBulkSession(class string, autoFlush int) *BulkSession {
	if autoFlush <= 0 {
		autoFlush = 20
	}
	return &BulkSession{client: c.client, class: class, autoFlush: autoFlush}
}

// objectID derives a stable Weaviate object UUID from a (class, key) pair
// so that repeated puts for the same logical entity always target the same
// object (required for idempotent create/update under retries).
func objectID(class, key string) uuid.UUID {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(class+":"+key))
}

// ClassName maps a document type to the Weaviate class name used to store
// it. Weaviate class names must start with an uppercase letter.
func ClassName(docType string) string {
	if docType == "" {
		return docType
	}
	return strings.ToUpper(docType[:1]) + docType[1:]
}
