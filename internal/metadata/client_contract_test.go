package metadata

import (
	"context"
	"os"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"
)

// TestHTTPClientSmoke checks that the client can parse at least one record
// from a live metadata service such as cmd/metadata-mock.
func TestHTTPClientSmoke(t *testing.T) {
	baseURL := os.Getenv("METADATA_URL")
	if baseURL == "" {
		t.Skip("METADATA_URL not provided")
	}
	client, err := NewHTTPClient(baseURL, os.Getenv("METADATA_API_KEY"), 3*time.Second, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("create http client: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	result, err := client.Lookup(ctx, "Inception", 2010)
	if err != nil {
		t.Fatalf("lookup mock data: %v", err)
	}
	if result.Director == nil || *result.Director == "" {
		t.Fatalf("unexpected metadata payload: %+v", result)
	}
}
