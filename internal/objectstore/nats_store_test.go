// Package objectstore_test tests the NATS object store implementation.
package objectstore_test

import (
	"context"
	"testing"

	"github.com/nats-io/nats-server/v2/server"
	"github.com/nats-io/nats-server/v2/test"
	"github.com/nats-io/nats.go"
	"github.com/stretchr/testify/require"

	"github.com/book-expert/translation-pipeline/internal/objectstore"
)

// StartTestServer starts an in-memory NATS server for testing purposes.
func StartTestServer(t *testing.T) (*server.Server, *nats.Conn) {
	t.Helper()

	opts := test.DefaultTestOptions
	opts.Port = -1 // Use a random port
	opts.JetStream = true
	opts.StoreDir = t.TempDir()
	natsServer := test.RunServer(&opts)

	natsConnection, err := nats.Connect(natsServer.ClientURL())
	if err != nil {
		t.Fatalf("Failed to connect to test NATS server: %v", err)
	}

	return natsServer, natsConnection
}

func newStore(t *testing.T) *objectstore.NATSStore {
	t.Helper()

	natsServer, natsConnection := StartTestServer(t)
	t.Cleanup(func() {
		natsConnection.Close()
		natsServer.Shutdown()
	})

	jetstreamContext, err := natsConnection.JetStream()
	require.NoError(t, err)

	return objectstore.New(jetstreamContext)
}

func TestUploadDownloadRoundTrip(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	uploadData := []byte("hello world, this is a test")

	err := store.Upload(ctx, "pipeline-media", "uploads/sample.wav", uploadData)
	require.NoError(t, err)

	downloadData, err := store.Download(ctx, "pipeline-media", "uploads/sample.wav")
	require.NoError(t, err)
	require.Equal(t, uploadData, downloadData)
}

func TestBucketsAreIsolated(t *testing.T) {
	t.Parallel()

	store := newStore(t)
	ctx := context.Background()

	err := store.Upload(ctx, "bucket-a", "shared-key", []byte("from a"))
	require.NoError(t, err)

	err = store.Upload(ctx, "bucket-b", "shared-key", []byte("from b"))
	require.NoError(t, err)

	fromA, err := store.Download(ctx, "bucket-a", "shared-key")
	require.NoError(t, err)
	require.Equal(t, []byte("from a"), fromA)

	fromB, err := store.Download(ctx, "bucket-b", "shared-key")
	require.NoError(t, err)
	require.Equal(t, []byte("from b"), fromB)
}

func TestDownloadMissingObjectFails(t *testing.T) {
	t.Parallel()

	store := newStore(t)

	_, err := store.Download(context.Background(), "pipeline-media", "uploads/absent.wav")
	require.Error(t, err)
}
