// Package objectstore provides a NATS JetStream implementation of the
// core.ObjectStore interface spanning multiple logical buckets.
package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
)

// NATSStore implements core.ObjectStore over JetStream object store buckets.
// Buckets are created or bound lazily on first use and cached; the pipeline
// touches its upload, transcript, and output namespaces through one store.
type NATSStore struct {
	jetstreamContext nats.JetStreamContext

	mu      sync.Mutex
	buckets map[string]nats.ObjectStore
}

// New creates a NATSStore over the given JetStream context.
func New(jetstreamContext nats.JetStreamContext) *NATSStore {
	return &NATSStore{
		jetstreamContext: jetstreamContext,
		mu:               sync.Mutex{},
		buckets:          map[string]nats.ObjectStore{},
	}
}

// bucket returns the object store for bucketName, creating it if needed and
// binding to it if it already exists.
func (n *NATSStore) bucket(bucketName string) (nats.ObjectStore, error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	if store, ok := n.buckets[bucketName]; ok {
		return store, nil
	}

	store, err := n.jetstreamContext.CreateObjectStore(&nats.ObjectStoreConfig{
		Bucket:      bucketName,
		Description: fmt.Sprintf("Storage for the %s bucket.", bucketName),
		TTL:         0,
		MaxBytes:    0,
		Storage:     nats.FileStorage,
		Replicas:    1,
		Placement:   nil,
		Metadata:    nil,
		Compression: false,
	})
	if err != nil {
		if !errors.Is(err, jetstream.ErrBucketExists) {
			return nil, fmt.Errorf("failed to create object store bucket '%s': %w", bucketName, err)
		}

		store, err = n.jetstreamContext.ObjectStore(bucketName)
		if err != nil {
			return nil, fmt.Errorf("failed to bind to existing object store bucket '%s': %w", bucketName, err)
		}
	}

	n.buckets[bucketName] = store

	return store, nil
}

// Download retrieves an object from the given bucket.
func (n *NATSStore) Download(_ context.Context, bucketName, key string) ([]byte, error) {
	store, err := n.bucket(bucketName)
	if err != nil {
		return nil, err
	}

	obj, err := store.Get(key)
	if err != nil {
		return nil, fmt.Errorf("failed to get object '%s' from bucket '%s': %w", key, bucketName, err)
	}

	data, readErr := io.ReadAll(obj)
	closeErr := obj.Close()

	if readErr != nil {
		return nil, fmt.Errorf("failed to read object '%s': %w", key, readErr)
	}

	if closeErr != nil {
		return data, fmt.Errorf("failed to close object '%s': %w", key, closeErr)
	}

	return data, nil
}

// Upload saves an object to the given bucket.
func (n *NATSStore) Upload(_ context.Context, bucketName, key string, data []byte) error {
	store, err := n.bucket(bucketName)
	if err != nil {
		return err
	}

	reader := bytes.NewReader(data)

	_, err = store.Put(&nats.ObjectMeta{
		Name:        key,
		Description: "",
		Headers:     nil,
		Metadata:    nil,
		Opts:        nil,
	}, reader)
	if err != nil {
		return fmt.Errorf("failed to put object '%s' to bucket '%s': %w", key, bucketName, err)
	}

	return nil
}
