package feedback

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/bluecomlabs/netrod/internal/logging"
)

// NATSForwarder ships feedback entries to a JetStream object store
// bucket, one object per entry.
type NATSForwarder struct {
	nc     *nats.Conn
	store  nats.ObjectStore
	logger *logging.Logger
}

// NewNATSForwarder connects to NATS and binds (creating if needed) the
// object store bucket.
func NewNATSForwarder(url, bucket string, logger *logging.Logger) (*NATSForwarder, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	nc, err := nats.Connect(url, nats.Name("netrod-feedback"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("jetstream context: %w", err)
	}

	store, err := js.ObjectStore(bucket)
	if errors.Is(err, nats.ErrStreamNotFound) {
		store, err = js.CreateObjectStore(&nats.ObjectStoreConfig{
			Bucket:      bucket,
			Description: "netrod feedback entries",
		})
	}
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("object store %q: %w", bucket, err)
	}

	return &NATSForwarder{nc: nc, store: store, logger: logger.Named("feedback.nats")}, nil
}

// Forward stores the entry as a JSON object keyed by response ref and
// timestamp, so repeated verdicts on one response never collide.
func (f *NATSForwarder) Forward(_ context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal entry: %w", err)
	}

	name := fmt.Sprintf("%s-%d", e.ResponseRef, e.CreatedAt.UnixNano())
	if _, err := f.store.PutBytes(name, data); err != nil {
		return fmt.Errorf("put object: %w", err)
	}
	return nil
}

// Close drains the connection.
func (f *NATSForwarder) Close() error {
	return f.nc.Drain()
}
