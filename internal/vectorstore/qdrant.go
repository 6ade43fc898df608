package vectorstore

import (
	"context"
	"fmt"
	"time"

	"github.com/qdrant/go-client/qdrant"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/bluecomlabs/netrod/internal/config"
	"github.com/bluecomlabs/netrod/internal/logging"
)

const (
	qdrantMaxRetries   = 3
	qdrantRetryBackoff = 200 * time.Millisecond
	qdrantMaxRecvSize  = 16 * 1024 * 1024
)

// qdrantStore talks to a Qdrant instance over gRPC.
type qdrantStore struct {
	client     *qdrant.Client
	collection string
	dimension  int
	logger     *logging.Logger
}

// NewQdrant connects to Qdrant and returns a Store bound to the given
// collection.
func NewQdrant(cfg config.QdrantConfig, collection string, logger *logging.Logger) (Store, error) {
	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   cfg.Host,
		Port:   cfg.Port,
		UseTLS: cfg.UseTLS,
		APIKey: cfg.APIKey.Value(),
		GrpcOptions: []grpc.DialOption{
			grpc.WithDefaultCallOptions(grpc.MaxCallRecvMsgSize(qdrantMaxRecvSize)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connect qdrant: %v", ErrStoreUnavailable, err)
	}

	return &qdrantStore{
		client:     client,
		collection: collection,
		logger:     logger.Named("qdrant"),
	}, nil
}

func (s *qdrantStore) EnsureCollection(ctx context.Context, dimension int) error {
	s.dimension = dimension

	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err == nil {
		// An existing collection must match the requested dimension;
		// mixing vector sizes poisons the whole corpus.
		existing := int(info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize())
		if existing != 0 && existing != dimension {
			return fmt.Errorf("%w: collection %q has %d dimensions, configured %d",
				ErrDimensionMismatch, s.collection, existing, dimension)
		}
		return nil
	}
	if status.Code(err) != codes.NotFound {
		return s.wrapErr("check collection", err)
	}

	err = s.retry(ctx, "create collection", func() error {
		return s.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: s.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(dimension),
				Distance: qdrant.Distance_Cosine,
			}),
		})
	})
	if err != nil {
		return s.wrapErr("create collection", err)
	}

	s.logger.Info(ctx, "collection created",
		zap.String("collection", s.collection),
		zap.Int("dimension", dimension))
	return nil
}

func (s *qdrantStore) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}

	points := make([]*qdrant.PointStruct, 0, len(records))
	for _, rec := range records {
		if s.dimension > 0 && len(rec.Vector) != s.dimension {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				ErrDimensionMismatch, rec.ID, len(rec.Vector), s.dimension)
		}

		payload := make(map[string]*qdrant.Value, len(rec.Payload))
		for k, v := range rec.Payload {
			payload[k] = &qdrant.Value{Kind: &qdrant.Value_StringValue{StringValue: v}}
		}
		points = append(points, &qdrant.PointStruct{
			Id:      qdrant.NewIDUUID(rec.ID),
			Vectors: qdrant.NewVectors(rec.Vector...),
			Payload: payload,
		})
	}

	err := s.retry(ctx, "upsert", func() error {
		_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
			CollectionName: s.collection,
			Points:         points,
		})
		return err
	})
	return s.wrapErr("upsert", err)
}

func (s *qdrantStore) Search(ctx context.Context, vector []float32, limit int) ([]SearchResult, error) {
	if limit <= 0 {
		return nil, nil
	}
	if s.dimension > 0 && len(vector) != s.dimension {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			ErrDimensionMismatch, len(vector), s.dimension)
	}

	var points []*qdrant.ScoredPoint
	err := s.retry(ctx, "query", func() error {
		var qerr error
		points, qerr = s.client.Query(ctx, &qdrant.QueryPoints{
			CollectionName: s.collection,
			Query:          qdrant.NewQuery(vector...),
			Limit:          qdrant.PtrOf(uint64(limit)),
			WithPayload:    qdrant.NewWithPayload(true),
		})
		return qerr
	})
	if err != nil {
		return nil, s.wrapErr("query", err)
	}

	results := make([]SearchResult, 0, len(points))
	for _, p := range points {
		payload := make(map[string]string, len(p.Payload))
		for k, v := range p.Payload {
			payload[k] = v.GetStringValue()
		}
		results = append(results, SearchResult{
			ID:      p.Id.GetUuid(),
			Score:   float64(p.Score),
			Payload: payload,
		})
	}
	return results, nil
}

func (s *qdrantStore) Count(ctx context.Context) (int, error) {
	info, err := s.client.GetCollectionInfo(ctx, s.collection)
	if err != nil {
		return 0, s.wrapErr("count", err)
	}
	return int(info.GetPointsCount()), nil
}

func (s *qdrantStore) Close() error {
	return s.client.Close()
}

// retry re-runs op on transient gRPC failures with linear backoff.
func (s *qdrantStore) retry(ctx context.Context, op string, fn func() error) error {
	var err error
	for attempt := 0; attempt < qdrantMaxRetries; attempt++ {
		if err = fn(); err == nil {
			return nil
		}
		if !isTransient(err) {
			return err
		}

		s.logger.Warn(ctx, "transient qdrant failure, retrying",
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Error(err))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(qdrantRetryBackoff * time.Duration(attempt+1)):
		}
	}
	return err
}

func (s *qdrantStore) wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded:
		return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
	case codes.NotFound:
		return fmt.Errorf("%w: %s: %v", ErrCollectionNotFound, op, err)
	}
	return fmt.Errorf("qdrant %s: %w", op, err)
}

func isTransient(err error) bool {
	switch status.Code(err) {
	case codes.Unavailable, codes.DeadlineExceeded, codes.Aborted, codes.ResourceExhausted:
		return true
	}
	return false
}
