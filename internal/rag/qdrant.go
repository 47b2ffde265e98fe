package rag

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/qdrant/go-client/qdrant"
)

// Payload keys written on every Qdrant point.
const (
	payloadRecordID  = "record_id"
	payloadCarrierID = "carrier_id"
	payloadSourceKey = "source_key"
	payloadText      = "text"
)

// pointNamespace seeds the name-based UUIDs used as Qdrant point ids.
// Qdrant only accepts unsigned integers or UUIDs, so the human-readable
// record id is hashed into a stable UUID and kept in the payload.
var pointNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://carrierfit/vector-records"))

// QdrantConfig holds connection parameters for a Qdrant vector store instance.
type QdrantConfig struct {
	Host       string // default localhost
	Port       int    // gRPC port, default 6334
	Collection string

	// VectorSize must match the embedder's output. It is required to create
	// a missing collection and checked against an existing one.
	VectorSize uint64

	APIKey string
	UseTLS bool
}

// QdrantStore is the production VectorStore. Chunks live in a single
// cosine collection with the carrier and source key kept as payload.
type QdrantStore struct {
	client     *qdrant.Client
	collection string
}

// NewQdrantStore connects to Qdrant and makes sure the collection exists with
// the configured vector size and a keyword index on the carrier id.
func NewQdrantStore(ctx context.Context, cfg *QdrantConfig) (*QdrantStore, error) {
	if cfg.Collection == "" {
		return nil, fmt.Errorf("qdrant: collection name must not be empty")
	}
	host, port := cfg.Host, cfg.Port
	if host == "" {
		host = "localhost"
	}
	if port == 0 {
		port = 6334
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: cfg.APIKey,
		UseTLS: cfg.UseTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: connect %s:%d: %w", host, port, err)
	}

	s := &QdrantStore{client: client, collection: cfg.Collection}
	if err := s.prepare(ctx, cfg.VectorSize); err != nil {
		_ = client.Close()
		return nil, err
	}
	return s, nil
}

func (s *QdrantStore) prepare(ctx context.Context, size uint64) error {
	exists, err := s.client.CollectionExists(ctx, s.collection)
	if err != nil {
		return fmt.Errorf("qdrant: check collection %q: %w", s.collection, err)
	}

	if exists {
		info, err := s.client.GetCollectionInfo(ctx, s.collection)
		if err != nil {
			return fmt.Errorf("qdrant: describe collection %q: %w", s.collection, err)
		}
		have := info.GetConfig().GetParams().GetVectorsConfig().GetParams().GetSize()
		if size != 0 && have != 0 && have != size {
			return fmt.Errorf("qdrant: collection %q stores %d-dim vectors but the embedder produces %d; use another collection or re-create it",
				s.collection, have, size)
		}
		return nil
	}

	if size == 0 {
		return fmt.Errorf("qdrant: collection %q does not exist and vector size is unknown", s.collection)
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: s.collection,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     size,
			Distance: qdrant.Distance_Cosine,
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection %q: %w", s.collection, err)
	}

	_, err = s.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
		CollectionName: s.collection,
		FieldName:      payloadCarrierID,
		FieldType:      qdrant.FieldType_FieldTypeKeyword.Enum(),
		Wait:           qdrant.PtrOf(true),
	})
	if err != nil {
		return fmt.Errorf("qdrant: index %s on %q: %w", payloadCarrierID, s.collection, err)
	}
	return nil
}

// PointID returns the Qdrant point UUID for a record id.
func PointID(recordID string) string {
	return uuid.NewSHA1(pointNamespace, []byte(recordID)).String()
}

func toPoint(rec VectorRecord) *qdrant.PointStruct {
	return &qdrant.PointStruct{
		Id:      qdrant.NewIDUUID(PointID(rec.ID)),
		Vectors: qdrant.NewVectors(rec.Vector...),
		Payload: qdrant.NewValueMap(map[string]any{
			payloadRecordID:  rec.ID,
			payloadCarrierID: rec.Metadata.CarrierID,
			payloadSourceKey: rec.Metadata.SourceKey,
			payloadText:      rec.Metadata.Text,
		}),
	}
}

// fromScored maps a query hit back to a Match. Points written without a
// record id payload fall back to their UUID.
func fromScored(p *qdrant.ScoredPoint) Match {
	m := Match{ID: p.GetId().GetUuid(), Score: p.GetScore()}
	payload := p.GetPayload()
	if payload == nil {
		return m
	}
	if v, ok := payload[payloadRecordID]; ok {
		m.ID = v.GetStringValue()
	}
	m.Metadata = Metadata{
		CarrierID: payload[payloadCarrierID].GetStringValue(),
		SourceKey: payload[payloadSourceKey].GetStringValue(),
		Text:      payload[payloadText].GetStringValue(),
	}
	return m
}

// Upsert writes records and waits for Qdrant to apply them, so a successful
// return means the batch is queryable.
func (s *QdrantStore) Upsert(ctx context.Context, records []VectorRecord) error {
	points := make([]*qdrant.PointStruct, len(records))
	for i, rec := range records {
		points[i] = toPoint(rec)
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: s.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         points,
	})
	if err != nil {
		return fmt.Errorf("qdrant: upsert %d points into %q: %w", len(points), s.collection, err)
	}
	return nil
}

// Query returns the topK most similar points, best first.
func (s *QdrantStore) Query(ctx context.Context, vector []float32, topK int) ([]Match, error) {
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: s.collection,
		Query:          qdrant.NewQuery(vector...),
		Limit:          qdrant.PtrOf(uint64(topK)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("qdrant: query %q: %w", s.collection, err)
	}

	matches := make([]Match, len(hits))
	for i, h := range hits {
		matches[i] = fromScored(h)
	}
	return matches, nil
}

// HealthCheck reports whether the Qdrant server is reachable.
func (s *QdrantStore) HealthCheck(ctx context.Context) error {
	if _, err := s.client.HealthCheck(ctx); err != nil {
		return fmt.Errorf("qdrant: health check: %w", err)
	}
	return nil
}

func (s *QdrantStore) Close() error {
	return s.client.Close()
}
