// Package qdrant provides a Qdrant vector database driver implementation.
package qdrant

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/qdrant/go-client/qdrant"

	"github.com/cardinalpay/sift/pkg/vector"
)

const (
	// DefaultCollectionName is the default collection for transaction embeddings.
	DefaultCollectionName = "fraud-detection"

	// defaultGRPCPort is Qdrant's gRPC port, used when the target URL
	// carries no explicit port.
	defaultGRPCPort = 6334
)

// Driver implements vector.Driver against a Qdrant instance over gRPC.
type Driver struct {
	client     *qdrant.Client
	collection string
	dimensions uint
	logger     *slog.Logger
}

// Config holds configuration for the Qdrant driver.
type Config struct {
	// Target is the Qdrant endpoint URL, e.g.
	// "https://xyz.cloud.qdrant.io" or "http://localhost:6334".
	Target string

	// APIKey authenticates against Qdrant Cloud. Empty for local instances.
	APIKey string

	// Collection is the collection name. Defaults to DefaultCollectionName.
	Collection string

	// Dimensions is the embedding vector size the collection is created with.
	Dimensions uint
}

// NewDriver creates a new Qdrant vector driver.
func NewDriver(c Config, logger *slog.Logger) (*Driver, error) {
	if c.Target == "" {
		return nil, fmt.Errorf("qdrant target URL is required")
	}
	if c.Dimensions == 0 {
		return nil, fmt.Errorf("qdrant embedding dimensions cannot be 0, must be configured")
	}

	collection := c.Collection
	if collection == "" {
		collection = DefaultCollectionName
	}

	host, port, useTLS, err := parseTarget(c.Target)
	if err != nil {
		return nil, fmt.Errorf("parsing qdrant target %q: %w", c.Target, err)
	}

	client, err := qdrant.NewClient(&qdrant.Config{
		Host:   host,
		Port:   port,
		APIKey: c.APIKey,
		UseTLS: useTLS,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: connecting to qdrant: %v", vector.ErrConnection, err)
	}

	logger.Info("connected to qdrant",
		"host", host,
		"port", port,
		"collection", collection,
	)

	return &Driver{
		client:     client,
		collection: collection,
		dimensions: c.Dimensions,
		logger:     logger,
	}, nil
}

// parseTarget splits a target URL into host, port, and TLS mode.
func parseTarget(target string) (string, int, bool, error) {
	u, err := url.Parse(target)
	if err != nil {
		return "", 0, false, err
	}

	// A bare "host:port" parses with an empty Host; treat the scheme-less
	// form as plain TCP.
	if u.Host == "" {
		u, err = url.Parse("http://" + target)
		if err != nil {
			return "", 0, false, err
		}
	}

	port := defaultGRPCPort
	if p := u.Port(); p != "" {
		port, err = strconv.Atoi(p)
		if err != nil {
			return "", 0, false, fmt.Errorf("invalid port %q", p)
		}
	}

	return u.Hostname(), port, u.Scheme == "https", nil
}

// EnsureCollection creates the collection if it does not exist: fixed
// dimensionality, cosine distance, and payload indexes on amount,
// device_type, and payment_method. The indexes are reserved for future
// filtered queries; current searches do not use them.
func (d *Driver) EnsureCollection(ctx context.Context) error {
	exists, err := d.client.CollectionExists(ctx, d.collection)
	if err != nil {
		return fmt.Errorf("%w: checking collection: %v", vector.ErrConnection, err)
	}

	if !exists {
		err = d.client.CreateCollection(ctx, &qdrant.CreateCollection{
			CollectionName: d.collection,
			VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
				Size:     uint64(d.dimensions),
				Distance: qdrant.Distance_Cosine,
			}),
		})
		if err != nil {
			return fmt.Errorf("%w: creating collection %q: %v", vector.ErrConnection, d.collection, err)
		}

		d.logger.Info("created qdrant collection",
			"collection", d.collection,
			"dimensions", d.dimensions,
		)
	}

	indexes := []struct {
		field string
		kind  qdrant.FieldType
	}{
		{"amount", qdrant.FieldType_FieldTypeFloat},
		{"device_type", qdrant.FieldType_FieldTypeKeyword},
		{"payment_method", qdrant.FieldType_FieldTypeKeyword},
	}

	for _, idx := range indexes {
		_, err := d.client.CreateFieldIndex(ctx, &qdrant.CreateFieldIndexCollection{
			CollectionName: d.collection,
			FieldName:      idx.field,
			FieldType:      idx.kind.Enum(),
		})
		if err != nil {
			return fmt.Errorf("%w: indexing payload field %q: %v", vector.ErrConnection, idx.field, err)
		}
	}

	return nil
}

// Upsert inserts or overwrites points by ID.
func (d *Driver) Upsert(ctx context.Context, points []vector.Point) error {
	if len(points) == 0 {
		return nil
	}

	qpoints := make([]*qdrant.PointStruct, len(points))
	for i, p := range points {
		qpoints[i] = &qdrant.PointStruct{
			Id:      qdrant.NewIDNum(p.ID),
			Vectors: qdrant.NewVectors(p.Embedding...),
			Payload: qdrant.NewValueMap(p.Payload),
		}
	}

	_, err := d.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: d.collection,
		Wait:           qdrant.PtrOf(true),
		Points:         qpoints,
	})
	if err != nil {
		return fmt.Errorf("%w: upserting %d points: %v", vector.ErrConnection, len(points), err)
	}

	d.logger.Debug("upserted points to qdrant", "count", len(points))

	return nil
}

// Search returns the limit nearest stored points by cosine similarity.
func (d *Driver) Search(ctx context.Context, embedding []float32, limit int) ([]vector.Neighbor, error) {
	if limit <= 0 {
		limit = 5
	}

	scored, err := d.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: d.collection,
		Query:          qdrant.NewQuery(embedding...),
		Limit:          qdrant.PtrOf(uint64(limit)),
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", vector.ErrSearch, err)
	}

	neighbors := make([]vector.Neighbor, 0, len(scored))
	for _, point := range scored {
		neighbors = append(neighbors, vector.Neighbor{
			ID:      point.GetId().GetNum(),
			Score:   point.GetScore(),
			Payload: payloadToMap(point.GetPayload()),
		})
	}

	d.logger.Debug("queried qdrant", "results", len(neighbors))

	return neighbors, nil
}

// Close releases the underlying gRPC connection.
func (d *Driver) Close() error {
	return d.client.Close()
}

// payloadToMap converts a Qdrant payload into plain Go values.
func payloadToMap(payload map[string]*qdrant.Value) map[string]any {
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		out[k] = valueToAny(v)
	}
	return out
}

func valueToAny(v *qdrant.Value) any {
	switch kind := v.GetKind().(type) {
	case *qdrant.Value_DoubleValue:
		return kind.DoubleValue
	case *qdrant.Value_IntegerValue:
		return kind.IntegerValue
	case *qdrant.Value_StringValue:
		return kind.StringValue
	case *qdrant.Value_BoolValue:
		return kind.BoolValue
	case *qdrant.Value_StructValue:
		return payloadToMap(kind.StructValue.GetFields())
	case *qdrant.Value_ListValue:
		values := kind.ListValue.GetValues()
		list := make([]any, len(values))
		for i, item := range values {
			list[i] = valueToAny(item)
		}
		return list
	default:
		return nil
	}
}

// Ensure Driver implements vector.Driver
var _ vector.Driver = (*Driver)(nil)
