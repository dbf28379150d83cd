// Package vectorutils is the vector store utility package
package vectorutils

import (
	"fmt"
	"log/slog"

	"github.com/cardinalpay/sift/pkg/vector"
	"github.com/cardinalpay/sift/pkg/vector/qdrant"
	"github.com/cardinalpay/sift/pkg/vector/sqlitevec"
)

type NewDriverOpts struct {
	ProviderType string
	Target       string
	APIKey       string
	Collection   string
	Dimensions   uint
}

func NewDriver(o *NewDriverOpts, logger *slog.Logger) (vector.Driver, error) {
	switch o.ProviderType {
	case "qdrant":
		return qdrant.NewDriver(qdrant.Config{
			Target:     o.Target,
			APIKey:     o.APIKey,
			Collection: o.Collection,
			Dimensions: o.Dimensions,
		}, logger)
	case "sqlite":
		return sqlitevec.NewDriver(sqlitevec.Config{
			DBPath:     o.Target,
			Dimensions: o.Dimensions,
		}, logger)
	default:
		return nil, fmt.Errorf("unsupported vector store provider: %s", o.ProviderType)
	}
}
