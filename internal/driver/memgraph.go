package driver

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

type MemgraphDriver struct {
	Driver neo4j.DriverWithContext
	Logger *zap.Logger
}

func NewMemgraphDriver(ctx context.Context, uri, username, password string, logger *zap.Logger) (*MemgraphDriver, error) {
	driver, err := neo4j.NewDriverWithContext(uri, neo4j.BasicAuth(username, password, ""))
	if err != nil {
		return nil, err
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		driver.Close(ctx)
		return nil, fmt.Errorf("failed to reach memgraph at %s: %w", uri, err)
	}

	logger.Info("Connected to Memgraph", zap.String("uri", uri))
	return &MemgraphDriver{Driver: driver, Logger: logger}, nil
}

func (d *MemgraphDriver) Close(ctx context.Context) error {
	return d.Driver.Close(ctx)
}

func (d *MemgraphDriver) ExecuteQuery(ctx context.Context, query string, params map[string]interface{}) (neo4j.EagerResult, error) {
	result, err := neo4j.ExecuteQuery(ctx, d.Driver, query, params, neo4j.EagerResultTransformer)
	if err != nil {
		return neo4j.EagerResult{}, fmt.Errorf("failed to execute query: %w", err)
	}
	return *result, nil
}

func (d *MemgraphDriver) BuildIndices(ctx context.Context) error {
	queries := []string{
		"CREATE INDEX ON :Plant(id);",
		"CREATE INDEX ON :Plant(seq);",
		"CREATE CONSTRAINT ON (c:PlantSeq) ASSERT c.name IS UNIQUE;",
	}

	for _, q := range queries {
		_, err := d.ExecuteQuery(ctx, q, nil)
		if err != nil {
			// The index or constraint may already exist.
			d.Logger.Warn("Failed to create index", zap.String("query", q), zap.Error(err))
		}
	}

	return nil
}
