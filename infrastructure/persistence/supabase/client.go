// Package supabase implements the repositories on top of Supabase Postgres
// via the PostgREST API
package supabase

import (
	"time"

	"github.com/supabase-community/supabase-go"

	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/pkg/errors"
)

const (
	nodesTable     = "nodes"
	edgesTable     = "edges"
	documentsTable = "documents"
)

// Config holds the Supabase connection settings
type Config struct {
	URL        string
	ServiceKey string
}

// NewClient connects to the Supabase project with the service role key
func NewClient(cfg Config) (*supabase.Client, error) {
	if cfg.URL == "" || cfg.ServiceKey == "" {
		return nil, errors.NewValidationError("supabase url and service key are required")
	}
	client, err := supabase.NewClient(cfg.URL, cfg.ServiceKey, nil)
	if err != nil {
		return nil, errors.NewDatabaseError("connect", err)
	}
	return client, nil
}

func observe(metrics *observability.Metrics, operation string, start time.Time) {
	if metrics != nil {
		metrics.RecordDBOperation(operation, time.Since(start))
	}
}
