// Package dynamodb implements the repositories on a DynamoDB single-table
// layout: PK is USER#<owner>, SK prefixes NODE#, EDGE# and DOC# per record
// kind.
package dynamodb

import (
	"context"
	"fmt"
	"time"

	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"

	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/pkg/errors"
)

const (
	nodeSKPrefix = "NODE#"
	edgeSKPrefix = "EDGE#"
	docSKPrefix  = "DOC#"
)

// Config holds the DynamoDB connection settings
type Config struct {
	Region    string
	TableName string
}

// NewClient builds a DynamoDB client from the default AWS credential chain
func NewClient(ctx context.Context, cfg Config) (*dynamodb.Client, error) {
	if cfg.TableName == "" {
		return nil, errors.NewValidationError("dynamodb table name is required")
	}

	var opts []func(*awsConfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsConfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.NewDatabaseError("load aws config", err)
	}
	return dynamodb.NewFromConfig(awsCfg), nil
}

func userPK(ownerID string) string {
	return fmt.Sprintf("USER#%s", ownerID)
}

func observe(metrics *observability.Metrics, operation string, start time.Time) {
	if metrics != nil {
		metrics.RecordDBOperation(operation, time.Since(start))
	}
}

// batchDeleteLimit is the DynamoDB BatchWriteItem cap
const batchDeleteLimit = 25
