package dynamodb

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"go.uber.org/zap"

	"secondbrain-backend/application/ports"
	"secondbrain-backend/domain/core/entities"
	"secondbrain-backend/domain/core/valueobjects"
	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/pkg/errors"
)

type edgeRecord struct {
	PK            string   `dynamodbav:"PK"`
	SK            string   `dynamodbav:"SK"`
	EdgeID        string   `dynamodbav:"EdgeID"`
	OwnerID       string   `dynamodbav:"OwnerID"`
	SourceID      string   `dynamodbav:"SourceID"`
	TargetID      string   `dynamodbav:"TargetID"`
	EdgeType      string   `dynamodbav:"EdgeType"`
	Weight        float64  `dynamodbav:"Weight"`
	AISuggested   bool     `dynamodbav:"AISuggested"`
	UserConfirmed bool     `dynamodbav:"UserConfirmed"`
	Confidence    float64  `dynamodbav:"Confidence"`
	Evidence      []string `dynamodbav:"Evidence,omitempty"`
	CreatedAt     string   `dynamodbav:"CreatedAt"`
	UpdatedAt     string   `dynamodbav:"UpdatedAt"`
}

func edgeToRecord(edge *entities.Edge) edgeRecord {
	return edgeRecord{
		PK:            userPK(edge.OwnerID()),
		SK:            edgeSKPrefix + edge.ID().String(),
		EdgeID:        edge.ID().String(),
		OwnerID:       edge.OwnerID(),
		SourceID:      edge.SourceID().String(),
		TargetID:      edge.TargetID().String(),
		EdgeType:      string(edge.Type()),
		Weight:        edge.Weight(),
		AISuggested:   edge.AISuggested(),
		UserConfirmed: edge.UserConfirmed(),
		Confidence:    edge.Confidence().Value(),
		Evidence:      edge.Evidence(),
		CreatedAt:     edge.CreatedAt().Format(time.RFC3339),
		UpdatedAt:     edge.UpdatedAt().Format(time.RFC3339),
	}
}

func edgeFromRecord(record edgeRecord) (*entities.Edge, error) {
	id, err := valueobjects.ParseEdgeID(record.EdgeID)
	if err != nil {
		return nil, err
	}
	sourceID, err := valueobjects.ParseNodeID(record.SourceID)
	if err != nil {
		return nil, err
	}
	targetID, err := valueobjects.ParseNodeID(record.TargetID)
	if err != nil {
		return nil, err
	}
	edgeType, err := entities.ParseEdgeType(record.EdgeType)
	if err != nil {
		return nil, err
	}
	createdAt, _ := time.Parse(time.RFC3339, record.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, record.UpdatedAt)
	return entities.ReconstructEdge(
		id, record.OwnerID, sourceID, targetID, edgeType, record.Weight,
		record.AISuggested, record.UserConfirmed, record.Confidence, record.Evidence,
		createdAt, updatedAt,
	), nil
}

// EdgeRepository persists edges as EDGE# items in the single table
type EdgeRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
	metrics   *observability.Metrics
}

var _ ports.EdgeRepository = (*EdgeRepository)(nil)

// NewEdgeRepository creates the DynamoDB-backed edge repository
func NewEdgeRepository(client *dynamodb.Client, tableName string, logger *zap.Logger, metrics *observability.Metrics) *EdgeRepository {
	return &EdgeRepository{client: client, tableName: tableName, logger: logger, metrics: metrics}
}

// Save persists a new edge
func (r *EdgeRepository) Save(ctx context.Context, edge *entities.Edge) error {
	defer observe(r.metrics, "edge_save", time.Now())
	return r.put(ctx, edge, "put edge")
}

// Update rewrites an existing edge. PutItem replaces the whole item, which
// is the update semantics here.
func (r *EdgeRepository) Update(ctx context.Context, edge *entities.Edge) error {
	defer observe(r.metrics, "edge_update", time.Now())
	return r.put(ctx, edge, "update edge")
}

func (r *EdgeRepository) put(ctx context.Context, edge *entities.Edge, operation string) error {
	item, err := attributevalue.MarshalMap(edgeToRecord(edge))
	if err != nil {
		return errors.NewDatabaseError("marshal edge", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return errors.NewDatabaseError(operation, err)
	}
	return nil
}

// FindByID retrieves one edge by its key
func (r *EdgeRepository) FindByID(ctx context.Context, ownerID string, id valueobjects.EdgeID) (*entities.Edge, error) {
	defer observe(r.metrics, "edge_find_by_id", time.Now())

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: edgeSKPrefix + id.String()},
		},
	})
	if err != nil {
		return nil, errors.NewDatabaseError("get edge", err)
	}
	if result.Item == nil {
		return nil, errors.NewNotFoundError("edge", id.String())
	}

	var record edgeRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, errors.NewDatabaseError("unmarshal edge", err)
	}
	return edgeFromRecord(record)
}

// FindByOwner queries every EDGE# item under the owner's partition
func (r *EdgeRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Edge, error) {
	defer observe(r.metrics, "edge_find_by_owner", time.Now())
	return r.query(ctx, ownerID, nil)
}

// FindByNode retrieves every edge incident to the node, filtered server-side
func (r *EdgeRepository) FindByNode(ctx context.Context, ownerID string, nodeID valueobjects.NodeID) ([]*entities.Edge, error) {
	defer observe(r.metrics, "edge_find_by_node", time.Now())

	filter := expression.Name("SourceID").Equal(expression.Value(nodeID.String())).
		Or(expression.Name("TargetID").Equal(expression.Value(nodeID.String())))
	return r.query(ctx, ownerID, &filter)
}

func (r *EdgeRepository) query(ctx context.Context, ownerID string, filter *expression.ConditionBuilder) ([]*entities.Edge, error) {
	keyEx := expression.Key("PK").Equal(expression.Value(userPK(ownerID))).
		And(expression.Key("SK").BeginsWith(edgeSKPrefix))

	builder := expression.NewBuilder().WithKeyCondition(keyEx)
	if filter != nil {
		builder = builder.WithFilter(*filter)
	}
	expr, err := builder.Build()
	if err != nil {
		return nil, errors.NewDatabaseError("build expression", err)
	}

	var edges []*entities.Edge
	var lastKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			FilterExpression:          expr.Filter(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, errors.NewDatabaseError("query edges", err)
		}

		for _, item := range result.Items {
			var record edgeRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				r.logger.Warn("Failed to unmarshal edge item, skipping", zap.Error(err))
				continue
			}
			edge, err := edgeFromRecord(record)
			if err != nil {
				r.logger.Warn("Failed to parse edge item, skipping", zap.Error(err))
				continue
			}
			edges = append(edges, edge)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}
	return edges, nil
}

// Delete removes an edge item
func (r *EdgeRepository) Delete(ctx context.Context, ownerID string, id valueobjects.EdgeID) error {
	defer observe(r.metrics, "edge_delete", time.Now())

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: edgeSKPrefix + id.String()},
		},
	})
	if err != nil {
		return errors.NewDatabaseError("delete edge", err)
	}
	return nil
}

// DeleteByIDs batch-deletes the edges in chunks of the BatchWriteItem cap
func (r *EdgeRepository) DeleteByIDs(ctx context.Context, ownerID string, ids []valueobjects.EdgeID) error {
	defer observe(r.metrics, "edge_delete_by_ids", time.Now())

	for start := 0; start < len(ids); start += batchDeleteLimit {
		end := start + batchDeleteLimit
		if end > len(ids) {
			end = len(ids)
		}

		requests := make([]types.WriteRequest, 0, end-start)
		for _, id := range ids[start:end] {
			requests = append(requests, types.WriteRequest{
				DeleteRequest: &types.DeleteRequest{
					Key: map[string]types.AttributeValue{
						"PK": &types.AttributeValueMemberS{Value: userPK(ownerID)},
						"SK": &types.AttributeValueMemberS{Value: edgeSKPrefix + id.String()},
					},
				},
			})
		}

		_, err := r.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{
				r.tableName: requests,
			},
		})
		if err != nil {
			return errors.NewDatabaseError("batch delete edges", err)
		}
	}
	return nil
}
