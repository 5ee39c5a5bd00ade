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

type nodeRecord struct {
	PK         string                 `dynamodbav:"PK"`
	SK         string                 `dynamodbav:"SK"`
	NodeID     string                 `dynamodbav:"NodeID"`
	OwnerID    string                 `dynamodbav:"OwnerID"`
	NodeType   string                 `dynamodbav:"NodeType"`
	Label      string                 `dynamodbav:"Label"`
	Properties map[string]interface{} `dynamodbav:"Properties,omitempty"`
	CreatedAt  string                 `dynamodbav:"CreatedAt"`
	UpdatedAt  string                 `dynamodbav:"UpdatedAt"`
}

func nodeToRecord(node *entities.Node) nodeRecord {
	return nodeRecord{
		PK:         userPK(node.OwnerID()),
		SK:         nodeSKPrefix + node.ID().String(),
		NodeID:     node.ID().String(),
		OwnerID:    node.OwnerID(),
		NodeType:   string(node.Type()),
		Label:      node.Label(),
		Properties: node.Properties(),
		CreatedAt:  node.CreatedAt().Format(time.RFC3339),
		UpdatedAt:  node.UpdatedAt().Format(time.RFC3339),
	}
}

func nodeFromRecord(record nodeRecord) (*entities.Node, error) {
	id, err := valueobjects.ParseNodeID(record.NodeID)
	if err != nil {
		return nil, err
	}
	nodeType, err := entities.ParseNodeType(record.NodeType)
	if err != nil {
		return nil, err
	}
	createdAt, _ := time.Parse(time.RFC3339, record.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, record.UpdatedAt)
	return entities.ReconstructNode(id, record.OwnerID, nodeType, record.Label, record.Properties, createdAt, updatedAt), nil
}

// NodeRepository persists nodes as NODE# items in the single table
type NodeRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
	metrics   *observability.Metrics
}

var _ ports.NodeRepository = (*NodeRepository)(nil)

// NewNodeRepository creates the DynamoDB-backed node repository
func NewNodeRepository(client *dynamodb.Client, tableName string, logger *zap.Logger, metrics *observability.Metrics) *NodeRepository {
	return &NodeRepository{client: client, tableName: tableName, logger: logger, metrics: metrics}
}

// Save persists a new node
func (r *NodeRepository) Save(ctx context.Context, node *entities.Node) error {
	defer observe(r.metrics, "node_save", time.Now())

	item, err := attributevalue.MarshalMap(nodeToRecord(node))
	if err != nil {
		return errors.NewDatabaseError("marshal node", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	})
	if err != nil {
		return errors.NewDatabaseError("put node", err)
	}
	return nil
}

// FindByID retrieves one node by its key
func (r *NodeRepository) FindByID(ctx context.Context, ownerID string, id valueobjects.NodeID) (*entities.Node, error) {
	defer observe(r.metrics, "node_find_by_id", time.Now())

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: nodeSKPrefix + id.String()},
		},
	})
	if err != nil {
		return nil, errors.NewDatabaseError("get node", err)
	}
	if result.Item == nil {
		return nil, errors.NewNotFoundError("node", id.String())
	}

	var record nodeRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, errors.NewDatabaseError("unmarshal node", err)
	}
	return nodeFromRecord(record)
}

// FindByIDs retrieves the nodes in the identifier list, skipping absentees
func (r *NodeRepository) FindByIDs(ctx context.Context, ownerID string, ids []valueobjects.NodeID) ([]*entities.Node, error) {
	defer observe(r.metrics, "node_find_by_ids", time.Now())

	nodes := make([]*entities.Node, 0, len(ids))
	for _, id := range ids {
		node, err := r.FindByID(ctx, ownerID, id)
		if err != nil {
			if errors.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

// FindByOwner queries every NODE# item under the owner's partition
func (r *NodeRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Node, error) {
	defer observe(r.metrics, "node_find_by_owner", time.Now())

	keyEx := expression.Key("PK").Equal(expression.Value(userPK(ownerID))).
		And(expression.Key("SK").BeginsWith(nodeSKPrefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, errors.NewDatabaseError("build expression", err)
	}

	var nodes []*entities.Node
	var lastKey map[string]types.AttributeValue
	for {
		result, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			KeyConditionExpression:    expr.KeyCondition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
			ExclusiveStartKey:         lastKey,
		})
		if err != nil {
			return nil, errors.NewDatabaseError("query nodes", err)
		}

		for _, item := range result.Items {
			var record nodeRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				r.logger.Warn("Failed to unmarshal node item, skipping", zap.Error(err))
				continue
			}
			node, err := nodeFromRecord(record)
			if err != nil {
				r.logger.Warn("Failed to parse node item, skipping", zap.Error(err))
				continue
			}
			nodes = append(nodes, node)
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}
	return nodes, nil
}

// FindByTypeAndLabel scans the owner's nodes for the first (type, label)
// match. The partition is small enough that a filtered query suffices.
func (r *NodeRepository) FindByTypeAndLabel(ctx context.Context, ownerID string, nodeType entities.NodeType, label string) (*entities.Node, error) {
	defer observe(r.metrics, "node_find_by_type_label", time.Now())

	keyEx := expression.Key("PK").Equal(expression.Value(userPK(ownerID))).
		And(expression.Key("SK").BeginsWith(nodeSKPrefix))
	filterEx := expression.Name("NodeType").Equal(expression.Value(string(nodeType))).
		And(expression.Name("Label").Equal(expression.Value(label)))

	expr, err := expression.NewBuilder().
		WithKeyCondition(keyEx).
		WithFilter(filterEx).
		Build()
	if err != nil {
		return nil, errors.NewDatabaseError("build expression", err)
	}

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
			return nil, errors.NewDatabaseError("query node", err)
		}

		if len(result.Items) > 0 {
			var record nodeRecord
			if err := attributevalue.UnmarshalMap(result.Items[0], &record); err != nil {
				return nil, errors.NewDatabaseError("unmarshal node", err)
			}
			return nodeFromRecord(record)
		}

		if result.LastEvaluatedKey == nil {
			return nil, errors.NewNotFoundError("node", label)
		}
		lastKey = result.LastEvaluatedKey
	}
}

// Delete removes a node item
func (r *NodeRepository) Delete(ctx context.Context, ownerID string, id valueobjects.NodeID) error {
	defer observe(r.metrics, "node_delete", time.Now())

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: nodeSKPrefix + id.String()},
		},
	})
	if err != nil {
		return errors.NewDatabaseError("delete node", err)
	}
	return nil
}
