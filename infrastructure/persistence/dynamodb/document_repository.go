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
	"secondbrain-backend/infrastructure/observability"
	"secondbrain-backend/pkg/errors"
)

type documentRecord struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	DocumentID string `dynamodbav:"DocumentID"`
	OwnerID    string `dynamodbav:"OwnerID"`
	Title      string `dynamodbav:"Title"`
	Content    string `dynamodbav:"Content"`
	SourceType string `dynamodbav:"SourceType"`
	SourceURL  string `dynamodbav:"SourceURL,omitempty"`
	Status     string `dynamodbav:"Status"`
	FailedStep string `dynamodbav:"FailedStep,omitempty"`
	CreatedAt  string `dynamodbav:"CreatedAt"`
	UpdatedAt  string `dynamodbav:"UpdatedAt"`
}

func documentToRecord(doc *entities.Document) documentRecord {
	return documentRecord{
		PK:         userPK(doc.OwnerID()),
		SK:         docSKPrefix + doc.ID(),
		DocumentID: doc.ID(),
		OwnerID:    doc.OwnerID(),
		Title:      doc.Title(),
		Content:    doc.Content(),
		SourceType: doc.SourceType(),
		SourceURL:  doc.SourceURL(),
		Status:     string(doc.Status()),
		FailedStep: doc.FailedStep(),
		CreatedAt:  doc.CreatedAt().Format(time.RFC3339),
		UpdatedAt:  doc.UpdatedAt().Format(time.RFC3339),
	}
}

func documentFromRecord(record documentRecord) *entities.Document {
	createdAt, _ := time.Parse(time.RFC3339, record.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339, record.UpdatedAt)
	return entities.ReconstructDocument(
		record.DocumentID, record.OwnerID, record.Title, record.Content,
		record.SourceType, record.SourceURL,
		entities.DocumentStatus(record.Status), record.FailedStep,
		createdAt, updatedAt,
	)
}

// DocumentRepository persists documents as DOC# items in the single table
type DocumentRepository struct {
	client    *dynamodb.Client
	tableName string
	logger    *zap.Logger
	metrics   *observability.Metrics
}

var _ ports.DocumentRepository = (*DocumentRepository)(nil)

// NewDocumentRepository creates the DynamoDB-backed document repository
func NewDocumentRepository(client *dynamodb.Client, tableName string, logger *zap.Logger, metrics *observability.Metrics) *DocumentRepository {
	return &DocumentRepository{client: client, tableName: tableName, logger: logger, metrics: metrics}
}

// Save persists a new document
func (r *DocumentRepository) Save(ctx context.Context, doc *entities.Document) error {
	defer observe(r.metrics, "document_save", time.Now())
	return r.put(ctx, doc, "put document")
}

// Update rewrites a document's mutable fields
func (r *DocumentRepository) Update(ctx context.Context, doc *entities.Document) error {
	defer observe(r.metrics, "document_update", time.Now())
	return r.put(ctx, doc, "update document")
}

func (r *DocumentRepository) put(ctx context.Context, doc *entities.Document, operation string) error {
	item, err := attributevalue.MarshalMap(documentToRecord(doc))
	if err != nil {
		return errors.NewDatabaseError("marshal document", err)
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

// FindByID retrieves one document by its key
func (r *DocumentRepository) FindByID(ctx context.Context, ownerID, id string) (*entities.Document, error) {
	defer observe(r.metrics, "document_find_by_id", time.Now())

	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: docSKPrefix + id},
		},
	})
	if err != nil {
		return nil, errors.NewDatabaseError("get document", err)
	}
	if result.Item == nil {
		return nil, errors.NewNotFoundError("document", id)
	}

	var record documentRecord
	if err := attributevalue.UnmarshalMap(result.Item, &record); err != nil {
		return nil, errors.NewDatabaseError("unmarshal document", err)
	}
	return documentFromRecord(record), nil
}

// FindByOwner queries every DOC# item under the owner's partition
func (r *DocumentRepository) FindByOwner(ctx context.Context, ownerID string) ([]*entities.Document, error) {
	defer observe(r.metrics, "document_find_by_owner", time.Now())

	keyEx := expression.Key("PK").Equal(expression.Value(userPK(ownerID))).
		And(expression.Key("SK").BeginsWith(docSKPrefix))

	expr, err := expression.NewBuilder().WithKeyCondition(keyEx).Build()
	if err != nil {
		return nil, errors.NewDatabaseError("build expression", err)
	}

	var docs []*entities.Document
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
			return nil, errors.NewDatabaseError("query documents", err)
		}

		for _, item := range result.Items {
			var record documentRecord
			if err := attributevalue.UnmarshalMap(item, &record); err != nil {
				r.logger.Warn("Failed to unmarshal document item, skipping", zap.Error(err))
				continue
			}
			docs = append(docs, documentFromRecord(record))
		}

		if result.LastEvaluatedKey == nil {
			break
		}
		lastKey = result.LastEvaluatedKey
	}
	return docs, nil
}

// Delete removes a document item
func (r *DocumentRepository) Delete(ctx context.Context, ownerID, id string) error {
	defer observe(r.metrics, "document_delete", time.Now())

	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: userPK(ownerID)},
			"SK": &types.AttributeValueMemberS{Value: docSKPrefix + id},
		},
	})
	if err != nil {
		return errors.NewDatabaseError("delete document", err)
	}
	return nil
}
