package repository

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/kolade-a/labreports-tracker/internal/common"
	"github.com/kolade-a/labreports-tracker/internal/entity"
)

const (
	partitionKey = "UserId"
	sortKey      = "PatientId#TestDateTime#Indicator"
)

// DynamoAPI is the subset of the DynamoDB client the repository uses.
type DynamoAPI interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
}

// DynamoRepository implements RecordRepository on a DynamoDB table keyed by
// (UserId, PatientId#TestDateTime#Indicator).
type DynamoRepository struct {
	client DynamoAPI
	table  string
	logger *slog.Logger
}

func NewDynamoRepository(client DynamoAPI, table string, logger *slog.Logger) *DynamoRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamoRepository{client: client, table: table, logger: logger}
}

func recordKey(ownerID, compositeKey string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		partitionKey: &types.AttributeValueMemberS{Value: ownerID},
		sortKey:      &types.AttributeValueMemberS{Value: compositeKey},
	}
}

func (r *DynamoRepository) Upsert(ctx context.Context, rec *entity.ClinicalRecord) error {
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(r.table),
		Item:      item,
	})
	if err != nil {
		return common.External(err, "put record "+rec.CompositeKey)
	}
	r.logger.Debug("record upserted", "owner_id", rec.OwnerID, "composite_key", rec.CompositeKey)
	return nil
}

func (r *DynamoRepository) Get(ctx context.Context, ownerID, compositeKey string) (*entity.ClinicalRecord, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       recordKey(ownerID, compositeKey),
	})
	if err != nil {
		return nil, common.External(err, "get record "+compositeKey)
	}
	if len(out.Item) == 0 {
		return nil, common.WrapError(common.ErrNotFound, "record "+compositeKey)
	}
	var rec entity.ClinicalRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal record: %w", err)
	}
	return &rec, nil
}

func (r *DynamoRepository) ListByOwner(ctx context.Context, ownerID string) ([]*entity.ClinicalRecord, error) {
	var records []*entity.ClinicalRecord
	var startKey map[string]types.AttributeValue
	for {
		out, err := r.client.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.table),
			KeyConditionExpression: aws.String("#uid = :uid"),
			ExpressionAttributeNames: map[string]string{
				"#uid": partitionKey,
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":uid": &types.AttributeValueMemberS{Value: ownerID},
			},
			ExclusiveStartKey: startKey,
		})
		if err != nil {
			return nil, common.External(err, "query records for "+ownerID)
		}
		for _, item := range out.Items {
			var rec entity.ClinicalRecord
			if err := attributevalue.UnmarshalMap(item, &rec); err != nil {
				return nil, fmt.Errorf("unmarshal record: %w", err)
			}
			records = append(records, &rec)
		}
		if out.LastEvaluatedKey == nil {
			return records, nil
		}
		startKey = out.LastEvaluatedKey
	}
}

func (r *DynamoRepository) UpdateFields(ctx context.Context, ownerID, compositeKey string, updates map[string]any) error {
	if err := validateUpdates(updates); err != nil {
		return err
	}

	names := map[string]string{"#pk": partitionKey}
	values := map[string]types.AttributeValue{}
	var sets []string
	i := 0
	for field, value := range updates {
		av, err := attributevalue.Marshal(value)
		if err != nil {
			return fmt.Errorf("marshal %s: %w", field, err)
		}
		n := fmt.Sprintf("#f%d", i)
		v := fmt.Sprintf(":v%d", i)
		names[n] = field
		values[v] = av
		sets = append(sets, n+" = "+v)
		i++
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       recordKey(ownerID, compositeKey),
		UpdateExpression:          aws.String("SET " + strings.Join(sets, ", ")),
		ConditionExpression:       aws.String("attribute_exists(#pk)"),
		ExpressionAttributeNames:  names,
		ExpressionAttributeValues: values,
	})
	if err != nil {
		var cond *types.ConditionalCheckFailedException
		if errors.As(err, &cond) {
			return common.WrapError(common.ErrNotFound, "record "+compositeKey)
		}
		return common.External(err, "update record "+compositeKey)
	}
	return nil
}

func (r *DynamoRepository) Delete(ctx context.Context, ownerID, compositeKey string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       recordKey(ownerID, compositeKey),
	})
	if err != nil {
		return common.External(err, "delete record "+compositeKey)
	}
	return nil
}
