package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
)

const (
	DefaultPaymentTransactionsTableName = "payment_transactions"
	transactionsEstimationIDIndex       = "estimation_id-index"
)

type paymentTransactionItem struct {
	ID                    string                 `dynamodbav:"id"`
	EstimationID          string                 `dynamodbav:"estimation_id"`
	Provider              string                 `dynamodbav:"provider"`
	ProviderTransactionID string                 `dynamodbav:"provider_transaction_id"`
	Amount                string                 `dynamodbav:"amount"`
	Currency              string                 `dynamodbav:"currency"`
	Status                string                 `dynamodbav:"status"`
	ProviderPayload       map[string]interface{} `dynamodbav:"provider_payload,omitempty"`
	ProviderPayloadRaw    string                 `dynamodbav:"provider_payload_raw,omitempty"`
	CreatedAt             string                 `dynamodbav:"created_at"`
}

// PaymentTransactionDynamoRepository persists PaymentTransaction rows in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: estimation_id-index (PK: estimation_id)
//
// Rows are written once; a second write of the same id leaves the first one.
type PaymentTransactionDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IPaymentTransactionRepository = (*PaymentTransactionDynamoRepository)(nil)

func NewPaymentTransactionDynamoRepository(ddb DynamoAPI, tableName string) *PaymentTransactionDynamoRepository {
	return &PaymentTransactionDynamoRepository{
		ddb:       ddb,
		tableName: tableOrDefault(tableName, DefaultPaymentTransactionsTableName),
	}
}

func (r *PaymentTransactionDynamoRepository) Create(ctx context.Context, tx entities.PaymentTransaction) (entities.PaymentTransaction, bool, error) {
	av, err := attributevalue.MarshalMap(toPaymentTransactionItem(tx))
	if err != nil {
		return entities.PaymentTransaction{}, false, err
	}

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{
			"#id": "id",
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			existing, gerr := r.getByID(ctx, tx.ID)
			return existing, false, gerr
		}
		return entities.PaymentTransaction{}, false, err
	}
	return tx, true, nil
}

func (r *PaymentTransactionDynamoRepository) getByID(ctx context.Context, id string) (entities.PaymentTransaction, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.PaymentTransaction{}, err
	}
	if len(out.Item) == 0 {
		return entities.PaymentTransaction{}, nil
	}
	var it paymentTransactionItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.PaymentTransaction{}, err
	}
	return fromPaymentTransactionItem(it)
}

func (r *PaymentTransactionDynamoRepository) ListByEstimationID(ctx context.Context, estimationID string) ([]entities.PaymentTransaction, error) {
	var (
		items []entities.PaymentTransaction
		start map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(transactionsEstimationIDIndex),
			KeyConditionExpression: aws.String("estimation_id = :eid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":eid": &types.AttributeValueMemberS{Value: estimationID},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it paymentTransactionItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			tx, err := fromPaymentTransactionItem(it)
			if err != nil {
				return nil, err
			}
			items = append(items, tx)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.Before(items[j].CreatedAt) })
	return items, nil
}

func toPaymentTransactionItem(tx entities.PaymentTransaction) paymentTransactionItem {
	it := paymentTransactionItem{
		ID:                    tx.ID,
		EstimationID:          tx.EstimationID,
		Provider:              tx.Provider,
		ProviderTransactionID: tx.ProviderTransactionID,
		Amount:                tx.Amount.String(),
		Currency:              tx.Currency,
		Status:                string(tx.Status),
		ProviderPayloadRaw:    string(tx.ProviderPayload),
		CreatedAt:             formatTime(tx.CreatedAt),
	}
	// The decoded map keeps the payload queryable from the console.
	if len(tx.ProviderPayload) > 0 {
		var m map[string]interface{}
		if err := json.Unmarshal(tx.ProviderPayload, &m); err == nil {
			it.ProviderPayload = m
		}
	}
	return it
}

func fromPaymentTransactionItem(it paymentTransactionItem) (entities.PaymentTransaction, error) {
	amount, err := decimal.NewFromString(it.Amount)
	if err != nil {
		return entities.PaymentTransaction{}, fmt.Errorf("transaction %s amount: %w", it.ID, err)
	}
	tx := entities.PaymentTransaction{
		ID:                    it.ID,
		EstimationID:          it.EstimationID,
		Provider:              it.Provider,
		ProviderTransactionID: it.ProviderTransactionID,
		Amount:                amount,
		Currency:              it.Currency,
		Status:                entities.TransactionStatus(it.Status),
		CreatedAt:             parseTime(it.CreatedAt),
	}
	if it.ProviderPayloadRaw != "" {
		tx.ProviderPayload = json.RawMessage(it.ProviderPayloadRaw)
	}
	return tx, nil
}
