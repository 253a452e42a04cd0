package repository

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

const DefaultAuditEventsTableName = "audit_events"

// onceMarkerPrefix keys the guard items written by AppendOnce. Event seq values
// start with a timestamp, so the two never collide.
const onceMarkerPrefix = "once#"

var ErrAuditEventExists = errors.New("audit event already recorded")

type auditEventItem struct {
	EstimationID string `dynamodbav:"estimation_id"`
	Seq          string `dynamodbav:"seq"`
	ID           string `dynamodbav:"id"`
	EventType    string `dynamodbav:"event_type"`
	EventData    string `dynamodbav:"event_data"`
	IPAddress    string `dynamodbav:"ip_address,omitempty"`
	UserAgent    string `dynamodbav:"user_agent,omitempty"`
	CreatedAt    string `dynamodbav:"created_at"`
}

// AuditEventDynamoRepository is the append-only audit ledger table.
//
// Table requirements:
//   - PK: estimation_id (string)
//   - SK: seq (string, AuditEvent.SortKey)
//
// AppendOnce stores a guard item (seq "once#<key>") with the event in one
// transaction. ListByEstimationID skips guard items.
//
// There is no update or delete path; IAM for the service role should deny both.
type AuditEventDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IAuditEventRepository = (*AuditEventDynamoRepository)(nil)

func NewAuditEventDynamoRepository(ddb DynamoAPI, tableName string) *AuditEventDynamoRepository {
	return &AuditEventDynamoRepository{
		ddb:       ddb,
		tableName: tableOrDefault(tableName, DefaultAuditEventsTableName),
	}
}

func (r *AuditEventDynamoRepository) Append(ctx context.Context, ev entities.AuditEvent) error {
	it, err := toAuditEventItem(ev)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return err
	}
	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(r.tableName),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(#seq)"),
		ExpressionAttributeNames: map[string]string{
			"#seq": "seq",
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return ErrAuditEventExists
		}
		return err
	}
	return nil
}

func (r *AuditEventDynamoRepository) AppendOnce(ctx context.Context, ev entities.AuditEvent, key string) (bool, error) {
	it, err := toAuditEventItem(ev)
	if err != nil {
		return false, err
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return false, err
	}
	marker := map[string]types.AttributeValue{
		"estimation_id": &types.AttributeValueMemberS{Value: ev.EstimationID},
		"seq":           &types.AttributeValueMemberS{Value: onceMarkerPrefix + key},
		"event_id":      &types.AttributeValueMemberS{Value: ev.ID},
	}
	notExists := aws.String("attribute_not_exists(#seq)")
	names := map[string]string{"#seq": "seq"}

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: marker, ConditionExpression: notExists, ExpressionAttributeNames: names}},
			{Put: &types.Put{TableName: aws.String(r.tableName), Item: av, ConditionExpression: notExists, ExpressionAttributeNames: names}},
		},
	})
	if err == nil {
		return true, nil
	}
	var tce *types.TransactionCanceledException
	if !errors.As(err, &tce) {
		return false, err
	}
	reasons := tce.CancellationReasons
	if len(reasons) > 0 && aws.ToString(reasons[0].Code) == "ConditionalCheckFailed" {
		return false, nil
	}
	if len(reasons) > 1 && aws.ToString(reasons[1].Code) == "ConditionalCheckFailed" {
		return false, ErrAuditEventExists
	}
	return false, err
}

func (r *AuditEventDynamoRepository) ListByEstimationID(ctx context.Context, estimationID string) ([]entities.AuditEvent, error) {
	var (
		events []entities.AuditEvent
		start  map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			KeyConditionExpression: aws.String("estimation_id = :eid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":eid": &types.AttributeValueMemberS{Value: estimationID},
			},
			ScanIndexForward:  aws.Bool(true),
			ConsistentRead:    aws.Bool(true),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			if seq, ok := raw["seq"].(*types.AttributeValueMemberS); ok && strings.HasPrefix(seq.Value, onceMarkerPrefix) {
				continue
			}
			var it auditEventItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			ev, err := fromAuditEventItem(it)
			if err != nil {
				return nil, err
			}
			events = append(events, ev)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	return events, nil
}

func toAuditEventItem(ev entities.AuditEvent) (auditEventItem, error) {
	data := []byte("{}")
	if ev.Data != nil {
		b, err := json.Marshal(ev.Data)
		if err != nil {
			return auditEventItem{}, err
		}
		data = b
	}
	return auditEventItem{
		EstimationID: ev.EstimationID,
		Seq:          ev.SortKey(),
		ID:           ev.ID,
		EventType:    string(ev.Type),
		EventData:    string(data),
		IPAddress:    ev.IPAddress,
		UserAgent:    ev.UserAgent,
		CreatedAt:    formatTime(ev.CreatedAt),
	}, nil
}

func fromAuditEventItem(it auditEventItem) (entities.AuditEvent, error) {
	t := entities.EventType(it.EventType)
	data, err := entities.DecodeEventData(t, json.RawMessage(it.EventData))
	if err != nil {
		return entities.AuditEvent{}, err
	}
	return entities.AuditEvent{
		ID:           it.ID,
		EstimationID: it.EstimationID,
		Type:         t,
		Data:         data,
		IPAddress:    it.IPAddress,
		UserAgent:    it.UserAgent,
		CreatedAt:    parseTime(it.CreatedAt),
	}, nil
}
