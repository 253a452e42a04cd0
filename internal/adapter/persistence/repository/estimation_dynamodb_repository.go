package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/sethvargo/go-retry"
	"github.com/shopspring/decimal"
)

const (
	DefaultEstimationsTableName   = "estimations"
	estimationsClientIDIndex      = "client_id-index"
	estimationsPaymentRefIndex    = "payment_reference-index"
	conditionalUpdateMaxRetries   = 4
	conditionalUpdateRetryBackoff = 15 * time.Millisecond
)

var errConditionalConflict = errors.New("estimation changed concurrently")

type estimationItem struct {
	ID                string `dynamodbav:"id"`
	ClientID          string `dynamodbav:"client_id"`
	Reason            string `dynamodbav:"reason"`
	Status            string `dynamodbav:"status"`
	PaymentStatus     string `dynamodbav:"payment_status"`
	PaymentReference  string `dynamodbav:"payment_reference,omitempty"`
	AmountPaid        string `dynamodbav:"amount_paid"`
	Currency          string `dynamodbav:"currency,omitempty"`
	PaidAt            string `dynamodbav:"paid_at,omitempty"`
	Attributes        string `dynamodbav:"attributes"`
	LegalConsent      string `dynamodbav:"legal_consent"`
	Result            string `dynamodbav:"result,omitempty"`
	RuleVersionID     string `dynamodbav:"rule_version_id,omitempty"`
	RuleVersionNumber int    `dynamodbav:"rule_version_number,omitempty"`
	ReportLocator     string `dynamodbav:"report_locator,omitempty"`
	FailureReason     string `dynamodbav:"failure_reason,omitempty"`
	Revision          int64  `dynamodbav:"revision"`
	CreatedAt         string `dynamodbav:"created_at"`
	UpdatedAt         string `dynamodbav:"updated_at"`
}

// EstimationDynamoRepository persists Estimation entities in DynamoDB.
//
// Table requirements:
//   - PK: id (string)
//   - GSI: client_id-index (PK: client_id), projection ALL
//   - GSI: payment_reference-index (PK: payment_reference), projection ALL
//
// Every write bumps revision. UpdateConditional reads the row, applies the
// changes and puts it back only if revision is unchanged and the status is
// still one of the expected ones.
type EstimationDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IEstimationRepository = (*EstimationDynamoRepository)(nil)

func NewEstimationDynamoRepository(ddb DynamoAPI, tableName string) *EstimationDynamoRepository {
	return &EstimationDynamoRepository{
		ddb:       ddb,
		tableName: tableOrDefault(tableName, DefaultEstimationsTableName),
	}
}

func (r *EstimationDynamoRepository) Create(ctx context.Context, e entities.Estimation) (entities.Estimation, error) {
	it, err := toEstimationItem(e, 1)
	if err != nil {
		return entities.Estimation{}, err
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.Estimation{}, err
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
		return entities.Estimation{}, err
	}
	return e, nil
}

func (r *EstimationDynamoRepository) GetByID(ctx context.Context, id string) (entities.Estimation, error) {
	e, _, err := r.get(ctx, id)
	return e, err
}

func (r *EstimationDynamoRepository) get(ctx context.Context, id string) (entities.Estimation, int64, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            stringKey("id", id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.Estimation{}, 0, err
	}
	if len(out.Item) == 0 {
		return entities.Estimation{}, 0, nil
	}

	var it estimationItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.Estimation{}, 0, err
	}
	e, err := fromEstimationItem(it)
	return e, it.Revision, err
}

// GetByPaymentReference resolves the id through the GSI, then re-reads the row
// consistently: index reads may lag behind the last transition.
func (r *EstimationDynamoRepository) GetByPaymentReference(ctx context.Context, reference string) (entities.Estimation, error) {
	out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(r.tableName),
		IndexName:              aws.String(estimationsPaymentRefIndex),
		KeyConditionExpression: aws.String("payment_reference = :ref"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":ref": &types.AttributeValueMemberS{Value: reference},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		return entities.Estimation{}, err
	}
	if len(out.Items) == 0 {
		return entities.Estimation{}, nil
	}
	var it estimationItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &it); err != nil {
		return entities.Estimation{}, err
	}
	return r.GetByID(ctx, it.ID)
}

func (r *EstimationDynamoRepository) ListByClientID(ctx context.Context, clientID string) ([]entities.Estimation, error) {
	var (
		items []entities.Estimation
		start map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Query(ctx, &dynamodb.QueryInput{
			TableName:              aws.String(r.tableName),
			IndexName:              aws.String(estimationsClientIDIndex),
			KeyConditionExpression: aws.String("client_id = :cid"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":cid": &types.AttributeValueMemberS{Value: clientID},
			},
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it estimationItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			e, err := fromEstimationItem(it)
			if err != nil {
				return nil, err
			}
			items = append(items, e)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	sort.SliceStable(items, func(i, j int) bool { return items[i].CreatedAt.After(items[j].CreatedAt) })
	return items, nil
}

func (r *EstimationDynamoRepository) UpdateConditional(
	ctx context.Context,
	id string,
	expected []entities.EstimationStatus,
	changes entities.EstimationChanges,
) (entities.Estimation, bool, error) {
	var (
		result  entities.Estimation
		applied bool
	)
	b := retry.WithMaxRetries(conditionalUpdateMaxRetries, retry.NewConstant(conditionalUpdateRetryBackoff))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		cur, rev, err := r.get(ctx, id)
		if err != nil {
			return err
		}
		if cur.ID == "" {
			result, applied = entities.Estimation{}, false
			return nil
		}
		if !statusIn(cur.Status, expected) || (changes.Result != nil && cur.Result != nil) {
			result, applied = cur, false
			return nil
		}

		next := changes.Apply(cur)
		if err := r.putIfRevision(ctx, next, rev, expected); err != nil {
			if errors.Is(err, errConditionalConflict) {
				return retry.RetryableError(err)
			}
			return err
		}
		result, applied = next, true
		return nil
	})
	if err != nil {
		return entities.Estimation{}, false, err
	}
	return result, applied, nil
}

func (r *EstimationDynamoRepository) putIfRevision(ctx context.Context, e entities.Estimation, rev int64, expected []entities.EstimationStatus) error {
	it, err := toEstimationItem(e, rev+1)
	if err != nil {
		return err
	}
	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return err
	}

	values := map[string]types.AttributeValue{
		":rev": &types.AttributeValueMemberN{Value: strconv.FormatInt(rev, 10)},
	}
	cond := "#revision = :rev AND #status IN ("
	for i, s := range expected {
		k := fmt.Sprintf(":s%d", i)
		if i > 0 {
			cond += ", "
		}
		cond += k
		values[k] = &types.AttributeValueMemberS{Value: string(s)}
	}
	cond += ")"

	_, err = r.ddb.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      av,
		ConditionExpression:       aws.String(cond),
		ExpressionAttributeValues: values,
		ExpressionAttributeNames: map[string]string{
			"#revision": "revision",
			"#status":   "status",
		},
	})
	if err != nil {
		if isConditionalCheckFailed(err) {
			return errConditionalConflict
		}
		return err
	}
	return nil
}

func statusIn(s entities.EstimationStatus, set []entities.EstimationStatus) bool {
	for _, x := range set {
		if x == s {
			return true
		}
	}
	return false
}

func toEstimationItem(e entities.Estimation, revision int64) (estimationItem, error) {
	attrs, err := json.Marshal(e.Attributes)
	if err != nil {
		return estimationItem{}, err
	}
	consent, err := json.Marshal(e.LegalConsent)
	if err != nil {
		return estimationItem{}, err
	}
	var result []byte
	if e.Result != nil {
		if result, err = json.Marshal(e.Result); err != nil {
			return estimationItem{}, err
		}
	}
	it := estimationItem{
		ID:                e.ID,
		ClientID:          e.ClientID,
		Reason:            string(e.Reason),
		Status:            string(e.Status),
		PaymentStatus:     string(e.PaymentStatus),
		PaymentReference:  e.PaymentReference,
		AmountPaid:        e.AmountPaid.String(),
		Currency:          e.Currency,
		Attributes:        string(attrs),
		LegalConsent:      string(consent),
		Result:            string(result),
		RuleVersionID:     e.RuleVersionID,
		RuleVersionNumber: e.RuleVersionNumber,
		ReportLocator:     e.ReportLocator,
		FailureReason:     e.FailureReason,
		Revision:          revision,
		CreatedAt:         formatTime(e.CreatedAt),
		UpdatedAt:         formatTime(e.UpdatedAt),
	}
	if e.PaidAt != nil {
		it.PaidAt = formatTime(*e.PaidAt)
	}
	return it, nil
}

func fromEstimationItem(it estimationItem) (entities.Estimation, error) {
	e := entities.Estimation{
		ID:                it.ID,
		ClientID:          it.ClientID,
		Reason:            entities.Reason(it.Reason),
		Status:            entities.EstimationStatus(it.Status),
		PaymentStatus:     entities.PaymentStatus(it.PaymentStatus),
		PaymentReference:  it.PaymentReference,
		Currency:          it.Currency,
		PaidAt:            parseTimePtr(it.PaidAt),
		RuleVersionID:     it.RuleVersionID,
		RuleVersionNumber: it.RuleVersionNumber,
		ReportLocator:     it.ReportLocator,
		FailureReason:     it.FailureReason,
		CreatedAt:         parseTime(it.CreatedAt),
		UpdatedAt:         parseTime(it.UpdatedAt),
	}
	if it.AmountPaid != "" {
		amount, err := decimal.NewFromString(it.AmountPaid)
		if err != nil {
			return entities.Estimation{}, fmt.Errorf("estimation %s amount_paid: %w", it.ID, err)
		}
		e.AmountPaid = amount
	}
	if it.Attributes != "" {
		if err := json.Unmarshal([]byte(it.Attributes), &e.Attributes); err != nil {
			return entities.Estimation{}, fmt.Errorf("estimation %s attributes: %w", it.ID, err)
		}
	}
	if it.LegalConsent != "" {
		if err := json.Unmarshal([]byte(it.LegalConsent), &e.LegalConsent); err != nil {
			return entities.Estimation{}, fmt.Errorf("estimation %s legal_consent: %w", it.ID, err)
		}
	}
	if it.Result != "" {
		var res entities.ValuationResult
		if err := json.Unmarshal([]byte(it.Result), &res); err != nil {
			return entities.Estimation{}, fmt.Errorf("estimation %s result: %w", it.ID, err)
		}
		e.Result = &res
	}
	return e, nil
}
