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
)

const (
	DefaultRuleVersionsTableName = "rule_versions"
	activePointerID              = "active"
)

var ErrRuleActivationConflict = errors.New("rule version activated concurrently")

type ruleVersionItem struct {
	ID            string `dynamodbav:"id"`
	VersionNumber int    `dynamodbav:"version_number"`
	Description   string `dynamodbav:"description"`
	RuleSet       string `dynamodbav:"rule_set"`
	IsActive      bool   `dynamodbav:"is_active"`
	CreatedBy     string `dynamodbav:"created_by,omitempty"`
	CreatedAt     string `dynamodbav:"created_at"`
}

type activePointerItem struct {
	ID            string `dynamodbav:"id"`
	VersionNumber int    `dynamodbav:"version_number"`
}

// RuleVersionDynamoRepository persists rule versions in DynamoDB.
//
// Table requirements:
//   - PK: id (string): "v<n>" for versions, "active" for the pointer row
//
// Activation is one TransactWriteItems: put the new version (must not exist),
// clear is_active on the previous one and move the pointer, conditioned on the
// pointer still naming the previous version.
type RuleVersionDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IRuleVersionRepository = (*RuleVersionDynamoRepository)(nil)

func NewRuleVersionDynamoRepository(ddb DynamoAPI, tableName string) *RuleVersionDynamoRepository {
	return &RuleVersionDynamoRepository{
		ddb:       ddb,
		tableName: tableOrDefault(tableName, DefaultRuleVersionsTableName),
	}
}

func (r *RuleVersionDynamoRepository) activeNumber(ctx context.Context) (int, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            stringKey("id", activePointerID),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return 0, err
	}
	if len(out.Item) == 0 {
		return 0, nil
	}
	var p activePointerItem
	if err := attributevalue.UnmarshalMap(out.Item, &p); err != nil {
		return 0, err
	}
	return p.VersionNumber, nil
}

func (r *RuleVersionDynamoRepository) GetActive(ctx context.Context) (entities.RuleVersion, error) {
	n, err := r.activeNumber(ctx)
	if err != nil {
		return entities.RuleVersion{}, err
	}
	if n == 0 {
		return entities.RuleVersion{}, nil
	}
	return r.GetByNumber(ctx, n)
}

func (r *RuleVersionDynamoRepository) GetByNumber(ctx context.Context, versionNumber int) (entities.RuleVersion, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		Key:            stringKey("id", entities.RuleVersionID(versionNumber)),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return entities.RuleVersion{}, err
	}
	if len(out.Item) == 0 {
		return entities.RuleVersion{}, nil
	}
	var it ruleVersionItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.RuleVersion{}, err
	}
	return fromRuleVersionItem(it)
}

func (r *RuleVersionDynamoRepository) List(ctx context.Context) ([]entities.RuleVersion, error) {
	var (
		versions []entities.RuleVersion
		start    map[string]types.AttributeValue
	)
	for {
		out, err := r.ddb.Scan(ctx, &dynamodb.ScanInput{
			TableName:        aws.String(r.tableName),
			FilterExpression: aws.String("#id <> :pointer"),
			ExpressionAttributeNames: map[string]string{
				"#id": "id",
			},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pointer": &types.AttributeValueMemberS{Value: activePointerID},
			},
			ConsistentRead:    aws.Bool(true),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return nil, err
		}
		for _, raw := range out.Items {
			var it ruleVersionItem
			if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
				return nil, err
			}
			v, err := fromRuleVersionItem(it)
			if err != nil {
				return nil, err
			}
			versions = append(versions, v)
		}
		if len(out.LastEvaluatedKey) == 0 {
			break
		}
		start = out.LastEvaluatedKey
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].VersionNumber > versions[j].VersionNumber })
	return versions, nil
}

func (r *RuleVersionDynamoRepository) Activate(ctx context.Context, rs entities.RuleSet, description, createdBy string, now time.Time) (entities.RuleVersion, error) {
	cur, err := r.activeNumber(ctx)
	if err != nil {
		return entities.RuleVersion{}, err
	}
	next := cur + 1
	v := entities.RuleVersion{
		ID:            entities.RuleVersionID(next),
		VersionNumber: next,
		Description:   description,
		RuleSet:       rs,
		IsActive:      true,
		CreatedBy:     createdBy,
		CreatedAt:     now.UTC(),
	}
	it, err := toRuleVersionItem(v)
	if err != nil {
		return entities.RuleVersion{}, err
	}
	versionAV, err := attributevalue.MarshalMap(it)
	if err != nil {
		return entities.RuleVersion{}, err
	}
	pointerAV, err := attributevalue.MarshalMap(activePointerItem{ID: activePointerID, VersionNumber: next})
	if err != nil {
		return entities.RuleVersion{}, err
	}

	writes := []types.TransactWriteItem{
		{Put: &types.Put{
			TableName:                aws.String(r.tableName),
			Item:                     versionAV,
			ConditionExpression:      aws.String("attribute_not_exists(#id)"),
			ExpressionAttributeNames: map[string]string{"#id": "id"},
		}},
	}
	pointer := &types.Put{
		TableName:                aws.String(r.tableName),
		Item:                     pointerAV,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": "id"},
	}
	if cur > 0 {
		pointer.ConditionExpression = aws.String("#version_number = :cur")
		pointer.ExpressionAttributeNames = map[string]string{"#version_number": "version_number"}
		pointer.ExpressionAttributeValues = map[string]types.AttributeValue{
			":cur": &types.AttributeValueMemberN{Value: strconv.Itoa(cur)},
		}
		writes = append(writes, types.TransactWriteItem{Update: &types.Update{
			TableName:                 aws.String(r.tableName),
			Key:                       stringKey("id", entities.RuleVersionID(cur)),
			UpdateExpression:          aws.String("SET #is_active = :false"),
			ExpressionAttributeNames:  map[string]string{"#is_active": "is_active"},
			ExpressionAttributeValues: map[string]types.AttributeValue{":false": &types.AttributeValueMemberBOOL{Value: false}},
		}})
	}
	writes = append(writes, types.TransactWriteItem{Put: pointer})

	_, err = r.ddb.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: writes})
	if err != nil {
		var tce *types.TransactionCanceledException
		if errors.As(err, &tce) {
			return entities.RuleVersion{}, fmt.Errorf("%w: %v", ErrRuleActivationConflict, err)
		}
		return entities.RuleVersion{}, err
	}
	return v, nil
}

func toRuleVersionItem(v entities.RuleVersion) (ruleVersionItem, error) {
	rs, err := json.Marshal(v.RuleSet)
	if err != nil {
		return ruleVersionItem{}, err
	}
	return ruleVersionItem{
		ID:            v.ID,
		VersionNumber: v.VersionNumber,
		Description:   v.Description,
		RuleSet:       string(rs),
		IsActive:      v.IsActive,
		CreatedBy:     v.CreatedBy,
		CreatedAt:     formatTime(v.CreatedAt),
	}, nil
}

func fromRuleVersionItem(it ruleVersionItem) (entities.RuleVersion, error) {
	var rs entities.RuleSet
	if err := json.Unmarshal([]byte(it.RuleSet), &rs); err != nil {
		return entities.RuleVersion{}, fmt.Errorf("rule version %s: %w", it.ID, err)
	}
	return entities.RuleVersion{
		ID:            it.ID,
		VersionNumber: it.VersionNumber,
		Description:   it.Description,
		RuleSet:       rs,
		IsActive:      it.IsActive,
		CreatedBy:     it.CreatedBy,
		CreatedAt:     parseTime(it.CreatedAt),
	}, nil
}
