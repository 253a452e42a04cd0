package repository

import (
	"context"

	"juragites_estimation/internal/domain/entities"
	"juragites_estimation/internal/usecase/interfaces"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
)

const DefaultProfilesTableName = "client_profiles"

type clientProfileItem struct {
	ID        string `dynamodbav:"id"`
	Email     string `dynamodbav:"email"`
	FullName  string `dynamodbav:"full_name"`
	CreatedAt string `dynamodbav:"created_at"`
}

// ClientProfileDynamoRepository reads the profiles written by the identity provider sync.
//
// Table requirements:
//   - PK: id (string)
type ClientProfileDynamoRepository struct {
	ddb       DynamoAPI
	tableName string
}

var _ interfaces.IClientProfileRepository = (*ClientProfileDynamoRepository)(nil)

func NewClientProfileDynamoRepository(ddb DynamoAPI, tableName string) *ClientProfileDynamoRepository {
	return &ClientProfileDynamoRepository{
		ddb:       ddb,
		tableName: tableOrDefault(tableName, DefaultProfilesTableName),
	}
}

func (r *ClientProfileDynamoRepository) GetByID(ctx context.Context, id string) (entities.ClientProfile, error) {
	out, err := r.ddb.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       stringKey("id", id),
	})
	if err != nil {
		return entities.ClientProfile{}, err
	}
	if len(out.Item) == 0 {
		return entities.ClientProfile{}, nil
	}
	var it clientProfileItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return entities.ClientProfile{}, err
	}
	return entities.ClientProfile{
		ID:        it.ID,
		Email:     it.Email,
		FullName:  it.FullName,
		CreatedAt: parseTime(it.CreatedAt),
	}, nil
}
