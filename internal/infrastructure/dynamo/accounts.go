package dynamo

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/robit-auth/internal/domain"
)

// AccountRepo provides typed DynamoDB operations for the accounts table.
// Username and email uniqueness is enforced with marker rows in a second
// table written in the same transaction as the account.
type AccountRepo struct {
	client      *dynamodb.Client
	tableName   string
	uniqueTable string
}

func NewAccountRepo(client *dynamodb.Client, tableName, uniqueTable string) *AccountRepo {
	return &AccountRepo{client: client, tableName: tableName, uniqueTable: uniqueTable}
}

// Create stores a new account. It fails with domain.ErrConflict when the
// id, username or email is already taken.
func (r *AccountRepo) Create(ctx context.Context, a *domain.Account) error {
	item, err := attributevalue.MarshalMap(a)
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#k)"),
				ExpressionAttributeNames: map[string]string{"#k": attrAccountID},
			}},
			r.reserve(attrUsername, a.Username, a.AccountID),
			r.reserve(attrEmail, a.Email, a.AccountID),
		},
	})
	if err != nil {
		if isConditionFailure(err) {
			return fmt.Errorf("account %q or %q already exists: %w", a.Username, a.Email, domain.ErrConflict)
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *AccountRepo) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.queryGSI(ctx, indexUsername, attrUsername, username)
}

func (r *AccountRepo) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.queryGSI(ctx, indexEmail, attrEmail, email)
}

func (r *AccountRepo) reserve(attr, value, accountID string) types.TransactWriteItem {
	item := strKey(attrUniqueKey, uniqueMarker(attr, value))
	item[attrAccountID] = &types.AttributeValueMemberS{Value: accountID}
	return types.TransactWriteItem{Put: &types.Put{
		TableName:                aws.String(r.uniqueTable),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#k)"),
		ExpressionAttributeNames: map[string]string{"#k": attrUniqueKey},
	}}
}

func (r *AccountRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.Account, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": &types.AttributeValueMemberS{Value: value}},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", index, err)
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("account not found: %w", domain.ErrNotFound)
	}
	var a domain.Account
	if err := attributevalue.UnmarshalMap(out.Items[0], &a); err != nil {
		return nil, fmt.Errorf("unmarshal account: %w", err)
	}
	return &a, nil
}
