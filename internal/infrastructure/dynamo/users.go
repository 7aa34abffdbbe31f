package dynamo

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spendsmart-api/internal/domain"
)

// UserRepo provides typed DynamoDB operations for the users table.
type UserRepo struct {
	client    API
	tableName string
	now       func() time.Time
}

func NewUserRepo(client API, tableName string) *UserRepo {
	return &UserRepo{client: client, tableName: tableName, now: time.Now}
}

// Usernames and emails are kept unique by guard items stored in the users table next to
// the users themselves. A guard's key embeds the claimed value, so two writers claiming
// the same username or email cannot both succeed.
func usernameGuard(username string) string { return "unique#username#" + username }
func emailGuard(email string) string { return "unique#email#" + email }

func (r *UserRepo) guardPut(key, ownerID string) types.TransactWriteItem {
	return types.TransactWriteItem{Put: &types.Put{
		TableName: aws.String(r.tableName),
		Item: map[string]types.AttributeValue{
			attrUserID:  strVal(key),
			attrOwnerID: strVal(ownerID),
		},
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": attrUserID},
	}}
}

// Put inserts a new user together with its username and email guards in one
// transaction. An existing user_id, username or email is reported as ErrConflict.
func (r *UserRepo) Put(ctx context.Context, u *domain.User) error {
	item, err := attributevalue.MarshalMap(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	_, err = r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Put: &types.Put{
				TableName:                aws.String(r.tableName),
				Item:                     item,
				ConditionExpression:      aws.String("attribute_not_exists(#id)"),
				ExpressionAttributeNames: map[string]string{"#id": attrUserID},
			}},
			r.guardPut(usernameGuard(u.Username), u.UserID),
			r.guardPut(emailGuard(u.Email), u.UserID),
		},
	})
	if err == nil {
		return nil
	}
	switch failedConditionIndex(err) {
	case 0:
		return fmt.Errorf("user already exists: %w", domain.ErrConflict)
	case 1:
		return fmt.Errorf("username is already taken: %w", domain.ErrConflict)
	case 2:
		return fmt.Errorf("email is already registered: %w", domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) Get(ctx context.Context, userID string) (*domain.User, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrUserID, userID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Item, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.queryGSI(ctx, indexUsername, attrUsername, username)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.queryGSI(ctx, indexEmail, attrEmail, email)
}

// Update applies a partial update and stamps updated_at. Missing users are ErrNotFound.
// Changing the email moves its guard in the same transaction, so an address already
// claimed by another account is ErrConflict.
func (r *UserRepo) Update(ctx context.Context, userID string, updates map[string]interface{}) error {
	fields := make(map[string]interface{}, len(updates)+1)
	for k, v := range updates {
		fields[k] = v
	}
	fields[attrUpdatedAt] = r.now().UTC()
	ue, err := buildUpdateExpr(fields)
	if err != nil {
		return err
	}
	ue.Names["#id"] = attrUserID

	if email, ok := updates[attrEmail].(string); ok {
		current, err := r.Get(ctx, userID)
		if err != nil {
			return err
		}
		if current.Email != email {
			return r.updateEmail(ctx, userID, current.Email, email, ue)
		}
	}

	_, err = r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(attrUserID, userID),
		UpdateExpression:          aws.String(ue.Expr),
		ConditionExpression:       aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames:  ue.Names,
		ExpressionAttributeValues: ue.Values,
	})
	if err != nil {
		return notFoundIfConditionFailed(err, "user")
	}
	return nil
}

func (r *UserRepo) updateEmail(ctx context.Context, userID, oldEmail, newEmail string, ue updateExpr) error {
	_, err := r.client.TransactWriteItems(ctx, &dynamodb.TransactWriteItemsInput{
		TransactItems: []types.TransactWriteItem{
			{Update: &types.Update{
				TableName:                 aws.String(r.tableName),
				Key:                       strKey(attrUserID, userID),
				UpdateExpression:          aws.String(ue.Expr),
				ConditionExpression:       aws.String("attribute_exists(#id)"),
				ExpressionAttributeNames:  ue.Names,
				ExpressionAttributeValues: ue.Values,
			}},
			r.guardPut(emailGuard(newEmail), userID),
			{Delete: &types.Delete{
				TableName: aws.String(r.tableName),
				Key:       strKey(attrUserID, emailGuard(oldEmail)),
			}},
		},
	})
	if err == nil {
		return nil
	}
	switch failedConditionIndex(err) {
	case 0:
		return fmt.Errorf("user not found: %w", domain.ErrNotFound)
	case 1:
		return fmt.Errorf("email is already registered: %w", domain.ErrConflict)
	}
	return err
}

func (r *UserRepo) queryGSI(ctx context.Context, index, attr, value string) (*domain.User, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(index),
		KeyConditionExpression:    aws.String("#a = :v"),
		ExpressionAttributeNames:  map[string]string{"#a": attr},
		ExpressionAttributeValues: map[string]types.AttributeValue{":v": strVal(value)},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("user not found: %w", domain.ErrNotFound)
	}
	var u domain.User
	if err := attributevalue.UnmarshalMap(out.Items[0], &u); err != nil {
		return nil, err
	}
	return &u, nil
}
