package dynamo

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spendsmart-api/internal/domain"
)

// categoryItem is the stored form of a category. NameKey backs the
// case-insensitive (name, type) uniqueness lookup.
type categoryItem struct {
	domain.Category
	NameKey string `dynamodbav:"name_key"`
}

// CategoryNameKey is the lookup key for a category name within a type.
func CategoryNameKey(name string, t domain.CategoryType) string {
	return strings.ToLower(strings.TrimSpace(name)) + "#" + string(t)
}

// CategoryRepo provides typed DynamoDB operations for the categories table.
type CategoryRepo struct {
	client    API
	tableName string
}

func NewCategoryRepo(client API, tableName string) *CategoryRepo {
	return &CategoryRepo{client: client, tableName: tableName}
}

// Put inserts a new category. An existing category_id is reported as ErrConflict.
func (r *CategoryRepo) Put(ctx context.Context, c *domain.Category) error {
	item, err := marshalCategory(c)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": attrCategoryID},
	})
	if err != nil {
		return conflictIfConditionFailed(err, "category")
	}
	return nil
}

// Replace overwrites an existing category. Missing categories are ErrNotFound.
func (r *CategoryRepo) Replace(ctx context.Context, c *domain.Category) error {
	item, err := marshalCategory(c)
	if err != nil {
		return err
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": attrCategoryID},
	})
	if err != nil {
		return notFoundIfConditionFailed(err, "category")
	}
	return nil
}

func (r *CategoryRepo) Get(ctx context.Context, categoryID string) (*domain.Category, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrCategoryID, categoryID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("category not found: %w", domain.ErrNotFound)
	}
	var item categoryItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	return &item.Category, nil
}

// List returns every category, or only those of type t when t is non-empty.
func (r *CategoryRepo) List(ctx context.Context, t domain.CategoryType) ([]domain.Category, error) {
	var (
		items []map[string]types.AttributeValue
		err   error
	)
	if t == "" {
		items, err = scanAll(ctx, r.client, &dynamodb.ScanInput{TableName: aws.String(r.tableName)})
	} else {
		items, err = queryAll(ctx, r.client, &dynamodb.QueryInput{
			TableName:                 aws.String(r.tableName),
			IndexName:                 aws.String(indexType),
			KeyConditionExpression:    aws.String("#t = :t"),
			ExpressionAttributeNames:  map[string]string{"#t": attrType},
			ExpressionAttributeValues: map[string]types.AttributeValue{":t": strVal(string(t))},
		})
	}
	if err != nil {
		return nil, err
	}
	return unmarshalCategories(items)
}

// FindByName looks a category up by case-insensitive name within a type.
func (r *CategoryRepo) FindByName(ctx context.Context, name string, t domain.CategoryType) (*domain.Category, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexNameKey),
		KeyConditionExpression:    aws.String("#k = :k"),
		ExpressionAttributeNames:  map[string]string{"#k": attrNameKey},
		ExpressionAttributeValues: map[string]types.AttributeValue{":k": strVal(CategoryNameKey(name, t))},
		Limit:                     aws.Int32(1),
	})
	if err != nil {
		return nil, err
	}
	if len(out.Items) == 0 {
		return nil, fmt.Errorf("category %q not found: %w", name, domain.ErrNotFound)
	}
	var item categoryItem
	if err := attributevalue.UnmarshalMap(out.Items[0], &item); err != nil {
		return nil, err
	}
	return &item.Category, nil
}

func (r *CategoryRepo) Delete(ctx context.Context, categoryID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                aws.String(r.tableName),
		Key:                      strKey(attrCategoryID, categoryID),
		ConditionExpression:      aws.String("attribute_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": attrCategoryID},
	})
	if err != nil {
		return notFoundIfConditionFailed(err, "category")
	}
	return nil
}

func marshalCategory(c *domain.Category) (map[string]types.AttributeValue, error) {
	item, err := attributevalue.MarshalMap(categoryItem{Category: *c, NameKey: CategoryNameKey(c.Name, c.Type)})
	if err != nil {
		return nil, fmt.Errorf("marshal category: %w", err)
	}
	return item, nil
}

func unmarshalCategories(items []map[string]types.AttributeValue) ([]domain.Category, error) {
	var stored []categoryItem
	if err := attributevalue.UnmarshalListOfMaps(items, &stored); err != nil {
		return nil, err
	}
	out := make([]domain.Category, len(stored))
	for i := range stored {
		out[i] = stored[i].Category
	}
	return out, nil
}
