package dynamo

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/shopspring/decimal"
	"github.com/spendsmart-api/internal/domain"
)

// transactionItem is the stored form of a transaction. Amounts are kept as
// decimal strings and dates as YYYY-MM-DD so the date range key sorts lexically.
type transactionItem struct {
	TransactionID string    `dynamodbav:"transaction_id"`
	UserID        string    `dynamodbav:"user_id"`
	CategoryID    string    `dynamodbav:"category_id"`
	Type          string    `dynamodbav:"type"`
	Amount        string    `dynamodbav:"amount"`
	Date          string    `dynamodbav:"date"`
	Description   string    `dynamodbav:"description"`
	CreatedAt     time.Time `dynamodbav:"created_at"`
	UpdatedAt     time.Time `dynamodbav:"updated_at"`
}

func toTransactionItem(t *domain.Transaction) transactionItem {
	return transactionItem{
		TransactionID: t.TransactionID,
		UserID:        t.UserID,
		CategoryID:    t.CategoryID,
		Type:          string(t.Type),
		Amount:        t.Amount.StringFixed(2),
		Date:          t.Date.Format(domain.DateLayout),
		Description:   t.Description,
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func (it transactionItem) toDomain() (domain.Transaction, error) {
	amount, err := decimal.NewFromString(it.Amount)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s amount: %w", it.TransactionID, err)
	}
	date, err := domain.ParseDate(it.Date)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("transaction %s date: %w", it.TransactionID, err)
	}
	return domain.Transaction{
		TransactionID: it.TransactionID,
		UserID:        it.UserID,
		CategoryID:    it.CategoryID,
		Type:          domain.TransactionType(it.Type),
		Amount:        amount,
		Date:          date,
		Description:   it.Description,
		CreatedAt:     it.CreatedAt,
		UpdatedAt:     it.UpdatedAt,
	}, nil
}

// TransactionRepo provides typed DynamoDB operations for the transactions table.
type TransactionRepo struct {
	client    API
	tableName string
}

func NewTransactionRepo(client API, tableName string) *TransactionRepo {
	return &TransactionRepo{client: client, tableName: tableName}
}

func (r *TransactionRepo) Put(ctx context.Context, t *domain.Transaction) error {
	item, err := attributevalue.MarshalMap(toTransactionItem(t))
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.tableName),
		Item:                     item,
		ConditionExpression:      aws.String("attribute_not_exists(#id)"),
		ExpressionAttributeNames: map[string]string{"#id": attrTransactionID},
	})
	if err != nil {
		return conflictIfConditionFailed(err, "transaction")
	}
	return nil
}

// Replace overwrites a transaction owned by t.UserID. Anything else is ErrNotFound.
func (r *TransactionRepo) Replace(ctx context.Context, t *domain.Transaction) error {
	item, err := attributevalue.MarshalMap(toTransactionItem(t))
	if err != nil {
		return fmt.Errorf("marshal transaction: %w", err)
	}
	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                 aws.String(r.tableName),
		Item:                      item,
		ConditionExpression:       aws.String("#u = :u"),
		ExpressionAttributeNames:  map[string]string{"#u": attrUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(t.UserID)},
	})
	if err != nil {
		return notFoundIfConditionFailed(err, "transaction")
	}
	return nil
}

func (r *TransactionRepo) Get(ctx context.Context, transactionID string) (*domain.Transaction, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey(attrTransactionID, transactionID),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("transaction not found: %w", domain.ErrNotFound)
	}
	var item transactionItem
	if err := attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, err
	}
	t, err := item.toDomain()
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Delete removes a transaction owned by userID.
func (r *TransactionRepo) Delete(ctx context.Context, userID, transactionID string) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(r.tableName),
		Key:                       strKey(attrTransactionID, transactionID),
		ConditionExpression:       aws.String("#u = :u"),
		ExpressionAttributeNames:  map[string]string{"#u": attrUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(userID)},
	})
	if err != nil {
		return notFoundIfConditionFailed(err, "transaction")
	}
	return nil
}

// List returns a user's transactions matching f, newest date first and
// newest creation first within a day.
func (r *TransactionRepo) List(ctx context.Context, userID string, f domain.TransactionFilter) ([]domain.Transaction, error) {
	in := &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexUserDate),
		ScanIndexForward:          aws.Bool(false),
		ExpressionAttributeNames:  map[string]string{"#u": attrUserID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":u": strVal(userID)},
	}

	keyCond := "#u = :u"
	switch {
	case f.Start != nil && f.End != nil:
		keyCond += " AND #d BETWEEN :start AND :end"
	case f.Start != nil:
		keyCond += " AND #d >= :start"
	case f.End != nil:
		keyCond += " AND #d <= :end"
	}
	if f.Start != nil || f.End != nil {
		in.ExpressionAttributeNames["#d"] = attrDate
	}
	if f.Start != nil {
		in.ExpressionAttributeValues[":start"] = strVal(f.Start.Format(domain.DateLayout))
	}
	if f.End != nil {
		in.ExpressionAttributeValues[":end"] = strVal(f.End.Format(domain.DateLayout))
	}
	in.KeyConditionExpression = aws.String(keyCond)

	var filters []string
	if f.Type != "" {
		filters = append(filters, "#t = :t")
		in.ExpressionAttributeNames["#t"] = attrType
		in.ExpressionAttributeValues[":t"] = strVal(string(f.Type))
	}
	if f.CategoryID != "" {
		filters = append(filters, "#c = :c")
		in.ExpressionAttributeNames["#c"] = attrCategoryID
		in.ExpressionAttributeValues[":c"] = strVal(f.CategoryID)
	}
	if len(filters) > 0 {
		in.FilterExpression = aws.String(strings.Join(filters, " AND "))
	}

	items, err := queryAll(ctx, r.client, in)
	if err != nil {
		return nil, err
	}
	var stored []transactionItem
	if err := attributevalue.UnmarshalListOfMaps(items, &stored); err != nil {
		return nil, err
	}
	txs := make([]domain.Transaction, 0, len(stored))
	for _, it := range stored {
		t, err := it.toDomain()
		if err != nil {
			return nil, err
		}
		txs = append(txs, t)
	}
	slices.SortStableFunc(txs, func(a, b domain.Transaction) int {
		if c := b.Date.Compare(a.Date); c != 0 {
			return c
		}
		return cmp.Compare(b.CreatedAt.UnixNano(), a.CreatedAt.UnixNano())
	})
	return txs, nil
}

// HasCategory reports whether any transaction references categoryID.
func (r *TransactionRepo) HasCategory(ctx context.Context, categoryID string) (bool, error) {
	out, err := r.client.Query(ctx, &dynamodb.QueryInput{
		TableName:                 aws.String(r.tableName),
		IndexName:                 aws.String(indexCategoryRef),
		KeyConditionExpression:    aws.String("#c = :c"),
		ExpressionAttributeNames:  map[string]string{"#c": attrCategoryID},
		ExpressionAttributeValues: map[string]types.AttributeValue{":c": strVal(categoryID)},
		Limit:                     aws.Int32(1),
		Select:                    types.SelectCount,
	})
	if err != nil {
		return false, err
	}
	return out.Count > 0, nil
}
