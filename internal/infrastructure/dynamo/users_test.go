package dynamo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/spendsmart-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserRepo_Get_Missing(t *testing.T) {
	repo := NewUserRepo(&fakeAPI{}, "users")
	_, err := repo.Get(context.Background(), "u1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_Get_Found(t *testing.T) {
	item, err := attributevalue.MarshalMap(domain.User{UserID: "u1", Username: "alice"})
	require.NoError(t, err)
	api := &fakeAPI{getOut: &dynamodb.GetItemOutput{Item: item}}

	u, err := NewUserRepo(api, "users").Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "alice", u.Username)
	assert.Equal(t, "users", *api.gets[0].TableName)
}

func TestUserRepo_Put_WritesUserAndGuards(t *testing.T) {
	api := &fakeAPI{}
	u := &domain.User{UserID: "u1", Username: "alice", Email: "a@x.com"}
	require.NoError(t, NewUserRepo(api, "users").Put(context.Background(), u))

	require.Len(t, api.transacts, 1)
	items := api.transacts[0].TransactItems
	require.Len(t, items, 3)
	var keys []string
	for _, it := range items {
		require.NotNil(t, it.Put)
		assert.Equal(t, "users", *it.Put.TableName)
		assert.Equal(t, "attribute_not_exists(#id)", *it.Put.ConditionExpression)
		keys = append(keys, it.Put.Item[attrUserID].(*types.AttributeValueMemberS).Value)
	}
	assert.Equal(t, []string{"u1", "unique#username#alice", "unique#email#a@x.com"}, keys)
	assert.Equal(t, "u1", items[2].Put.Item[attrOwnerID].(*types.AttributeValueMemberS).Value)
	assert.Empty(t, api.puts)
}

func TestUserRepo_Put_ClaimedValueIsConflict(t *testing.T) {
	cases := []struct {
		name  string
		index int
		msg   string
	}{
		{"user id", 0, "user already exists"},
		{"username", 1, "username is already taken"},
		{"email", 2, "email is already registered"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			api := &fakeAPI{err: cancelledAt(tc.index, 3)}
			err := NewUserRepo(api, "users").Put(context.Background(), &domain.User{UserID: "u2", Username: "alice", Email: "a@x.com"})
			assert.ErrorIs(t, err, domain.ErrConflict)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestUserRepo_Put_OtherErrorPassesThrough(t *testing.T) {
	boom := errors.New("throttled")
	err := NewUserRepo(&fakeAPI{err: boom}, "users").Put(context.Background(), &domain.User{UserID: "u1"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, domain.ErrConflict)
}

func TestUserRepo_GetByEmail_QueriesIndex(t *testing.T) {
	item, err := attributevalue.MarshalMap(domain.User{UserID: "u1", Email: "a@b.com"})
	require.NoError(t, err)
	api := &fakeAPI{queryOuts: []*dynamodb.QueryOutput{{Items: []map[string]types.AttributeValue{item}}}}

	u, err := NewUserRepo(api, "users").GetByEmail(context.Background(), "a@b.com")
	require.NoError(t, err)
	assert.Equal(t, "u1", u.UserID)
	assert.Equal(t, indexEmail, *api.queries[0].IndexName)
	assert.Equal(t, attrEmail, api.queries[0].ExpressionAttributeNames["#a"])
}

func TestUserRepo_GetByUsername_NoMatch(t *testing.T) {
	_, err := NewUserRepo(&fakeAPI{}, "users").GetByUsername(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_Update_StampsUpdatedAt(t *testing.T) {
	api := &fakeAPI{}
	repo := NewUserRepo(api, "users")
	repo.now = func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) }

	updates := map[string]interface{}{"first_name": "Alice"}
	require.NoError(t, repo.Update(context.Background(), "u1", updates))

	assert.Len(t, updates, 1, "caller's map is not modified")
	in := api.updates[0]
	assert.Equal(t, "SET #f0 = :v0, #f1 = :v1", *in.UpdateExpression)
	assert.Equal(t, "first_name", in.ExpressionAttributeNames["#f0"])
	assert.Equal(t, attrUpdatedAt, in.ExpressionAttributeNames["#f1"])
	assert.Equal(t, "attribute_exists(#id)", *in.ConditionExpression)
}

func TestUserRepo_Update_MissingIsNotFound(t *testing.T) {
	err := NewUserRepo(&fakeAPI{err: conditionFailed()}, "users").
		Update(context.Background(), "u1", map[string]interface{}{"city": "Pune"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_Update_EmailChangeMovesGuard(t *testing.T) {
	item, err := attributevalue.MarshalMap(domain.User{UserID: "u1", Email: "old@x.com"})
	require.NoError(t, err)
	api := &fakeAPI{getOut: &dynamodb.GetItemOutput{Item: item}}

	require.NoError(t, NewUserRepo(api, "users").Update(context.Background(), "u1", map[string]interface{}{attrEmail: "new@x.com"}))

	assert.Empty(t, api.updates)
	require.Len(t, api.transacts, 1)
	items := api.transacts[0].TransactItems
	require.Len(t, items, 3)
	assert.Equal(t, "u1", items[0].Update.Key[attrUserID].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "unique#email#new@x.com", items[1].Put.Item[attrUserID].(*types.AttributeValueMemberS).Value)
	assert.Equal(t, "unique#email#old@x.com", items[2].Delete.Key[attrUserID].(*types.AttributeValueMemberS).Value)
}

func TestUserRepo_UpdateEmail_TakenIsConflict(t *testing.T) {
	// fakeAPI shares one error across calls, so the transaction is exercised directly.
	api := &fakeAPI{err: cancelledAt(1, 3)}
	ue, err := buildUpdateExpr(map[string]interface{}{attrEmail: "taken@x.com"})
	require.NoError(t, err)

	err = NewUserRepo(api, "users").updateEmail(context.Background(), "u1", "old@x.com", "taken@x.com", ue)
	assert.ErrorIs(t, err, domain.ErrConflict)

	api.err = cancelledAt(0, 3)
	err = NewUserRepo(api, "users").updateEmail(context.Background(), "u1", "old@x.com", "taken@x.com", ue)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUserRepo_Update_SameEmailIsPlainUpdate(t *testing.T) {
	item, err := attributevalue.MarshalMap(domain.User{UserID: "u1", Email: "a@x.com"})
	require.NoError(t, err)
	api := &fakeAPI{getOut: &dynamodb.GetItemOutput{Item: item}}

	require.NoError(t, NewUserRepo(api, "users").Update(context.Background(), "u1", map[string]interface{}{attrEmail: "a@x.com"}))
	assert.Len(t, api.updates, 1)
	assert.Empty(t, api.transacts)
}
