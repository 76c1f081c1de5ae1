package store

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
	"github.com/ritu11x/cortex-ai/internal/testutil/fixtures"
)

type mockDynamoDB struct {
	mock.Mock
}

func (m *mockDynamoDB) GetItem(ctx context.Context, in *dynamodb.GetItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.GetItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamoDB) PutItem(ctx context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.PutItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamoDB) UpdateItem(ctx context.Context, in *dynamodb.UpdateItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.UpdateItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamoDB) DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DeleteItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamoDB) Query(ctx context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.QueryOutput)
	return out, args.Error(1)
}

func (m *mockDynamoDB) BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.BatchWriteItemOutput)
	return out, args.Error(1)
}

func (m *mockDynamoDB) DescribeTable(ctx context.Context, in *dynamodb.DescribeTableInput, _ ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error) {
	args := m.Called(ctx, in)
	out, _ := args.Get(0).(*dynamodb.DescribeTableOutput)
	return out, args.Error(1)
}

func marshalItem(t *testing.T, item domain.SavedItem) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(toDDBItem(item))
	require.NoError(t, err)
	return av
}

func conditionFailed() error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
}

func TestDynamoDBStore_Create(t *testing.T) {
	// Arrange
	client := new(mockDynamoDB)
	s := NewDynamoDBStore(client, "cortex", zaptest.NewLogger(t))
	var put *dynamodb.PutItemInput
	client.On("PutItem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { put = args.Get(1).(*dynamodb.PutItemInput) }).
		Return(&dynamodb.PutItemOutput{}, nil)

	// Act
	created, err := s.Create(context.Background(), fixtures.NewItemBuilder().WithID("abc").WithUserID("u1").Build())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "abc", created.ID)
	assert.Equal(t, "cortex", aws.ToString(put.TableName))
	assert.Equal(t, &types.AttributeValueMemberS{Value: "USER#u1"}, put.Item["PK"])
	assert.Equal(t, &types.AttributeValueMemberS{Value: "ITEM#abc"}, put.Item["SK"])
	client.AssertExpectations(t)
}

func TestDynamoDBStore_Get(t *testing.T) {
	t.Run("Should decode the stored item", func(t *testing.T) {
		client := new(mockDynamoDB)
		s := NewDynamoDBStore(client, "cortex", nil)
		want := fixtures.NewItemBuilder().WithID("abc").WithUserID("u1").WithTags("x", "y").Build()
		client.On("GetItem", mock.Anything, mock.Anything).
			Return(&dynamodb.GetItemOutput{Item: marshalItem(t, want)}, nil)

		got, err := s.Get(context.Background(), "u1", "abc")

		require.NoError(t, err)
		assert.Equal(t, want.ID, got.ID)
		assert.Equal(t, want.Tags, got.Tags)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	})

	t.Run("Should report a missing item as not found", func(t *testing.T) {
		client := new(mockDynamoDB)
		s := NewDynamoDBStore(client, "cortex", nil)
		client.On("GetItem", mock.Anything, mock.Anything).Return(&dynamodb.GetItemOutput{}, nil)

		_, err := s.Get(context.Background(), "u1", "nope")

		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("Should map transport failures to connection errors", func(t *testing.T) {
		client := new(mockDynamoDB)
		s := NewDynamoDBStore(client, "cortex", nil)
		client.On("GetItem", mock.Anything, mock.Anything).Return(nil, errors.New("dial tcp: timeout"))

		_, err := s.Get(context.Background(), "u1", "abc")

		assert.True(t, appErrors.IsConnection(err))
	})
}

func TestDynamoDBStore_ListByUser(t *testing.T) {
	client := new(mockDynamoDB)
	s := NewDynamoDBStore(client, "cortex", nil)
	items := fixtures.Items(3)
	client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{
		Items: []map[string]types.AttributeValue{
			marshalItem(t, items[2]),
			marshalItem(t, items[0]),
			marshalItem(t, items[1]),
		},
	}, nil).Once()

	got, err := s.ListByUser(context.Background(), "test-user-123")

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, []string{"item-000", "item-001", "item-002"}, []string{got[0].ID, got[1].ID, got[2].ID})
	client.AssertNumberOfCalls(t, "Query", 1)
}

func TestDynamoDBStore_ConditionalWrites(t *testing.T) {
	t.Run("Should map a failed delete condition to not found", func(t *testing.T) {
		client := new(mockDynamoDB)
		s := NewDynamoDBStore(client, "cortex", nil)
		client.On("DeleteItem", mock.Anything, mock.Anything).Return(nil, conditionFailed())

		err := s.Delete(context.Background(), "u1", "gone")

		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("Should map a failed pin condition to not found", func(t *testing.T) {
		client := new(mockDynamoDB)
		s := NewDynamoDBStore(client, "cortex", nil)
		client.On("UpdateItem", mock.Anything, mock.Anything).Return(nil, conditionFailed())

		_, err := s.SetPinned(context.Background(), "u1", "gone", true)

		assert.True(t, appErrors.IsNotFound(err))
	})

	t.Run("Should return the updated item", func(t *testing.T) {
		client := new(mockDynamoDB)
		s := NewDynamoDBStore(client, "cortex", nil)
		item := fixtures.NewItemBuilder().WithID("abc").WithUserID("u1").Pinned().Build()
		var in *dynamodb.UpdateItemInput
		client.On("UpdateItem", mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) { in = args.Get(1).(*dynamodb.UpdateItemInput) }).
			Return(&dynamodb.UpdateItemOutput{Attributes: marshalItem(t, item)}, nil)

		got, err := s.SetPinned(context.Background(), "u1", "abc", true)

		require.NoError(t, err)
		assert.True(t, got.Pinned)
		assert.Equal(t, types.ReturnValueAllNew, in.ReturnValues)
		assert.Contains(t, aws.ToString(in.ConditionExpression), "attribute_exists")
	})
}

func TestDynamoDBStore_ClearNotificationsBatches(t *testing.T) {
	client := new(mockDynamoDB)
	s := NewDynamoDBStore(client, "cortex", nil)
	records := make([]map[string]types.AttributeValue, 30)
	for i := range records {
		records[i] = map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: "USER#u1"},
			"SK": &types.AttributeValueMemberS{Value: "NOTIF#" + string(rune('a'+i))},
		}
	}
	client.On("Query", mock.Anything, mock.Anything).Return(&dynamodb.QueryOutput{Items: records}, nil)
	var sizes []int
	client.On("BatchWriteItem", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			in := args.Get(1).(*dynamodb.BatchWriteItemInput)
			sizes = append(sizes, len(in.RequestItems["cortex"]))
		}).
		Return(&dynamodb.BatchWriteItemOutput{}, nil)

	require.NoError(t, s.ClearNotifications(context.Background(), "u1"))

	assert.Equal(t, []int{25, 5}, sizes)
}

func TestDynamoDBStore_ClearNotificationsReportsUnprocessed(t *testing.T) {
	client := new(mockDynamoDB)
	s := NewDynamoDBStore(client, "cortex", zaptest.NewLogger(t))
	key := map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: "USER#u1"},
		"SK": &types.AttributeValueMemberS{Value: "NOTIF#a"},
	}
	client.On("Query", mock.Anything, mock.Anything).
		Return(&dynamodb.QueryOutput{Items: []map[string]types.AttributeValue{key}}, nil)
	stuck := map[string][]types.WriteRequest{
		"cortex": {{DeleteRequest: &types.DeleteRequest{Key: key}}},
	}
	client.On("BatchWriteItem", mock.Anything, mock.Anything).
		Return(&dynamodb.BatchWriteItemOutput{UnprocessedItems: stuck}, nil)

	err := s.ClearNotifications(context.Background(), "u1")

	require.Error(t, err)
	assert.True(t, appErrors.IsConnection(err))
	assert.True(t, appErrors.IsRetryable(err))
	client.AssertNumberOfCalls(t, "BatchWriteItem", 3)
}
