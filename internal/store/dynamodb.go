package store

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/aws/smithy-go"
	"go.uber.org/zap"

	"github.com/ritu11x/cortex-ai/internal/domain"
	appErrors "github.com/ritu11x/cortex-ai/internal/errors"
)

// Key prefixes of the single-table layout.
const (
	userPrefix         = "USER#"
	itemPrefix         = "ITEM#"
	notificationPrefix = "NOTIF#"

	batchWriteLimit = 25
)

// DynamoDBAPI is the subset of the DynamoDB client the store uses.
type DynamoDBAPI interface {
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	BatchWriteItem(ctx context.Context, params *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// ddbItem is a saved item as stored in the table.
type ddbItem struct {
	PK         string   `dynamodbav:"PK"`
	SK         string   `dynamodbav:"SK"`
	ItemID     string   `dynamodbav:"ItemID"`
	UserID     string   `dynamodbav:"UserID"`
	Title      string   `dynamodbav:"Title"`
	Content    string   `dynamodbav:"Content"`
	URL        string   `dynamodbav:"URL"`
	SourceType string   `dynamodbav:"SourceType"`
	Category   string   `dynamodbav:"Category"`
	Summary    string   `dynamodbav:"Summary"`
	Tags       []string `dynamodbav:"Tags"`
	Pinned     bool     `dynamodbav:"Pinned"`
	CreatedAt  string   `dynamodbav:"CreatedAt"`
}

// ddbNotification is a notification as stored in the table.
type ddbNotification struct {
	PK        string `dynamodbav:"PK"`
	SK        string `dynamodbav:"SK"`
	NotifID   string `dynamodbav:"NotifID"`
	UserID    string `dynamodbav:"UserID"`
	Title     string `dynamodbav:"Title"`
	Message   string `dynamodbav:"Message"`
	Type      string `dynamodbav:"Type"`
	Read      bool   `dynamodbav:"Read"`
	CreatedAt string `dynamodbav:"CreatedAt"`
}

// DynamoDBStore keeps items and notifications in one table keyed by user.
type DynamoDBStore struct {
	client    DynamoDBAPI
	tableName string
	logger    *zap.Logger
	now       func() time.Time
}

// NewDynamoDBStore creates a store over an existing table.
func NewDynamoDBStore(client DynamoDBAPI, tableName string, logger *zap.Logger) *DynamoDBStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DynamoDBStore{
		client:    client,
		tableName: tableName,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func userPK(userID string) string { return userPrefix + userID }

func tableKey(pk, sk string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pk},
		"SK": &types.AttributeValueMemberS{Value: sk},
	}
}

func (s *DynamoDBStore) Create(ctx context.Context, item domain.SavedItem) (domain.SavedItem, error) {
	item, err := prepareItem(item, s.now())
	if err != nil {
		return domain.SavedItem{}, err
	}
	av, err := attributevalue.MarshalMap(toDDBItem(item))
	if err != nil {
		return domain.SavedItem{}, backendError(DriverDynamoDB, "marshal item", err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      av,
	})
	if err != nil {
		return domain.SavedItem{}, backendError(DriverDynamoDB, "put item", err)
	}

	s.logger.Debug("stored item",
		zap.String("user_id", item.UserID),
		zap.String("item_id", item.ID))
	return item, nil
}

func (s *DynamoDBStore) Get(ctx context.Context, userID, id string) (domain.SavedItem, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       tableKey(userPK(userID), itemPrefix+id),
	})
	if err != nil {
		return domain.SavedItem{}, backendError(DriverDynamoDB, "get item", err)
	}
	if result.Item == nil {
		return domain.SavedItem{}, itemNotFound(userID, id)
	}
	var rec ddbItem
	if err := attributevalue.UnmarshalMap(result.Item, &rec); err != nil {
		return domain.SavedItem{}, backendError(DriverDynamoDB, "unmarshal item", err)
	}
	return rec.toDomain(), nil
}

func (s *DynamoDBStore) ListByUser(ctx context.Context, userID string) ([]domain.SavedItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	records, err := s.queryPrefix(ctx, userID, itemPrefix)
	if err != nil {
		return nil, err
	}

	items := make([]domain.SavedItem, 0, len(records))
	for _, av := range records {
		var rec ddbItem
		if err := attributevalue.UnmarshalMap(av, &rec); err != nil {
			s.logger.Warn("skipping unreadable item", zap.String("user_id", userID), zap.Error(err))
			continue
		}
		items = append(items, rec.toDomain())
	}
	sortByCreatedDesc(items)
	return items, nil
}

func (s *DynamoDBStore) Update(ctx context.Context, userID, id string, patch domain.ItemPatch) (domain.SavedItem, error) {
	if err := patch.Validate(); err != nil {
		return domain.SavedItem{}, err
	}
	current, err := s.Get(ctx, userID, id)
	if err != nil {
		return domain.SavedItem{}, err
	}
	next := patch.Apply(current)

	update := expression.Set(expression.Name("Title"), expression.Value(next.Title)).
		Set(expression.Name("Summary"), expression.Value(next.Summary)).
		Set(expression.Name("Tags"), expression.Value(next.Tags)).
		Set(expression.Name("Category"), expression.Value(string(next.Category)))
	return s.updateItem(ctx, userID, id, update)
}

func (s *DynamoDBStore) SetPinned(ctx context.Context, userID, id string, pinned bool) (domain.SavedItem, error) {
	return s.updateItem(ctx, userID, id, expression.Set(expression.Name("Pinned"), expression.Value(pinned)))
}

func (s *DynamoDBStore) updateItem(ctx context.Context, userID, id string, update expression.UpdateBuilder) (domain.SavedItem, error) {
	expr, err := expression.NewBuilder().
		WithUpdate(update).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return domain.SavedItem{}, backendError(DriverDynamoDB, "build update", err)
	}

	result, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       tableKey(userPK(userID), itemPrefix+id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueAllNew,
	})
	if isConditionFailed(err) {
		return domain.SavedItem{}, itemNotFound(userID, id)
	}
	if err != nil {
		return domain.SavedItem{}, backendError(DriverDynamoDB, "update item", err)
	}

	var rec ddbItem
	if err := attributevalue.UnmarshalMap(result.Attributes, &rec); err != nil {
		return domain.SavedItem{}, backendError(DriverDynamoDB, "unmarshal item", err)
	}
	return rec.toDomain(), nil
}

func (s *DynamoDBStore) Delete(ctx context.Context, userID, id string) error {
	return s.deleteExisting(ctx, userPK(userID), itemPrefix+id, itemNotFound(userID, id))
}

// ============================================================================
// NOTIFICATIONS
// ============================================================================

func (s *DynamoDBStore) AddNotification(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	n, err := prepareNotification(n, s.now())
	if err != nil {
		return domain.Notification{}, err
	}
	av, err := attributevalue.MarshalMap(ddbNotification{
		PK:        userPK(n.UserID),
		SK:        notificationPrefix + n.ID,
		NotifID:   n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      string(n.Type),
		Read:      n.Read,
		CreatedAt: n.CreatedAt.Format(time.RFC3339Nano),
	})
	if err != nil {
		return domain.Notification{}, backendError(DriverDynamoDB, "marshal notification", err)
	}
	if _, err := s.client.PutItem(ctx, &dynamodb.PutItemInput{TableName: aws.String(s.tableName), Item: av}); err != nil {
		return domain.Notification{}, backendError(DriverDynamoDB, "put notification", err)
	}
	return n, nil
}

func (s *DynamoDBStore) ListNotifications(ctx context.Context, userID string, limit int) ([]domain.Notification, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	records, err := s.queryPrefix(ctx, userID, notificationPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Notification, 0, len(records))
	for _, av := range records {
		var rec ddbNotification
		if err := attributevalue.UnmarshalMap(av, &rec); err != nil {
			continue
		}
		created, _ := time.Parse(time.RFC3339Nano, rec.CreatedAt)
		out = append(out, domain.Notification{
			ID:        rec.NotifID,
			UserID:    rec.UserID,
			Title:     rec.Title,
			Message:   rec.Message,
			Type:      domain.NotificationType(rec.Type),
			Read:      rec.Read,
			CreatedAt: created.UTC(),
		})
	}
	sortNotifications(out)
	if limit = notificationLimit(limit); len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *DynamoDBStore) MarkRead(ctx context.Context, userID, id string) error {
	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(expression.Name("Read"), expression.Value(true))).
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return backendError(DriverDynamoDB, "build update", err)
	}
	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       tableKey(userPK(userID), notificationPrefix+id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailed(err) {
		return notificationNotFound(userID, id)
	}
	if err != nil {
		return backendError(DriverDynamoDB, "mark read", err)
	}
	return nil
}

func (s *DynamoDBStore) MarkAllRead(ctx context.Context, userID string) error {
	unread, err := s.ListNotifications(ctx, userID, math.MaxInt)
	if err != nil {
		return err
	}
	for _, n := range unread {
		if n.Read {
			continue
		}
		if err := s.MarkRead(ctx, userID, n.ID); err != nil && !appErrors.IsNotFound(err) {
			return err
		}
	}
	return nil
}

func (s *DynamoDBStore) DeleteNotification(ctx context.Context, userID, id string) error {
	return s.deleteExisting(ctx, userPK(userID), notificationPrefix+id, notificationNotFound(userID, id))
}

func (s *DynamoDBStore) ClearNotifications(ctx context.Context, userID string) error {
	records, err := s.queryPrefix(ctx, userID, notificationPrefix)
	if err != nil {
		return err
	}

	requests := make([]types.WriteRequest, 0, len(records))
	for _, av := range records {
		requests = append(requests, types.WriteRequest{
			DeleteRequest: &types.DeleteRequest{Key: map[string]types.AttributeValue{"PK": av["PK"], "SK": av["SK"]}},
		})
	}
	for start := 0; start < len(requests); start += batchWriteLimit {
		end := min(start+batchWriteLimit, len(requests))
		if err := s.batchWrite(ctx, requests[start:end]); err != nil {
			return err
		}
	}
	return nil
}

func (s *DynamoDBStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(s.tableName)})
	if err != nil {
		return backendError(DriverDynamoDB, "describe table", err)
	}
	return nil
}

func (s *DynamoDBStore) Close() error { return nil }

// ============================================================================
// HELPERS
// ============================================================================

func (s *DynamoDBStore) queryPrefix(ctx context.Context, userID, prefix string) ([]map[string]types.AttributeValue, error) {
	keyCond := expression.Key("PK").Equal(expression.Value(userPK(userID))).
		And(expression.Key("SK").BeginsWith(prefix))
	expr, err := expression.NewBuilder().WithKeyCondition(keyCond).Build()
	if err != nil {
		return nil, backendError(DriverDynamoDB, "build query", err)
	}

	paginator := dynamodb.NewQueryPaginator(s.client, &dynamodb.QueryInput{
		TableName:                 aws.String(s.tableName),
		KeyConditionExpression:    expr.KeyCondition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})

	var out []map[string]types.AttributeValue
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, backendError(DriverDynamoDB, "query", err)
		}
		out = append(out, page.Items...)
	}
	return out, nil
}

func (s *DynamoDBStore) deleteExisting(ctx context.Context, pk, sk string, notFound error) error {
	expr, err := expression.NewBuilder().
		WithCondition(expression.AttributeExists(expression.Name("PK"))).
		Build()
	if err != nil {
		return backendError(DriverDynamoDB, "build delete", err)
	}
	_, err = s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       tableKey(pk, sk),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if isConditionFailed(err) {
		return notFound
	}
	if err != nil {
		return backendError(DriverDynamoDB, "delete item", err)
	}
	return nil
}

// batchWrite retries unprocessed requests a few times before giving up.
func (s *DynamoDBStore) batchWrite(ctx context.Context, requests []types.WriteRequest) error {
	pending := map[string][]types.WriteRequest{s.tableName: requests}
	for attempt := 0; attempt < 3 && len(pending[s.tableName]) > 0; attempt++ {
		out, err := s.client.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
		if err != nil {
			return backendError(DriverDynamoDB, "batch write", err)
		}
		pending = out.UnprocessedItems
	}
	if left := len(pending[s.tableName]); left > 0 {
		s.logger.Warn("batch write left unprocessed requests", zap.Int("count", left))
		return appErrors.Connection("STORE_UNAVAILABLE",
			fmt.Sprintf("%s batch write left %d of %d requests unprocessed", DriverDynamoDB, left, len(requests))).
			WithOperation("batch write").
			WithRetryable(true).
			Build()
	}
	return nil
}

func isConditionFailed(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) && apiErr.ErrorCode() == "ConditionalCheckFailedException"
}

func toDDBItem(item domain.SavedItem) ddbItem {
	return ddbItem{
		PK:         userPK(item.UserID),
		SK:         itemPrefix + item.ID,
		ItemID:     item.ID,
		UserID:     item.UserID,
		Title:      item.Title,
		Content:    item.Content,
		URL:        item.URL,
		SourceType: string(item.SourceType),
		Category:   string(item.Category),
		Summary:    item.Summary,
		Tags:       item.Tags,
		Pinned:     item.Pinned,
		CreatedAt:  item.CreatedAt.Format(time.RFC3339Nano),
	}
}

func (r ddbItem) toDomain() domain.SavedItem {
	created, _ := time.Parse(time.RFC3339Nano, r.CreatedAt)
	id := r.ItemID
	if id == "" {
		id = strings.TrimPrefix(r.SK, itemPrefix)
	}
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	return domain.SavedItem{
		ID:         id,
		UserID:     r.UserID,
		Title:      r.Title,
		Content:    r.Content,
		URL:        r.URL,
		SourceType: domain.ParseSourceType(r.SourceType),
		Category:   domain.Category(r.Category),
		Summary:    r.Summary,
		Tags:       tags,
		Pinned:     r.Pinned,
		CreatedAt:  created.UTC(),
	}
}
