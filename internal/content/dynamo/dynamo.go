// Package dynamo stores site collections in a single DynamoDB table.
//
// Table layout: hash key "collection" (S), range key "sk" (S) built as
// "<created, fixed-width UTC>#<id>" so a Query returns records in creation order.
// Record fields are kept as one JSON document in "data".
package dynamo

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"

	"valetsite/internal/content"
)

// API is the slice of the DynamoDB client the store uses.
type API interface {
	Query(ctx context.Context, params *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
}

// skLayout is fixed width so sort keys order lexically by time.
const skLayout = "2006-01-02T15:04:05.000000000Z"

type Store struct {
	api   API
	table string
	now   func() time.Time
}

type item struct {
	Collection string `dynamodbav:"collection"`
	SK         string `dynamodbav:"sk"`
	ID         string `dynamodbav:"id"`
	Created    string `dynamodbav:"created"`
	Updated    string `dynamodbav:"updated"`
	Data       string `dynamodbav:"data"`
}

func New(api API, table string) *Store {
	return &Store{api: api, table: table, now: time.Now}
}

// Open builds a client from the default AWS credential chain.
func Open(ctx context.Context, table, region string) (*Store, error) {
	var opts []func(*config.LoadOptions) error
	if region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return New(dynamodb.NewFromConfig(cfg), table), nil
}

func (s *Store) FetchAll(ctx context.Context, collection string) (content.Result, error) {
	if err := content.ValidCollection(collection); err != nil {
		return content.Result{}, fmt.Errorf("fetch %q: %w", collection, err)
	}

	out := content.Result{Items: []content.Record{}}
	var start map[string]types.AttributeValue
	for {
		res, err := s.api.Query(ctx, &dynamodb.QueryInput{
			TableName:                aws.String(s.table),
			KeyConditionExpression:   aws.String("#c = :c"),
			ExpressionAttributeNames: map[string]string{"#c": "collection"},
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":c": &types.AttributeValueMemberS{Value: collection},
			},
			ScanIndexForward:  aws.Bool(true),
			ExclusiveStartKey: start,
		})
		if err != nil {
			return content.Result{}, fmt.Errorf("dynamodb query %q: %w", collection, err)
		}

		for _, av := range res.Items {
			var it item
			if err := attributevalue.UnmarshalMap(av, &it); err != nil {
				return content.Result{}, fmt.Errorf("unmarshal %q item: %w", collection, err)
			}
			rec, err := it.record()
			if err != nil {
				return content.Result{}, err
			}
			out.Items = append(out.Items, rec)
		}

		if len(res.LastEvaluatedKey) == 0 {
			return out, nil
		}
		start = res.LastEvaluatedKey
	}
}

func (s *Store) Create(ctx context.Context, collection string, payload map[string]any) (content.Record, error) {
	if err := content.ValidCollection(collection); err != nil {
		return content.Record{}, fmt.Errorf("create in %q: %w", collection, err)
	}
	if len(payload) == 0 {
		return content.Record{}, content.ErrEmptyPayload
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return content.Record{}, fmt.Errorf("encode payload: %w", err)
	}

	now := s.now().UTC()
	id := uuid.NewString()
	stamp := now.Format(time.RFC3339Nano)
	it := item{
		Collection: collection,
		SK:         now.Format(skLayout) + "#" + id,
		ID:         id,
		Created:    stamp,
		Updated:    stamp,
		Data:       string(data),
	}

	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return content.Record{}, fmt.Errorf("failed to marshal record: %w", err)
	}

	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.table),
		Item:                av,
		ConditionExpression: aws.String("attribute_not_exists(sk)"),
	})
	if err != nil {
		return content.Record{}, fmt.Errorf("dynamodb put %q: %w", collection, err)
	}

	return it.record()
}

func (it item) record() (content.Record, error) {
	fields := map[string]any{}
	if it.Data != "" {
		if err := json.Unmarshal([]byte(it.Data), &fields); err != nil {
			return content.Record{}, fmt.Errorf("decode record %s: %w", it.ID, err)
		}
	}
	created, _ := time.Parse(time.RFC3339Nano, it.Created)
	updated, _ := time.Parse(time.RFC3339Nano, it.Updated)
	return content.Record{ID: it.ID, Created: created, Updated: updated, Fields: fields}, nil
}
