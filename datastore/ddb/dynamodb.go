/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/entityfile/codec"
	"github.com/suparena/entityfile/errors"
	"github.com/suparena/entityfile/storagemodels"
)

// API is the subset of the DynamoDB client used by Store. *dynamodb.Client satisfies it.
type API interface {
	GetItem(ctx context.Context, params *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, params *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	Scan(ctx context.Context, params *sdk.ScanInput, optFns ...func(*sdk.Options)) (*sdk.ScanOutput, error)
	BatchWriteItem(ctx context.Context, params *sdk.BatchWriteItemInput, optFns ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error)
}

// DefaultKeyTemplate derives the table keys from a record: PK is the type tag, SK the identity.
// The stored PK is additionally prefixed with the snapshot generation.
var DefaultKeyTemplate = map[string]string{
	"PK": "{__class__}",
	"SK": "{id}",
}

// The pointer item names, in its Current attribute, the generation that Load
// reads. Entity items carry their own generation in Generation.
const (
	pointerPK      = "#SNAPSHOT"
	pointerSK      = "#CURRENT"
	attrGeneration = "Generation"
	attrCurrent    = "Current"
)

// item is the stored form of one record. Body holds the record JSON so that
// the int/float distinction survives DynamoDB's number normalisation.
type item struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Generation string `dynamodbav:"Generation"`
	Key        string `dynamodbav:"Key"`
	EntityType string `dynamodbav:"EntityType"`
	Body       string `dynamodbav:"Body"`
}

type itemKey struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Generation string `dynamodbav:"Generation"`
}

// pointer is the single item that commits a generation.
type pointer struct {
	PK         string `dynamodbav:"PK"`
	SK         string `dynamodbav:"SK"`
	Generation string `dynamodbav:"Current"`
	Items      int    `dynamodbav:"Items"`
	SavedAt    string `dynamodbav:"SavedAt"`
}

// Store implements datastore.SnapshotStore using a DynamoDB table that holds
// one item per entity. Each Save writes a new generation of items and then
// commits it by flipping a pointer item, so Load never sees a partial save.
type Store struct {
	client      API
	tableName   string
	keyTemplate map[string]string
	options     storagemodels.StoreOptions
	logger      *zap.Logger
}

var macroPattern = regexp.MustCompile(`{([^}]+)}`)

// expandMacros fills each template with the record's attribute values, e.g. "{id}".
func expandMacros(template map[string]string, rec codec.Record) map[string]string {
	res := make(map[string]string, len(template))
	for field, tpl := range template {
		res[field] = macroPattern.ReplaceAllStringFunc(tpl, func(macro string) string {
			val, ok := rec[strings.Trim(macro, "{}")]
			if !ok || val == nil {
				return ""
			}
			return fmt.Sprint(val)
		})
	}
	return res
}

// ClientConfig holds the connection settings for NewClient.
type ClientConfig struct {
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// NewClient initializes a DynamoDB client. Static credentials are used when
// AccessKey is set, the default AWS credential chain otherwise. Endpoint points
// the client at DynamoDB Local or another compatible service.
func NewClient(ctx context.Context, cfg ClientConfig) (*sdk.Client, error) {
	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return sdk.NewFromConfig(awsCfg, func(o *sdk.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// New constructs a Store for tableName.
func New(client API, tableName string, opts ...storagemodels.StoreOption) *Store {
	return &Store{
		client:      client,
		tableName:   tableName,
		keyTemplate: DefaultKeyTemplate,
		options:     storagemodels.Apply(opts...),
		logger:      zap.NewNop(),
	}
}

// WithKeyTemplate overrides the PK/SK templates. Both keys must be present.
func (d *Store) WithKeyTemplate(tpl map[string]string) *Store {
	d.keyTemplate = tpl
	return d
}

// WithLogger sets the logger used for cleanup failures that do not fail a Save.
func (d *Store) WithLogger(logger *zap.Logger) *Store {
	d.logger = logger
	return d
}

// Describe implements datastore.SnapshotStore.
func (d *Store) Describe() string {
	return "dynamodb:" + d.tableName
}

// Load reads the committed generation and rebuilds the document from its items.
// A table without a committed generation is reported as NotFound.
func (d *Store) Load(ctx context.Context) (codec.Document, error) {
	ptr, err := d.currentPointer(ctx)
	if err != nil {
		return nil, err
	}
	if ptr == nil {
		return nil, errors.NewNotFoundError("snapshot", d.Describe())
	}

	filter, err := generationFilter(ptr.Generation)
	if err != nil {
		return nil, err
	}

	doc := make(codec.Document, ptr.Items)
	err = d.scan(ctx, filter, func(raw map[string]types.AttributeValue) error {
		var it item
		if err := attributevalue.UnmarshalMap(raw, &it); err != nil {
			return errors.NewCorruptDocumentError(d.Describe(), "undecodable item", err)
		}
		if it.Key == "" {
			return errors.NewCorruptDocumentError(d.Describe(), fmt.Sprintf("item %s/%s has no Key", it.PK, it.SK), nil)
		}
		rec, err := codec.UnmarshalRecord(d.Describe(), it.Key, []byte(it.Body))
		if err != nil {
			return err
		}
		doc[it.Key] = rec
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(doc) != ptr.Items {
		return nil, errors.NewCorruptDocumentError(d.Describe(),
			fmt.Sprintf("generation %s has %d items, pointer records %d", ptr.Generation, len(doc), ptr.Items), nil)
	}
	return doc, nil
}

// Save writes doc as a new generation, commits it, and then removes the items
// of every other generation. A failure before the commit leaves the previous
// snapshot in place; its stray items are removed by the next successful Save.
func (d *Store) Save(ctx context.Context, doc codec.Document) error {
	progress := storagemodels.SaveProgress{StartTime: time.Now()}

	prev, err := d.currentPointer(ctx)
	if err != nil {
		return err
	}
	gen := uuid.New().String()

	keys := make([]string, 0, len(doc))
	for key := range doc {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	requests := make([]types.WriteRequest, 0, len(doc))
	for _, key := range keys {
		av, err := d.encodeItem(gen, key, doc[key])
		if err != nil {
			return err
		}
		requests = append(requests, types.WriteRequest{PutRequest: &types.PutRequest{Item: av}})
	}
	if err := d.writeBatches(ctx, requests, &progress); err != nil {
		return err
	}

	if err := d.commit(ctx, prev, gen, len(doc)); err != nil {
		return err
	}

	if err := d.collect(ctx, gen, &progress); err != nil {
		d.logger.Warn("failed to remove superseded snapshot items",
			zap.String("table", d.tableName),
			zap.String("generation", gen),
			zap.Error(err))
	}
	return nil
}

func (d *Store) pointerKey() map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: pointerPK},
		"SK": &types.AttributeValueMemberS{Value: pointerSK},
	}
}

// currentPointer returns the committed pointer, nil when nothing was committed yet.
func (d *Store) currentPointer(ctx context.Context) (*pointer, error) {
	var out *sdk.GetItemOutput
	err := d.withRetry(ctx, "pointer read", func() error {
		var err error
		out, err = d.client.GetItem(ctx, &sdk.GetItemInput{
			TableName:      aws.String(d.tableName),
			Key:            d.pointerKey(),
			ConsistentRead: aws.Bool(true),
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	if len(out.Item) == 0 {
		return nil, nil
	}

	var ptr pointer
	if err := attributevalue.UnmarshalMap(out.Item, &ptr); err != nil {
		return nil, errors.NewCorruptDocumentError(d.Describe(), "undecodable snapshot pointer", err)
	}
	if ptr.Generation == "" {
		return nil, errors.NewCorruptDocumentError(d.Describe(), "snapshot pointer has no generation", nil)
	}
	return &ptr, nil
}

// commit flips the pointer to gen, provided it still names prev.
func (d *Store) commit(ctx context.Context, prev *pointer, gen string, items int) error {
	cond := expression.AttributeNotExists(expression.Name("PK"))
	if prev != nil {
		cond = expression.Name(attrCurrent).Equal(expression.Value(prev.Generation))
	}
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("failed to build commit condition: %w", err)
	}

	av, err := attributevalue.MarshalMap(pointer{
		PK:         pointerPK,
		SK:         pointerSK,
		Generation: gen,
		Items:      items,
		SavedAt:    time.Now().UTC().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot pointer: %w", err)
	}

	err = d.withRetry(ctx, "commit", func() error {
		_, err := d.client.PutItem(ctx, &sdk.PutItemInput{
			TableName:                 aws.String(d.tableName),
			Item:                      av,
			ConditionExpression:       expr.Condition(),
			ExpressionAttributeNames:  expr.Names(),
			ExpressionAttributeValues: expr.Values(),
		})
		return err
	})
	var ccf *types.ConditionalCheckFailedException
	if stderrors.As(err, &ccf) {
		return fmt.Errorf("snapshot in %s was replaced by another writer: %w", d.tableName, err)
	}
	return err
}

// collect deletes every item that belongs to a generation other than gen.
func (d *Store) collect(ctx context.Context, gen string, progress *storagemodels.SaveProgress) error {
	projection, err := keyProjection()
	if err != nil {
		return err
	}

	var requests []types.WriteRequest
	err = d.scan(ctx, projection, func(raw map[string]types.AttributeValue) error {
		var k itemKey
		if err := attributevalue.UnmarshalMap(raw, &k); err != nil {
			return fmt.Errorf("failed to unmarshal item key: %w", err)
		}
		if k.Generation == gen || (k.PK == pointerPK && k.SK == pointerSK) {
			return nil
		}
		key := map[string]types.AttributeValue{"PK": raw["PK"], "SK": raw["SK"]}
		requests = append(requests, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
		return nil
	})
	if err != nil {
		return err
	}
	return d.writeBatches(ctx, requests, progress)
}

func (d *Store) encodeItem(gen, key string, rec codec.Record) (map[string]types.AttributeValue, error) {
	expanded := expandMacros(d.keyTemplate, rec)
	pk, sk := expanded["PK"], expanded["SK"]
	if pk == "" || sk == "" {
		return nil, errors.NewValidationError("key", fmt.Sprintf("record %q expands to an empty PK or SK", key))
	}

	body, err := codec.MarshalRecord(rec)
	if err != nil {
		return nil, err
	}
	entityType, _ := rec["__class__"].(string)

	av, err := attributevalue.MarshalMap(item{
		PK:         "GEN#" + gen + "#" + pk,
		SK:         sk,
		Generation: gen,
		Key:        key,
		EntityType: entityType,
		Body:       string(body),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal item %q: %w", key, err)
	}
	return av, nil
}
