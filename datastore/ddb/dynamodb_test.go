/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/suparena/entityfile/codec"
	"github.com/suparena/entityfile/errors"
	"github.com/suparena/entityfile/model"
	"github.com/suparena/entityfile/registry"
	"github.com/suparena/entityfile/storagemodels"
)

// fakeDynamo is an in-memory stand-in for a single DynamoDB table keyed by PK/SK.
// It understands the projection, equality filter and conditions the store builds.
type fakeDynamo struct {
	mu    sync.Mutex
	items map[string]map[string]types.AttributeValue

	scanErrors      []error
	batchErrors     []error // a nil entry lets that call through
	putErrors       []error
	beforePut       func()
	unprocessedOnce bool
	batchCalls      int
	batchSizes      []int
}

var (
	equalPattern     = regexp.MustCompile(`^\(?\s*(#\w+)\s*=\s*(:\w+)\s*\)?$`)
	notExistsPattern = regexp.MustCompile(`^\(?\s*attribute_not_exists\s*\(\s*(#\w+)\s*\)\s*\)?$`)
)

func newFakeDynamo() *fakeDynamo {
	return &fakeDynamo{items: make(map[string]map[string]types.AttributeValue)}
}

func itemID(av map[string]types.AttributeValue) string {
	pk := av["PK"].(*types.AttributeValueMemberS).Value
	sk := av["SK"].(*types.AttributeValueMemberS).Value
	return pk + "\x00" + sk
}

// eval evaluates expr against it; a nil item has no attributes.
func eval(expr string, names map[string]string, values map[string]types.AttributeValue, it map[string]types.AttributeValue) (bool, error) {
	if m := equalPattern.FindStringSubmatch(expr); m != nil {
		got, ok := it[names[m[1]]].(*types.AttributeValueMemberS)
		want, _ := values[m[2]].(*types.AttributeValueMemberS)
		return ok && want != nil && got.Value == want.Value, nil
	}
	if m := notExistsPattern.FindStringSubmatch(expr); m != nil {
		_, ok := it[names[m[1]]]
		return !ok, nil
	}
	return false, fmt.Errorf("unsupported expression %q", expr)
}

func (f *fakeDynamo) GetItem(ctx context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return &sdk.GetItemOutput{Item: f.items[itemID(in.Key)]}, nil
}

func (f *fakeDynamo) PutItem(ctx context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	if hook := f.beforePut; hook != nil {
		f.beforePut = nil
		hook()
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.putErrors) > 0 {
		err := f.putErrors[0]
		f.putErrors = f.putErrors[1:]
		return nil, err
	}

	id := itemID(in.Item)
	if in.ConditionExpression != nil {
		ok, err := eval(*in.ConditionExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, f.items[id])
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	f.items[id] = in.Item
	return &sdk.PutItemOutput{}, nil
}

func (f *fakeDynamo) Scan(ctx context.Context, in *sdk.ScanInput, _ ...func(*sdk.Options)) (*sdk.ScanOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.scanErrors) > 0 {
		err := f.scanErrors[0]
		f.scanErrors = f.scanErrors[1:]
		return nil, err
	}

	ids := make([]string, 0, len(f.items))
	for id := range f.items {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	startAfter := ""
	if len(in.ExclusiveStartKey) > 0 {
		startAfter = itemID(in.ExclusiveStartKey)
	}

	out := &sdk.ScanOutput{}
	for _, id := range ids {
		if startAfter != "" && id <= startAfter {
			continue
		}
		if in.Limit != nil && int32(len(out.Items)) == *in.Limit {
			last := out.Items[len(out.Items)-1]
			out.LastEvaluatedKey = map[string]types.AttributeValue{"PK": last["PK"], "SK": last["SK"]}
			break
		}
		it := f.items[id]
		if in.FilterExpression != nil {
			ok, err := eval(*in.FilterExpression, in.ExpressionAttributeNames, in.ExpressionAttributeValues, it)
			if err != nil {
				return nil, err
			}
			if !ok {
				continue
			}
		}
		if in.ProjectionExpression != nil {
			projected := map[string]types.AttributeValue{}
			for _, placeholder := range strings.Split(*in.ProjectionExpression, ",") {
				name := in.ExpressionAttributeNames[strings.TrimSpace(placeholder)]
				if v, ok := it[name]; ok {
					projected[name] = v
				}
			}
			it = projected
		}
		out.Items = append(out.Items, it)
	}
	return out, nil
}

func (f *fakeDynamo) BatchWriteItem(ctx context.Context, in *sdk.BatchWriteItemInput, _ ...func(*sdk.Options)) (*sdk.BatchWriteItemOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.batchCalls++
	if len(f.batchErrors) > 0 {
		err := f.batchErrors[0]
		f.batchErrors = f.batchErrors[1:]
		if err != nil {
			return nil, err
		}
	}

	out := &sdk.BatchWriteItemOutput{UnprocessedItems: map[string][]types.WriteRequest{}}
	for table, reqs := range in.RequestItems {
		f.batchSizes = append(f.batchSizes, len(reqs))
		for i, req := range reqs {
			if f.unprocessedOnce && i == len(reqs)-1 {
				f.unprocessedOnce = false
				out.UnprocessedItems[table] = append(out.UnprocessedItems[table], req)
				continue
			}
			switch {
			case req.PutRequest != nil:
				f.items[itemID(req.PutRequest.Item)] = req.PutRequest.Item
			case req.DeleteRequest != nil:
				delete(f.items, itemID(req.DeleteRequest.Key))
			}
		}
	}
	return out, nil
}

// count returns the number of items, the snapshot pointer included.
func (f *fakeDynamo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.items)
}

func s(v string) types.AttributeValue {
	return &types.AttributeValueMemberS{Value: v}
}

func makeObjects(t *testing.T, n int) map[string]*model.Entity {
	t.Helper()
	objects := make(map[string]*model.Entity, n)
	for i := 0; i < n; i++ {
		kind := model.Kinds[i%len(model.Kinds)]
		e := model.New(kind, model.Now())
		require.NoError(t, e.Set("index", model.Int(int64(i))))
		require.NoError(t, e.Set("weight", model.Float(float64(i))))
		objects[e.Key()] = e
	}
	return objects
}

func newTestStore(client API, opts ...storagemodels.StoreOption) *Store {
	opts = append([]storagemodels.StoreOption{storagemodels.WithRetryBackoff(time.Millisecond)}, opts...)
	return New(client, "entities", opts...)
}

// decodeLoaded loads the committed snapshot and reconstructs its entities.
func decodeLoaded(t *testing.T, store *Store) map[string]*model.Entity {
	t.Helper()
	doc, err := store.Load(context.Background())
	require.NoError(t, err)
	got, skipped, err := codec.Decode(store.Describe(), doc, registry.Default())
	require.NoError(t, err)
	assert.Empty(t, skipped)
	return got
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()

	var batches []storagemodels.SaveProgress
	store := newTestStore(fake,
		storagemodels.WithPageSize(7),
		storagemodels.WithProgressHandler(func(p storagemodels.SaveProgress) {
			batches = append(batches, p)
		}),
	)

	objects := makeObjects(t, 30)
	require.NoError(t, store.Save(ctx, codec.Encode(objects)))
	assert.Equal(t, 31, fake.count())
	assert.Equal(t, []int{25, 5}, fake.batchSizes)
	require.Len(t, batches, 2)
	assert.Equal(t, int64(30), batches[1].ItemsWritten)
	assert.Equal(t, 2, batches[1].BatchesWritten)

	if diff := cmp.Diff(objects, decodeLoaded(t, store)); diff != "" {
		t.Fatalf("objects mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveEmptySnapshot(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(newFakeDynamo())

	require.NoError(t, store.Save(ctx, codec.Encode(makeObjects(t, 2))))
	require.NoError(t, store.Save(ctx, codec.Document{}))

	doc, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestSaveReplacesPreviousGeneration(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()

	var last storagemodels.SaveProgress
	store := newTestStore(fake, storagemodels.WithProgressHandler(func(p storagemodels.SaveProgress) { last = p }))

	objects := makeObjects(t, 3)
	require.NoError(t, store.Save(ctx, codec.Encode(objects)))
	require.Equal(t, 4, fake.count())

	var keep *model.Entity
	for _, e := range objects {
		keep = e
		break
	}
	require.NoError(t, store.Save(ctx, codec.Encode(map[string]*model.Entity{keep.Key(): keep})))
	assert.Equal(t, 2, fake.count())
	assert.Equal(t, int64(3), last.ItemsDeleted)

	got := decodeLoaded(t, store)
	assert.Len(t, got, 1)
	assert.Contains(t, got, keep.Key())
}

func TestFailedBatchKeepsCommittedSnapshot(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := newTestStore(fake)

	committed := makeObjects(t, 3)
	require.NoError(t, store.Save(ctx, codec.Encode(committed)))

	// The first batch of 25 lands, the second is refused.
	fake.batchErrors = []error{nil, fmt.Errorf("access denied")}
	larger := makeObjects(t, 30)
	err := store.Save(ctx, codec.Encode(larger))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Equal(t, 3+25+1, fake.count())

	if diff := cmp.Diff(committed, decodeLoaded(t, store)); diff != "" {
		t.Fatalf("partial save became visible (-want +got):\n%s", diff)
	}

	// The next successful save commits and sweeps the stray items.
	require.NoError(t, store.Save(ctx, codec.Encode(larger)))
	assert.Equal(t, 31, fake.count())
	if diff := cmp.Diff(larger, decodeLoaded(t, store)); diff != "" {
		t.Fatalf("objects mismatch (-want +got):\n%s", diff)
	}
}

func TestFailedCommitKeepsCommittedSnapshot(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := newTestStore(fake)

	committed := makeObjects(t, 2)
	require.NoError(t, store.Save(ctx, codec.Encode(committed)))

	fake.putErrors = []error{fmt.Errorf("access denied")}
	err := store.Save(ctx, codec.Encode(makeObjects(t, 5)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "commit")

	if diff := cmp.Diff(committed, decodeLoaded(t, store)); diff != "" {
		t.Fatalf("uncommitted save became visible (-want +got):\n%s", diff)
	}
}

func TestConcurrentWriterDetected(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	store := newTestStore(fake)
	other := newTestStore(fake)

	require.NoError(t, store.Save(ctx, codec.Encode(makeObjects(t, 1))))

	winner := makeObjects(t, 2)
	fake.beforePut = func() {
		require.NoError(t, other.Save(ctx, codec.Encode(winner)))
	}
	err := store.Save(ctx, codec.Encode(makeObjects(t, 4)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "replaced by another writer")

	if diff := cmp.Diff(winner, decodeLoaded(t, store)); diff != "" {
		t.Fatalf("losing save became visible (-want +got):\n%s", diff)
	}
}

func TestCleanupFailureDoesNotFailSave(t *testing.T) {
	ctx := context.Background()
	fake := newFakeDynamo()
	core, logs := observer.New(zap.WarnLevel)
	store := newTestStore(fake).WithLogger(zap.New(core))

	require.NoError(t, store.Save(ctx, codec.Encode(makeObjects(t, 3))))

	fake.scanErrors = []error{fmt.Errorf("access denied")}
	latest := makeObjects(t, 1)
	require.NoError(t, store.Save(ctx, codec.Encode(latest)))
	assert.Equal(t, 1, logs.FilterMessage("failed to remove superseded snapshot items").Len())
	assert.Equal(t, 3+1+1, fake.count())

	if diff := cmp.Diff(latest, decodeLoaded(t, store)); diff != "" {
		t.Fatalf("objects mismatch (-want +got):\n%s", diff)
	}
}

func TestSaveRetriesUnprocessedItems(t *testing.T) {
	fake := newFakeDynamo()
	fake.unprocessedOnce = true

	var last storagemodels.SaveProgress
	store := newTestStore(fake, storagemodels.WithProgressHandler(func(p storagemodels.SaveProgress) { last = p }))

	require.NoError(t, store.Save(context.Background(), codec.Encode(makeObjects(t, 4))))
	assert.Equal(t, 5, fake.count())
	assert.Equal(t, 2, fake.batchCalls)
	assert.Equal(t, 1, last.Retries)
}

func TestRetryableErrors(t *testing.T) {
	fake := newFakeDynamo()
	fake.scanErrors = []error{&types.ProvisionedThroughputExceededException{Message: aws.String("slow down")}}
	fake.batchErrors = []error{&types.InternalServerError{Message: aws.String("oops")}}
	fake.putErrors = []error{&types.RequestLimitExceeded{Message: aws.String("limit")}}
	store := newTestStore(fake)

	objects := makeObjects(t, 2)
	require.NoError(t, store.Save(context.Background(), codec.Encode(objects)))
	assert.Equal(t, 3, fake.count())
	assert.Len(t, decodeLoaded(t, store), 2)
}

func TestNonRetryableErrorSurfaces(t *testing.T) {
	fake := newFakeDynamo()
	fake.batchErrors = []error{fmt.Errorf("access denied")}
	store := newTestStore(fake)

	err := store.Save(context.Background(), codec.Encode(makeObjects(t, 2)))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "access denied")
	assert.Equal(t, 1, fake.batchCalls)

	_, err = store.Load(context.Background())
	assert.True(t, errors.IsNotFound(err))
}

func TestRetriesExhausted(t *testing.T) {
	fake := newFakeDynamo()
	store := newTestStore(fake, storagemodels.WithMaxRetries(2))
	require.NoError(t, store.Save(context.Background(), codec.Encode(makeObjects(t, 1))))

	throttled := &types.RequestLimitExceeded{Message: aws.String("limit")}
	fake.scanErrors = []error{throttled, throttled, throttled}

	_, err := store.Load(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "after 2 retries")
}

func TestLoadEmptyTable(t *testing.T) {
	store := newTestStore(newFakeDynamo())

	_, err := store.Load(context.Background())
	assert.True(t, errors.IsNotFound(err))
}

func TestLoadCorrupt(t *testing.T) {
	tests := []struct {
		name    string
		items   int
		body    string
		current string
	}{
		{name: "Body", items: 1, body: "{broken", current: "g1"},
		{name: "ItemCount", items: 2, body: `{"__class__": "User", "id": "x"}`, current: "g1"},
		{name: "Pointer", items: 1, body: `{}`, current: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := newFakeDynamo()
			fake.items[pointerPK+"\x00"+pointerSK] = map[string]types.AttributeValue{
				"PK":      s(pointerPK),
				"SK":      s(pointerSK),
				"Current": s(tt.current),
				"Items":   &types.AttributeValueMemberN{Value: fmt.Sprint(tt.items)},
			}
			fake.items["GEN#g1#User\x00x"] = map[string]types.AttributeValue{
				"PK":         s("GEN#g1#User"),
				"SK":         s("x"),
				"Generation": s("g1"),
				"Key":        s("User.x"),
				"Body":       s(tt.body),
			}
			store := newTestStore(fake)

			_, err := store.Load(context.Background())
			require.Error(t, err)
			assert.True(t, errors.IsCorruptDocument(err), "got %v", err)
		})
	}
}

func TestExpandMacros(t *testing.T) {
	rec := codec.Record{"__class__": "Place", "id": "42", "rooms": model.Int(3)}

	got := expandMacros(map[string]string{
		"PK": "{__class__}",
		"SK": "ROOMS#{rooms}#{id}",
		"GS": "{missing}",
	}, rec)

	assert.Equal(t, map[string]string{"PK": "Place", "SK": "ROOMS#3#42", "GS": ""}, got)
}

func TestEmptyKeyRejected(t *testing.T) {
	fake := newFakeDynamo()
	store := newTestStore(fake).WithKeyTemplate(map[string]string{"PK": "{nope}", "SK": "{id}"})

	err := store.Save(context.Background(), codec.Encode(makeObjects(t, 1)))
	assert.True(t, errors.IsValidationError(err))
	assert.Zero(t, fake.count())
}
