/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/entityfile/storagemodels"
)

// generationFilter selects the items written by one Save.
func generationFilter(gen string) (*expression.Expression, error) {
	filter := expression.Name(attrGeneration).Equal(expression.Value(gen))
	expr, err := expression.NewBuilder().WithFilter(filter).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build generation filter: %w", err)
	}
	return &expr, nil
}

// keyProjection limits a scan to the table keys and the generation.
func keyProjection() (*expression.Expression, error) {
	proj := expression.NamesList(expression.Name("PK"), expression.Name("SK"), expression.Name(attrGeneration))
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build key projection: %w", err)
	}
	return &expr, nil
}

// scan walks every page of the table and hands each item to fn.
// A non-nil expr applies its projection and filter.
func (d *Store) scan(ctx context.Context, expr *expression.Expression, fn func(map[string]types.AttributeValue) error) error {
	input := &sdk.ScanInput{
		TableName:      aws.String(d.tableName),
		Limit:          aws.Int32(d.options.PageSize),
		ConsistentRead: aws.Bool(true),
	}
	if expr != nil {
		input.ProjectionExpression = expr.Projection()
		input.FilterExpression = expr.Filter()
		input.ExpressionAttributeNames = expr.Names()
		input.ExpressionAttributeValues = expr.Values()
	}

	for {
		var out *sdk.ScanOutput
		err := d.withRetry(ctx, "scan", func() error {
			var err error
			out, err = d.client.Scan(ctx, input)
			return err
		})
		if err != nil {
			return err
		}
		for _, it := range out.Items {
			if err := fn(it); err != nil {
				return err
			}
		}
		if len(out.LastEvaluatedKey) == 0 {
			return nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

// withRetry runs op, retrying retryable errors with linear backoff.
func (d *Store) withRetry(ctx context.Context, what string, op func() error) error {
	var lastErr error

	for attempt := 0; attempt <= d.options.MaxRetries; attempt++ {
		err := op()
		if err == nil {
			return nil
		}
		lastErr = err

		if !isRetryableError(err) {
			return fmt.Errorf("%s of %s failed: %w", what, d.tableName, err)
		}
		if attempt < d.options.MaxRetries {
			if err := d.backoff(ctx, attempt); err != nil {
				return err
			}
		}
	}

	return fmt.Errorf("%s of %s failed after %d retries: %w", what, d.tableName, d.options.MaxRetries, lastErr)
}

// writeBatches sends requests in batches, resubmitting unprocessed items.
// progress accumulates across calls and is reported after every batch.
func (d *Store) writeBatches(ctx context.Context, requests []types.WriteRequest, progress *storagemodels.SaveProgress) error {
	for len(requests) > 0 {
		n := d.options.BatchSize
		if n > len(requests) {
			n = len(requests)
		}
		batch := requests[:n]
		requests = requests[n:]

		retries, err := d.writeBatch(ctx, batch)
		progress.Retries += retries
		if err != nil {
			return err
		}
		for _, req := range batch {
			if req.PutRequest != nil {
				progress.ItemsWritten++
			} else {
				progress.ItemsDeleted++
			}
		}
		progress.BatchesWritten++

		if d.options.ProgressHandler != nil {
			d.options.ProgressHandler(*progress)
		}
	}
	return nil
}

func (d *Store) writeBatch(ctx context.Context, pending []types.WriteRequest) (int, error) {
	retries := 0
	for attempt := 0; ; attempt++ {
		out, err := d.client.BatchWriteItem(ctx, &sdk.BatchWriteItemInput{
			RequestItems: map[string][]types.WriteRequest{d.tableName: pending},
		})
		switch {
		case err != nil && !isRetryableError(err):
			return retries, fmt.Errorf("batch write to %s failed: %w", d.tableName, err)
		case err != nil:
			if attempt >= d.options.MaxRetries {
				return retries, fmt.Errorf("batch write to %s failed after %d retries: %w", d.tableName, d.options.MaxRetries, err)
			}
		default:
			pending = out.UnprocessedItems[d.tableName]
			if len(pending) == 0 {
				return retries, nil
			}
			if attempt >= d.options.MaxRetries {
				return retries, fmt.Errorf("batch write to %s left %d unprocessed items after %d retries", d.tableName, len(pending), d.options.MaxRetries)
			}
		}

		retries++
		if err := d.backoff(ctx, attempt); err != nil {
			return retries, err
		}
	}
}

func (d *Store) backoff(ctx context.Context, attempt int) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(time.Duration(attempt+1) * d.options.RetryBackoff):
		return nil
	}
}

// isRetryableError determines if a DynamoDB error is retryable
func isRetryableError(err error) bool {
	switch err.(type) {
	case *types.ProvisionedThroughputExceededException:
		return true
	case *types.RequestLimitExceeded:
		return true
	case *types.InternalServerError:
		return true
	}

	if awsErr, ok := err.(interface{ IsRetryable() bool }); ok {
		return awsErr.IsRetryable()
	}

	return false
}
