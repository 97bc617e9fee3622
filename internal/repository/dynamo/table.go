package dynamo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/camilomoreno07/gorkis-api/internal/domain"
	"github.com/camilomoreno07/gorkis-api/pkg/database"
)

const tableActiveTimeout = 30 * time.Second

// Ping checks that the table exists and is reachable.
func (r *ServiceRepository) Ping(ctx context.Context) (err error) {
	ctx, end := database.TraceOperation(ctx, "DescribeTable", r.table)
	defer func() { end(err) }()

	if _, err = r.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)}); err != nil {
		return fmt.Errorf("describe table %s: %w", r.table, err)
	}
	return nil
}

// EnsureTable creates the table when it does not exist and waits for it to
// become active. It reports whether a table was created. Used against
// DynamoDB Local; deployed tables are provisioned outside the process.
func (r *ServiceRepository) EnsureTable(ctx context.Context) (created bool, err error) {
	_, err = r.api.DescribeTable(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)})
	if err == nil {
		return false, nil
	}
	var notFound *types.ResourceNotFoundException
	if !errors.As(err, &notFound) {
		return false, fmt.Errorf("describe table %s: %w", r.table, err)
	}

	_, err = r.api.CreateTable(ctx, &dynamodb.CreateTableInput{
		TableName: aws.String(r.table),
		AttributeDefinitions: []types.AttributeDefinition{
			{AttributeName: aws.String(domain.AttrServiceID), AttributeType: types.ScalarAttributeTypeS},
		},
		KeySchema: []types.KeySchemaElement{
			{AttributeName: aws.String(domain.AttrServiceID), KeyType: types.KeyTypeHash},
		},
		BillingMode: types.BillingModePayPerRequest,
	})
	if err != nil {
		var inUse *types.ResourceInUseException
		if errors.As(err, &inUse) {
			return false, nil
		}
		return false, fmt.Errorf("create table %s: %w", r.table, err)
	}

	waiter := dynamodb.NewTableExistsWaiter(r.api, func(o *dynamodb.TableExistsWaiterOptions) {
		o.MinDelay = 200 * time.Millisecond
		o.MaxDelay = 2 * time.Second
	})
	if err := waiter.Wait(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(r.table)}, tableActiveTimeout); err != nil {
		return true, fmt.Errorf("wait for table %s: %w", r.table, err)
	}
	return true, nil
}
