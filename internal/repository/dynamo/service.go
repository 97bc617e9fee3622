package dynamo

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/camilomoreno07/gorkis-api/internal/domain"
	"github.com/camilomoreno07/gorkis-api/internal/repository"
	"github.com/camilomoreno07/gorkis-api/pkg/database"
	apperrors "github.com/camilomoreno07/gorkis-api/pkg/errors"
)

// API is the subset of *dynamodb.Client the repository calls.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
	CreateTable(ctx context.Context, params *dynamodb.CreateTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.CreateTableOutput, error)
}

// ServiceRepository implements repository.ServiceRepository on a DynamoDB
// table keyed by serviceId.
type ServiceRepository struct {
	api   API
	table string
}

// NewServiceRepository creates a DynamoDB-backed service repository.
func NewServiceRepository(api API, table string) *ServiceRepository {
	return &ServiceRepository{api: api, table: table}
}

// serviceItem mirrors a stored item. Rate is left untyped because items
// written through urlencoded bodies hold it as a string.
type serviceItem struct {
	ServiceID   string  `dynamodbav:"serviceId"`
	Author      *string `dynamodbav:"author"`
	Title       *string `dynamodbav:"title"`
	Description *string `dynamodbav:"description"`
	Rate        any     `dynamodbav:"rate"`
	ImageURL    *string `dynamodbav:"imageUrl"`
}

// toDomain keeps the known fields only. A rate that does not parse as an
// integer is dropped.
func (it serviceItem) toDomain() domain.Service {
	svc := domain.Service{
		ServiceID:   it.ServiceID,
		Author:      it.Author,
		Title:       it.Title,
		Description: it.Description,
		ImageURL:    it.ImageURL,
	}
	if it.Rate != nil {
		if rate, err := domain.ParseRate(it.Rate); err == nil {
			svc.Rate = &rate
		}
	}
	return svc
}

func keyOf(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		domain.AttrServiceID: &types.AttributeValueMemberS{Value: id},
	}
}

func isConditionFailed(err error) bool {
	var ccf *types.ConditionalCheckFailedException
	return errors.As(err, &ccf)
}

// Create puts the item, refusing to overwrite an existing id.
func (r *ServiceRepository) Create(ctx context.Context, svc *domain.Service) (err error) {
	ctx, end := database.TraceOperation(ctx, "PutItem", r.table)
	defer func() { end(err) }()

	item, err := attributevalue.MarshalMap(svc)
	if err != nil {
		return fmt.Errorf("marshal service: %w", err)
	}

	cond := expression.AttributeNotExists(expression.Name(domain.AttrServiceID))
	expr, err := expression.NewBuilder().WithCondition(cond).Build()
	if err != nil {
		return fmt.Errorf("build put condition: %w", err)
	}

	_, err = r.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:                aws.String(r.table),
		Item:                     item,
		ConditionExpression:      expr.Condition(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		if isConditionFailed(err) {
			return fmt.Errorf("put service %s: %w", svc.ServiceID, apperrors.ErrConflict)
		}
		return fmt.Errorf("put service: %w", err)
	}
	return nil
}

// GetByID reads one item.
func (r *ServiceRepository) GetByID(ctx context.Context, id string) (svc *domain.Service, err error) {
	ctx, end := database.TraceOperation(ctx, "GetItem", r.table)
	defer func() { end(err) }()

	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.table),
		Key:       keyOf(id),
	})
	if err != nil {
		return nil, fmt.Errorf("get service: %w", err)
	}
	if len(out.Item) == 0 {
		return nil, apperrors.ErrNotFound
	}

	var it serviceItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("unmarshal service: %w", err)
	}
	s := it.toDomain()
	return &s, nil
}

// List scans the table. Without a limit every page is followed. Items are
// read into the service shape like GetByID: attributes outside it are not
// returned and a rate that is not an integer is left out.
func (r *ServiceRepository) List(ctx context.Context, filter repository.ListFilter) (res *repository.ListResult, err error) {
	ctx, end := database.TraceOperation(ctx, "Scan", r.table)
	defer func() { end(err) }()

	input := &dynamodb.ScanInput{TableName: aws.String(r.table)}

	if filter.Limit <= 0 {
		res = &repository.ListResult{Services: []domain.Service{}}
		p := dynamodb.NewScanPaginator(r.api, input)
		for p.HasMorePages() {
			page, err := p.NextPage(ctx)
			if err != nil {
				return nil, fmt.Errorf("scan services: %w", err)
			}
			if err := appendItems(res, page.Items); err != nil {
				return nil, err
			}
		}
		return res, nil
	}

	startAfter, err := repository.DecodeToken(filter.NextToken)
	if err != nil {
		return nil, err
	}
	input.Limit = aws.Int32(filter.Limit)
	if startAfter != "" {
		input.ExclusiveStartKey = keyOf(startAfter)
	}

	out, err := r.api.Scan(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("scan services: %w", err)
	}

	res = &repository.ListResult{Services: make([]domain.Service, 0, len(out.Items))}
	if err := appendItems(res, out.Items); err != nil {
		return nil, err
	}
	if key, ok := out.LastEvaluatedKey[domain.AttrServiceID].(*types.AttributeValueMemberS); ok {
		res.NextToken = repository.EncodeToken(key.Value)
	}
	return res, nil
}

func appendItems(res *repository.ListResult, items []map[string]types.AttributeValue) error {
	var page []serviceItem
	if err := attributevalue.UnmarshalListOfMaps(items, &page); err != nil {
		return fmt.Errorf("unmarshal services: %w", err)
	}
	for _, it := range page {
		res.Services = append(res.Services, it.toDomain())
	}
	return nil
}

// Update builds an update expression from patch. The partial policy sets
// only supplied fields; the replace policy also removes the others.
func (r *ServiceRepository) Update(ctx context.Context, id string, patch domain.ServicePatch, policy domain.UpdatePolicy) (attrs domain.Attributes, err error) {
	ctx, end := database.TraceOperation(ctx, "UpdateItem", r.table)
	defer func() { end(err) }()

	upd, ok := buildUpdate(patch, policy)
	if !ok {
		return nil, fmt.Errorf("%w: no fields to update", apperrors.ErrInvalidInput)
	}

	cond := expression.AttributeExists(expression.Name(domain.AttrServiceID))
	expr, err := expression.NewBuilder().WithUpdate(upd).WithCondition(cond).Build()
	if err != nil {
		return nil, fmt.Errorf("build update expression: %w", err)
	}

	out, err := r.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       keyOf(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("update service: %w", err)
	}
	return unmarshalAttributes(out.Attributes)
}

func buildUpdate(patch domain.ServicePatch, policy domain.UpdatePolicy) (expression.UpdateBuilder, bool) {
	var upd expression.UpdateBuilder
	values := patch.Values()
	n := 0
	for _, attr := range domain.MutableAttributes {
		v, present := values[attr]
		switch {
		case present:
			upd = upd.Set(expression.Name(attr), expression.Value(v))
		case policy == domain.UpdatePolicyReplace:
			upd = upd.Remove(expression.Name(attr))
		default:
			continue
		}
		n++
	}
	return upd, n > 0
}

// GetRate reads the rate attribute with a strongly consistent read so the
// value can serve as the compare value of UpdateRate.
func (r *ServiceRepository) GetRate(ctx context.Context, id string) (rate repository.StoredRate, err error) {
	ctx, end := database.TraceOperation(ctx, "GetItem", r.table)
	defer func() { end(err) }()

	proj := expression.NamesList(expression.Name(domain.AttrServiceID), expression.Name(domain.AttrRate))
	expr, err := expression.NewBuilder().WithProjection(proj).Build()
	if err != nil {
		return rate, fmt.Errorf("build projection: %w", err)
	}

	out, err := r.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:                aws.String(r.table),
		Key:                      keyOf(id),
		ConsistentRead:           aws.Bool(true),
		ProjectionExpression:     expr.Projection(),
		ExpressionAttributeNames: expr.Names(),
	})
	if err != nil {
		return rate, fmt.Errorf("get service rate: %w", err)
	}
	if len(out.Item) == 0 {
		return rate, apperrors.ErrNotFound
	}

	if av, ok := out.Item[domain.AttrRate]; ok {
		if err := attributevalue.Unmarshal(av, &rate.Raw); err != nil {
			return rate, fmt.Errorf("unmarshal rate: %w", err)
		}
	}
	return rate, nil
}

// UpdateRate writes rate conditioned on the item still existing and its
// rate still being expected. An expected rate that is not present matches
// both a missing attribute and a NULL one.
func (r *ServiceRepository) UpdateRate(ctx context.Context, id string, expected repository.StoredRate, rate int) (attrs domain.Attributes, err error) {
	ctx, end := database.TraceOperation(ctx, "UpdateItem", r.table)
	defer func() { end(err) }()

	rateName := expression.Name(domain.AttrRate)
	cond := expression.AttributeExists(expression.Name(domain.AttrServiceID))
	if expected.Present() {
		cond = cond.And(rateName.Equal(expression.Value(expected.Raw)))
	} else {
		// A rate written as NULL reads back like a missing one, but DynamoDB
		// still counts the attribute as existing.
		cond = cond.And(rateName.AttributeNotExists().Or(rateName.AttributeType(expression.Null)))
	}

	expr, err := expression.NewBuilder().
		WithUpdate(expression.Set(rateName, expression.Value(rate))).
		WithCondition(cond).
		Build()
	if err != nil {
		return nil, fmt.Errorf("build rate update: %w", err)
	}

	out, err := r.api.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(r.table),
		Key:                       keyOf(id),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
		ReturnValues:              types.ReturnValueUpdatedNew,
	})
	if err != nil {
		if isConditionFailed(err) {
			return nil, fmt.Errorf("rate of %s changed: %w", id, apperrors.ErrConflict)
		}
		return nil, fmt.Errorf("update service rate: %w", err)
	}
	return unmarshalAttributes(out.Attributes)
}

// Delete removes the item unconditionally.
func (r *ServiceRepository) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceOperation(ctx, "DeleteItem", r.table)
	defer func() { end(err) }()

	_, err = r.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(r.table),
		Key:       keyOf(id),
	})
	if err != nil {
		return fmt.Errorf("delete service: %w", err)
	}
	return nil
}

func unmarshalAttributes(av map[string]types.AttributeValue) (domain.Attributes, error) {
	attrs := domain.Attributes{}
	if len(av) == 0 {
		return attrs, nil
	}
	if err := attributevalue.UnmarshalMap(av, &attrs); err != nil {
		return nil, fmt.Errorf("unmarshal attributes: %w", err)
	}
	return attrs, nil
}
