package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/example/product-catalog/internal/catalog"
)

// DynamoProductStore implements ProductStore on DynamoDB. Active
// products carry a fixed GSI1 partition key so they can be listed with
// a single query instead of a table scan.
type DynamoProductStore struct {
	client    *dynamodb.Client
	tableName string
}

// dynamoProduct represents the DynamoDB item structure
type dynamoProduct struct {
	ID            string `dynamodbav:"id"`
	Name          string `dynamodbav:"name"`
	Description   string `dynamodbav:"description"`
	Brand         string `dynamodbav:"brand"`
	CategoryID    string `dynamodbav:"category_id,omitempty"`
	CategoryName  string `dynamodbav:"category_name"`
	Price         int64  `dynamodbav:"price"`
	StockQuantity int    `dynamodbav:"stock_quantity"`
	ImageURL      string `dynamodbav:"image_url,omitempty"`
	Active        bool   `dynamodbav:"active"`
	CreatedAt     string `dynamodbav:"created_at"`
	UpdatedAt     string `dynamodbav:"updated_at"`
	GSI1PK        string `dynamodbav:"gsi1pk,omitempty"`
}

func NewDynamoProductStore(client *dynamodb.Client, tableName string) *DynamoProductStore {
	return &DynamoProductStore{
		client:    client,
		tableName: tableName,
	}
}

func (s *DynamoProductStore) GetByID(ctx context.Context, id string) (*catalog.Product, error) {
	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	if result.Item == nil {
		return nil, catalog.ErrNotFound
	}

	return unmarshalProduct(result.Item)
}

func (s *DynamoProductStore) GetByIDs(ctx context.Context, ids []string) ([]*catalog.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]map[string]types.AttributeValue, 0, len(ids))
	for _, id := range ids {
		keys = append(keys, map[string]types.AttributeValue{
			"id": &types.AttributeValueMemberS{Value: id},
		})
	}

	result, err := s.client.BatchGetItem(ctx, &dynamodb.BatchGetItemInput{
		RequestItems: map[string]types.KeysAndAttributes{
			s.tableName: {Keys: keys},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to batch get products: %w", err)
	}

	items := result.Responses[s.tableName]
	products := make([]*catalog.Product, 0, len(items))
	for _, item := range items {
		p, err := unmarshalProduct(item)
		if err != nil {
			continue
		}
		products = append(products, p)
	}
	return products, nil
}

// Save upserts the descriptive attributes. The stock quantity is written
// only on first insert (if_not_exists); existing rows keep whatever value
// AdjustStock last committed.
func (s *DynamoProductStore) Save(ctx context.Context, p *catalog.Product) error {
	update := "SET #name = :name, description = :desc, brand = :brand, " +
		"category_id = :cid, category_name = :cname, price = :price, " +
		"stock_quantity = if_not_exists(stock_quantity, :stock), " +
		"image_url = :img, active = :active, " +
		"created_at = if_not_exists(created_at, :created), updated_at = :updated"
	values := map[string]types.AttributeValue{
		":name":    &types.AttributeValueMemberS{Value: p.Name},
		":desc":    &types.AttributeValueMemberS{Value: p.Description},
		":brand":   &types.AttributeValueMemberS{Value: p.Brand},
		":cid":     &types.AttributeValueMemberS{Value: p.CategoryID},
		":cname":   &types.AttributeValueMemberS{Value: p.CategoryName},
		":price":   &types.AttributeValueMemberN{Value: strconv.FormatInt(p.Price, 10)},
		":stock":   &types.AttributeValueMemberN{Value: strconv.Itoa(p.StockQuantity)},
		":img":     &types.AttributeValueMemberS{Value: p.ImageURL},
		":active":  &types.AttributeValueMemberBOOL{Value: p.Active},
		":created": &types.AttributeValueMemberS{Value: p.CreatedAt.Format(time.RFC3339Nano)},
		":updated": &types.AttributeValueMemberS{Value: p.UpdatedAt.Format(time.RFC3339Nano)},
	}
	if p.Active {
		// Fixed GSI1 partition so ListActive can query instead of scan.
		update += ", gsi1pk = :pk"
		values[":pk"] = &types.AttributeValueMemberS{Value: "ACTIVE"}
	} else {
		update += " REMOVE gsi1pk"
	}

	_, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.tableName),
		Key:                       map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: p.ID}},
		UpdateExpression:          aws.String(update),
		ExpressionAttributeNames:  map[string]string{"#name": "name"},
		ExpressionAttributeValues: values,
	})
	if err != nil {
		return fmt.Errorf("failed to save product: %w", err)
	}

	return nil
}

// AdjustStock uses a conditional update so the non-negative guard holds
// across processes, not just across goroutines of one binary.
func (s *DynamoProductStore) AdjustStock(ctx context.Context, id string, delta int, updatedAt time.Time) (*catalog.Product, error) {
	need := 0
	if delta < 0 {
		need = -delta
	}

	out, err := s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(s.tableName),
		Key:                 map[string]types.AttributeValue{"id": &types.AttributeValueMemberS{Value: id}},
		UpdateExpression:    aws.String("SET stock_quantity = stock_quantity + :delta, updated_at = :updated"),
		ConditionExpression: aws.String("attribute_exists(id) AND stock_quantity >= :need"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":delta":   &types.AttributeValueMemberN{Value: strconv.Itoa(delta)},
			":need":    &types.AttributeValueMemberN{Value: strconv.Itoa(need)},
			":updated": &types.AttributeValueMemberS{Value: updatedAt.Format(time.RFC3339Nano)},
		},
		ReturnValues: types.ReturnValueAllNew,
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			if _, err := s.GetByID(ctx, id); err != nil {
				return nil, err
			}
			return nil, catalog.ErrInsufficientStock
		}
		return nil, fmt.Errorf("failed to adjust stock: %w", err)
	}

	return unmarshalProduct(out.Attributes)
}

// queryActive pages through the GSI1 partition until LastEvaluatedKey is
// exhausted; a single Query stops at 1MB of data.
func (s *DynamoProductStore) queryActive(ctx context.Context, projection string) ([]map[string]types.AttributeValue, error) {
	var items []map[string]types.AttributeValue
	var startKey map[string]types.AttributeValue
	for {
		input := &dynamodb.QueryInput{
			TableName:              aws.String(s.tableName),
			IndexName:              aws.String("GSI1"),
			KeyConditionExpression: aws.String("gsi1pk = :pk"),
			ExpressionAttributeValues: map[string]types.AttributeValue{
				":pk": &types.AttributeValueMemberS{Value: "ACTIVE"},
			},
			ExclusiveStartKey: startKey,
		}
		if projection != "" {
			input.ProjectionExpression = aws.String(projection)
		}
		result, err := s.client.Query(ctx, input)
		if err != nil {
			return nil, err
		}
		items = append(items, result.Items...)
		if result.LastEvaluatedKey == nil {
			break
		}
		startKey = result.LastEvaluatedKey
	}
	return items, nil
}

func (s *DynamoProductStore) ListActive(ctx context.Context, page catalog.PageRequest) (*catalog.Page, error) {
	items, err := s.queryActive(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]*catalog.Product, 0, len(items))
	for _, item := range items {
		p, err := unmarshalProduct(item)
		if err != nil {
			continue
		}
		products = append(products, p)
	}

	sortProducts(products, page)
	total := int64(len(products))

	start := page.Page * page.Size
	if start > len(products) {
		start = len(products)
	}
	end := start + page.Size
	if end > len(products) {
		end = len(products)
	}

	return catalog.NewPage(products[start:end], page.Page, page.Size, total), nil
}

func (s *DynamoProductStore) Brands(ctx context.Context) ([]string, error) {
	items, err := s.queryActive(ctx, "brand")
	if err != nil {
		return nil, fmt.Errorf("failed to list brands: %w", err)
	}

	seen := make(map[string]bool)
	var brands []string
	for _, item := range items {
		var row struct {
			Brand string `dynamodbav:"brand"`
		}
		if err := attributevalue.UnmarshalMap(item, &row); err != nil {
			continue
		}
		if row.Brand == "" || seen[row.Brand] {
			continue
		}
		seen[row.Brand] = true
		brands = append(brands, row.Brand)
	}
	sort.Strings(brands)
	return brands, nil
}

func unmarshalProduct(item map[string]types.AttributeValue) (*catalog.Product, error) {
	var dp dynamoProduct
	if err := attributevalue.UnmarshalMap(item, &dp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal product: %w", err)
	}

	createdAt, _ := time.Parse(time.RFC3339Nano, dp.CreatedAt)
	updatedAt, _ := time.Parse(time.RFC3339Nano, dp.UpdatedAt)

	return &catalog.Product{
		ID:            dp.ID,
		Name:          dp.Name,
		Description:   dp.Description,
		Brand:         dp.Brand,
		CategoryID:    dp.CategoryID,
		CategoryName:  dp.CategoryName,
		Price:         dp.Price,
		StockQuantity: dp.StockQuantity,
		ImageURL:      dp.ImageURL,
		Active:        dp.Active,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func sortProducts(products []*catalog.Product, page catalog.PageRequest) {
	less := func(i, j int) bool { return products[i].CreatedAt.Before(products[j].CreatedAt) }
	switch page.SortBy {
	case "name":
		less = func(i, j int) bool { return products[i].Name < products[j].Name }
	case "price":
		less = func(i, j int) bool { return products[i].Price < products[j].Price }
	case "stockQuantity":
		less = func(i, j int) bool { return products[i].StockQuantity < products[j].StockQuantity }
	case "updatedAt":
		less = func(i, j int) bool { return products[i].UpdatedAt.Before(products[j].UpdatedAt) }
	}
	if page.SortDir != "asc" {
		inner := less
		less = func(i, j int) bool { return inner(j, i) }
	}
	sort.SliceStable(products, less)
}
