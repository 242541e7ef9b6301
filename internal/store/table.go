package store

import (
	"context"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/dynamodb"
)

// TableRecord is the canonical response shape for backing-table lifecycle
// operations, supplementing the fixed (partitionKey, sortKey,
// type-updatedAt-index) schema with the create|describe|delete surface
// is needed.
type TableRecord struct {
	Name      string `json:"name"`
	Status    string `json:"status,omitempty"`
	ItemCount int64  `json:"itemCount,omitempty"`
}

func (r TableRecord) PrimaryScalar() interface{} { return r.Name }

// CreateTable provisions the backing table with the fixed (partitionKey,
// sortKey) primary key and the (type, updatedAt) global secondary index
// every primitive's enumeration query relies on, plus TTL on the "ttl"
// attribute.
func (d *DynamoDriver) CreateTable(ctx context.Context, name string) (*TableRecord, error) {
	in := &dynamodb.CreateTableInput{
		TableName:   aws.String(name),
		BillingMode: aws.String(dynamodb.BillingModePayPerRequest),
		AttributeDefinitions: []*dynamodb.AttributeDefinition{
			{AttributeName: aws.String("partitionKey"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
			{AttributeName: aws.String("sortKey"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
			{AttributeName: aws.String("type"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeS)},
			{AttributeName: aws.String("updatedAt"), AttributeType: aws.String(dynamodb.ScalarAttributeTypeN)},
		},
		KeySchema: []*dynamodb.KeySchemaElement{
			{AttributeName: aws.String("partitionKey"), KeyType: aws.String(dynamodb.KeyTypeHash)},
			{AttributeName: aws.String("sortKey"), KeyType: aws.String(dynamodb.KeyTypeRange)},
		},
		GlobalSecondaryIndexes: []*dynamodb.GlobalSecondaryIndex{
			{
				IndexName: aws.String(TypeIndexName),
				KeySchema: []*dynamodb.KeySchemaElement{
					{AttributeName: aws.String("type"), KeyType: aws.String(dynamodb.KeyTypeHash)},
					{AttributeName: aws.String("updatedAt"), KeyType: aws.String(dynamodb.KeyTypeRange)},
				},
				Projection: &dynamodb.Projection{ProjectionType: aws.String(dynamodb.ProjectionTypeAll)},
			},
		},
	}
	out, err := d.svc.CreateTableWithContext(ctx, in)
	if err != nil {
		return nil, classify("CreateTable", err)
	}
	if _, err := d.svc.UpdateTimeToLiveWithContext(ctx, &dynamodb.UpdateTimeToLiveInput{
		TableName: aws.String(name),
		TimeToLiveSpecification: &dynamodb.TimeToLiveSpecification{
			AttributeName: aws.String("ttl"), Enabled: aws.Bool(true),
		},
	}); err != nil {
		return nil, classify("UpdateTimeToLive", err)
	}
	return &TableRecord{Name: name, Status: aws.StringValue(out.TableDescription.TableStatus)}, nil
}

func (d *DynamoDriver) DescribeTable(ctx context.Context, name string) (*TableRecord, error) {
	out, err := d.svc.DescribeTableWithContext(ctx, &dynamodb.DescribeTableInput{TableName: aws.String(name)})
	if err != nil {
		return nil, classify("DescribeTable", err)
	}
	return &TableRecord{
		Name: name, Status: aws.StringValue(out.Table.TableStatus), ItemCount: aws.Int64Value(out.Table.ItemCount),
	}, nil
}

func (d *DynamoDriver) DeleteTable(ctx context.Context, name string) error {
	_, err := d.svc.DeleteTableWithContext(ctx, &dynamodb.DeleteTableInput{TableName: aws.String(name)})
	return classify("DeleteTable", err)
}
