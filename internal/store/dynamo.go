package store

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/dynamodb"
	"github.com/aws/aws-sdk-go/service/dynamodb/dynamodbattribute"
	"github.com/dnvriend/aws-primitives-tool/internal/errs"
)

// maxTransactActions and maxTransactBytes enforce DynamoDB's
// client-side ceiling before a TransactWrite ever reaches the service.
const (
	maxTransactActions = 100
	maxTransactBytes   = 4 * 1024 * 1024

	// TypeIndexName is the cross-collection secondary index on
	// (type, updatedAt desc) every primitive's enumeration query relies on.
	TypeIndexName = "type-updatedAt-index"
)

// DynamoDriver is the sole production Driver implementation, over Amazon
// DynamoDB. It is constructed once per process, an explicit constructor
// rather than a global singleton.
type DynamoDriver struct {
	svc   *dynamodb.DynamoDB
	table string
}

// NewDynamoDriver binds region/profile at construction time, mirroring
// aistore's createSession/newS3Client split between session and per-call
// client configuration.
func NewDynamoDriver(sess *session.Session, table, region string) *DynamoDriver {
	cfg := &aws.Config{}
	if region != "" {
		cfg.Region = aws.String(region)
	}
	return &DynamoDriver{svc: dynamodb.New(sess, cfg), table: table}
}

func keyMap(k Key) map[string]*dynamodb.AttributeValue {
	return map[string]*dynamodb.AttributeValue{
		"partitionKey": {S: aws.String(k.PartitionKey)},
		"sortKey":      {S: aws.String(k.SortKey)},
	}
}

func toAttrValues(values map[string]interface{}) (map[string]*dynamodb.AttributeValue, error) {
	if len(values) == 0 {
		return nil, nil
	}
	out := map[string]*dynamodb.AttributeValue{}
	for k, v := range values {
		av, err := dynamodbattribute.Marshal(v)
		if err != nil {
			return nil, errs.InvalidArgument("could not encode value for :"+k, "check that the value is JSON-serializable")
		}
		out[":"+k] = av
	}
	return out, nil
}

func (d *DynamoDriver) PutItem(ctx context.Context, item Item, cond *Condition) error {
	av, err := dynamodbattribute.MarshalMap(item)
	if err != nil {
		return errs.InvalidArgument("could not encode item", "check the item's value and metadata fields")
	}
	in := &dynamodb.PutItemInput{TableName: aws.String(d.table), Item: av}
	if cond != nil {
		in.ConditionExpression = aws.String(cond.expr)
		in.ExpressionAttributeNames = cond.names
		vals, verr := toAttrValues(cond.values)
		if verr != nil {
			return verr
		}
		in.ExpressionAttributeValues = vals
	}
	_, err = d.svc.PutItemWithContext(ctx, in)
	return classify("PutItem", err)
}

func (d *DynamoDriver) GetItem(ctx context.Context, key Key, consistent bool) (*Item, error) {
	out, err := d.svc.GetItemWithContext(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(d.table),
		Key:            keyMap(key),
		ConsistentRead: aws.Bool(consistent),
	})
	if err != nil {
		return nil, classify("GetItem", err)
	}
	if len(out.Item) == 0 {
		return nil, errs.NotFound("item not found", "create it first, or check the name for typos")
	}
	var item Item
	if err := dynamodbattribute.UnmarshalMap(out.Item, &item); err != nil {
		return nil, errs.Wrap(errs.KindServiceError, "could not decode item", "use --verbose for details", err)
	}
	if item.Expired(time.Now().Unix()) {
		return nil, errs.NotFound("item expired", "the TTL has elapsed; treat as absent")
	}
	return &item, nil
}

func (d *DynamoDriver) UpdateItem(ctx context.Context, key Key, update Update, cond *Condition, rv ReturnValues) (*Item, error) {
	in := &dynamodb.UpdateItemInput{
		TableName:        aws.String(d.table),
		Key:              keyMap(key),
		UpdateExpression: aws.String(update.expr),
		ReturnValues:     aws.String(string(rv)),
	}
	names := mergeNames(update.names)
	values := mergeValues(update.values)
	if cond != nil {
		in.ConditionExpression = aws.String(cond.expr)
		names = mergeNames(names, cond.names)
		values = mergeValues(values, cond.values)
	}
	if len(names) > 0 {
		in.ExpressionAttributeNames = names
	}
	vals, err := toAttrValues(values)
	if err != nil {
		return nil, err
	}
	in.ExpressionAttributeValues = vals

	out, err := d.svc.UpdateItemWithContext(ctx, in)
	if err != nil {
		return nil, classify("UpdateItem", err)
	}
	if rv == ReturnNone || len(out.Attributes) == 0 {
		return nil, nil
	}
	var item Item
	if err := dynamodbattribute.UnmarshalMap(out.Attributes, &item); err != nil {
		return nil, errs.Wrap(errs.KindServiceError, "could not decode updated item", "use --verbose for details", err)
	}
	return &item, nil
}

func (d *DynamoDriver) DeleteItem(ctx context.Context, key Key, cond *Condition) error {
	in := &dynamodb.DeleteItemInput{TableName: aws.String(d.table), Key: keyMap(key)}
	if cond != nil {
		in.ConditionExpression = aws.String(cond.expr)
		in.ExpressionAttributeNames = cond.names
		vals, err := toAttrValues(cond.values)
		if err != nil {
			return err
		}
		in.ExpressionAttributeValues = vals
	}
	_, err := d.svc.DeleteItemWithContext(ctx, in)
	return classify("DeleteItem", err)
}

func (d *DynamoDriver) Query(ctx context.Context, in QueryInput) (*QueryOutput, error) {
	names := map[string]*string{}
	var keyExpr string
	var values map[string]interface{}

	if in.TypeIndex {
		keyExpr = "#ty = :ty"
		names["#ty"] = aws.String("type")
		values = map[string]interface{}{"ty": in.PartitionKey}
	} else {
		keyExpr = "partitionKey = :pk"
		values = map[string]interface{}{"pk": in.PartitionKey}
		switch {
		case in.SortKeyPrefix != "":
			keyExpr += " AND begins_with(sortKey, :skPrefix)"
			values["skPrefix"] = in.SortKeyPrefix
		case in.SortKeyBetween != nil:
			keyExpr += " AND sortKey BETWEEN :skLo AND :skHi"
			values["skLo"] = in.SortKeyBetween[0]
			values["skHi"] = in.SortKeyBetween[1]
		}
	}

	qin := &dynamodb.QueryInput{
		TableName:              aws.String(d.table),
		KeyConditionExpression: aws.String(keyExpr),
		ScanIndexForward:       aws.Bool(in.Ascending),
	}
	if in.TypeIndex {
		qin.IndexName = aws.String(TypeIndexName)
	}
	if in.Limit > 0 {
		qin.Limit = aws.Int64(int64(in.Limit))
	}
	if in.CountOnly {
		qin.Select = aws.String(dynamodb.SelectCount)
	}
	if in.FilterExpr != nil {
		qin.FilterExpression = aws.String(in.FilterExpr.expr)
		for k, v := range in.FilterExpr.names {
			names[k] = v
		}
		for k, v := range in.FilterExpr.values {
			values[k] = v
		}
	}
	if in.ExclusiveStart != nil {
		qin.ExclusiveStartKey = keyMap(*in.ExclusiveStart)
	}
	if len(names) > 0 {
		qin.ExpressionAttributeNames = names
	}
	vals, err := toAttrValues(values)
	if err != nil {
		return nil, err
	}
	qin.ExpressionAttributeValues = vals

	out, err := d.svc.QueryWithContext(ctx, qin)
	if err != nil {
		return nil, classify("Query", err)
	}
	result := &QueryOutput{Count: int(aws.Int64Value(out.Count))}
	if out.LastEvaluatedKey != nil {
		var lk Key
		lk.PartitionKey = aws.StringValue(out.LastEvaluatedKey["partitionKey"].S)
		lk.SortKey = aws.StringValue(out.LastEvaluatedKey["sortKey"].S)
		result.LastKey = &lk
	}
	now := time.Now().Unix()
	for _, raw := range out.Items {
		var item Item
		if err := dynamodbattribute.UnmarshalMap(raw, &item); err != nil {
			return nil, errs.Wrap(errs.KindServiceError, "could not decode item in query result", "use --verbose for details", err)
		}
		if item.Expired(now) {
			continue
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func (d *DynamoDriver) TransactWrite(ctx context.Context, actions []TransactAction) error {
	if len(actions) > maxTransactActions {
		return errs.InvalidArgument("transaction exceeds 100 actions", "split the batch into multiple transactions")
	}
	seen := map[Key]bool{}
	items := make([]*dynamodb.TransactWriteItem, 0, len(actions))
	approxSize := 0
	for _, a := range actions {
		if seen[a.Key] {
			return errs.InvalidArgument("transaction targets the same item twice", "each (partitionKey, sortKey) may appear at most once per transaction")
		}
		seen[a.Key] = true

		switch {
		case a.Put != nil:
			av, err := dynamodbattribute.MarshalMap(*a.Put)
			if err != nil {
				return errs.InvalidArgument("could not encode item for transaction", "check the item's value and metadata fields")
			}
			approxSize += estimateSize(av)
			put := &dynamodb.Put{TableName: aws.String(d.table), Item: av}
			if a.Condition != nil {
				put.ConditionExpression = aws.String(a.Condition.expr)
				put.ExpressionAttributeNames = a.Condition.names
				vals, err := toAttrValues(a.Condition.values)
				if err != nil {
					return err
				}
				put.ExpressionAttributeValues = vals
			}
			items = append(items, &dynamodb.TransactWriteItem{Put: put})
		case a.Update != nil:
			upd := &dynamodb.Update{
				TableName:        aws.String(d.table),
				Key:              keyMap(a.Key),
				UpdateExpression: aws.String(a.Update.expr),
			}
			names := mergeNames(a.Update.names)
			values := mergeValues(a.Update.values)
			if a.Condition != nil {
				upd.ConditionExpression = aws.String(a.Condition.expr)
				names = mergeNames(names, a.Condition.names)
				values = mergeValues(values, a.Condition.values)
			}
			if len(names) > 0 {
				upd.ExpressionAttributeNames = names
			}
			vals, err := toAttrValues(values)
			if err != nil {
				return err
			}
			upd.ExpressionAttributeValues = vals
			items = append(items, &dynamodb.TransactWriteItem{Update: upd})
		case a.Delete:
			del := &dynamodb.Delete{TableName: aws.String(d.table), Key: keyMap(a.Key)}
			if a.Condition != nil {
				del.ConditionExpression = aws.String(a.Condition.expr)
				del.ExpressionAttributeNames = a.Condition.names
				vals, err := toAttrValues(a.Condition.values)
				if err != nil {
					return err
				}
				del.ExpressionAttributeValues = vals
			}
			items = append(items, &dynamodb.TransactWriteItem{Delete: del})
		case a.ConditionCheck:
			cc := &dynamodb.ConditionCheck{TableName: aws.String(d.table), Key: keyMap(a.Key)}
			if a.Condition != nil {
				cc.ConditionExpression = aws.String(a.Condition.expr)
				cc.ExpressionAttributeNames = a.Condition.names
				vals, err := toAttrValues(a.Condition.values)
				if err != nil {
					return err
				}
				cc.ExpressionAttributeValues = vals
			}
			items = append(items, &dynamodb.TransactWriteItem{ConditionCheck: cc})
		}
	}
	if approxSize > maxTransactBytes {
		return errs.InvalidArgument("transaction exceeds 4MB aggregate payload", "reduce the size or number of items in the batch")
	}
	_, err := d.svc.TransactWriteItemsWithContext(ctx, &dynamodb.TransactWriteItemsInput{TransactItems: items})
	return classify("TransactWrite", err)
}

func (d *DynamoDriver) TransactGet(ctx context.Context, keys []Key) ([]*Item, error) {
	gets := make([]*dynamodb.TransactGetItem, len(keys))
	for i, k := range keys {
		gets[i] = &dynamodb.TransactGetItem{Get: &dynamodb.Get{TableName: aws.String(d.table), Key: keyMap(k)}}
	}
	out, err := d.svc.TransactGetItemsWithContext(ctx, &dynamodb.TransactGetItemsInput{TransactItems: gets})
	if err != nil {
		return nil, classify("TransactGet", err)
	}
	now := time.Now().Unix()
	results := make([]*Item, len(out.Responses))
	for i, resp := range out.Responses {
		if resp == nil || len(resp.Item) == 0 {
			continue
		}
		var item Item
		if err := dynamodbattribute.UnmarshalMap(resp.Item, &item); err != nil {
			return nil, errs.Wrap(errs.KindServiceError, "could not decode item in transaction read", "use --verbose for details", err)
		}
		if item.Expired(now) {
			continue
		}
		results[i] = &item
	}
	return results, nil
}

// estimateSize approximates the marshaled size of an item for the
// client-side 4MB TransactWrite ceiling; DynamoDB's own accounting is not
// exposed to the SDK, so this errs on the side of a generous estimate.
func estimateSize(av map[string]*dynamodb.AttributeValue) int {
	size := 0
	for k, v := range av {
		size += len(k)
		if v.S != nil {
			size += len(*v.S)
		}
		if v.N != nil {
			size += len(*v.N)
		}
		if v.B != nil {
			size += len(v.B)
		}
	}
	return size
}
