package dynamokv

import (
	"context"
	"errors"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/dogmatiq/mapkit/driver/aws/internal/awsx"
	"github.com/dogmatiq/mapkit/driver/aws/internal/dynamox"
	"github.com/dogmatiq/mapkit/kv"
)

type keyspace struct {
	Client    *dynamodb.Client
	OnRequest func(any) []func(*dynamodb.Options)

	// attr contains the attribute values that are shared by the prepared
	// requests. Assigning to an attribute's Value field before executing a
	// request avoids rebuilding the request on every operation.
	attr struct {
		Keyspace types.AttributeValueMemberS
		Key      types.AttributeValueMemberB
		Value    types.AttributeValueMemberB
	}

	request struct {
		Get         dynamodb.GetItemInput
		Has         dynamodb.GetItemInput
		Range       dynamodb.QueryInput
		Set         dynamodb.PutItemInput
		SetIfAbsent dynamodb.PutItemInput
		Delete      dynamodb.DeleteItemInput
	}
}

func (ks *keyspace) Name() string {
	return ks.attr.Keyspace.Value
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, error) {
	ks.attr.Key.Value = k

	out, err := awsx.Do(
		ctx,
		ks.Client.GetItem,
		ks.OnRequest,
		&ks.request.Get,
	)
	if err != nil || out.Item == nil {
		return nil, err
	}

	v, err := dynamox.AttrAs[*types.AttributeValueMemberB](out.Item, valueAttr)
	if err != nil {
		return nil, err
	}

	return v.Value, nil
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	ks.attr.Key.Value = k

	out, err := awsx.Do(
		ctx,
		ks.Client.GetItem,
		ks.OnRequest,
		&ks.request.Has,
	)
	if err != nil {
		return false, err
	}

	return out.Item != nil, nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte) error {
	if len(v) == 0 {
		return ks.delete(ctx, k)
	}

	ks.attr.Key.Value = k
	ks.attr.Value.Value = v

	_, err := awsx.Do(
		ctx,
		ks.Client.PutItem,
		ks.OnRequest,
		&ks.request.Set,
	)

	return err
}

func (ks *keyspace) SetIfAbsent(ctx context.Context, k, v []byte) error {
	if len(v) == 0 {
		return nil
	}

	ks.attr.Key.Value = k
	ks.attr.Value.Value = v

	_, err := awsx.Do(
		ctx,
		ks.Client.PutItem,
		ks.OnRequest,
		&ks.request.SetIfAbsent,
	)

	// A failed condition means the key is already present, which is the
	// expected path, not an error.
	if errors.As(err, new(*types.ConditionalCheckFailedException)) {
		return nil
	}

	return err
}

func (ks *keyspace) delete(ctx context.Context, k []byte) error {
	ks.attr.Key.Value = k

	_, err := awsx.Do(
		ctx,
		ks.Client.DeleteItem,
		ks.OnRequest,
		&ks.request.Delete,
	)

	return err
}

func (ks *keyspace) Range(
	ctx context.Context,
	fn kv.BinaryRangeFunc,
) error {
	req := ks.request.Range
	req.ExclusiveStartKey = nil

	for {
		out, err := awsx.Do(
			ctx,
			ks.Client.Query,
			ks.OnRequest,
			&req,
		)
		if err != nil {
			return err
		}

		for _, item := range out.Items {
			key, err := dynamox.AttrAs[*types.AttributeValueMemberB](item, keyAttr)
			if err != nil {
				return err
			}

			value, err := dynamox.AttrAs[*types.AttributeValueMemberB](item, valueAttr)
			if err != nil {
				return err
			}

			ok, err := fn(ctx, key.Value, value.Value)
			if !ok || err != nil {
				return err
			}
		}

		if out.LastEvaluatedKey == nil {
			return nil
		}

		req.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (ks *keyspace) Close() error {
	return nil
}
