package s3kv

import (
	"bytes"
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dogmatiq/mapkit/driver/aws/internal/awsx"
	"github.com/dogmatiq/mapkit/driver/aws/internal/s3x"
	"github.com/dogmatiq/mapkit/kv"
)

type keyspace struct {
	client          *s3.Client
	onRequest       func(any) []func(*s3.Options)
	name            string
	bucket          string
	objectKeyPrefix string
}

func (ks *keyspace) Name() string {
	return ks.name
}

func (ks *keyspace) Get(ctx context.Context, k []byte) ([]byte, error) {
	out, err := awsx.Do(
		ctx,
		ks.client.GetObject,
		ks.onRequest,
		&s3.GetObjectInput{
			Bucket: aws.String(ks.bucket),
			Key:    aws.String(ks.objectKey(k)),
		},
	)
	if s3x.IsNotExists(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}

func (ks *keyspace) Has(ctx context.Context, k []byte) (bool, error) {
	_, err := awsx.Do(
		ctx,
		ks.client.HeadObject,
		ks.onRequest,
		&s3.HeadObjectInput{
			Bucket: aws.String(ks.bucket),
			Key:    aws.String(ks.objectKey(k)),
		},
	)
	if s3x.IsNotExists(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	return true, nil
}

func (ks *keyspace) Set(ctx context.Context, k, v []byte) error {
	if len(v) == 0 {
		return ks.delete(ctx, k)
	}

	_, err := awsx.Do(
		ctx,
		ks.client.PutObject,
		ks.onRequest,
		&s3.PutObjectInput{
			Bucket: aws.String(ks.bucket),
			Key:    aws.String(ks.objectKey(k)),
			Body:   bytes.NewReader(v),
		},
	)

	return err
}

func (ks *keyspace) SetIfAbsent(ctx context.Context, k, v []byte) error {
	if len(v) == 0 {
		return nil
	}

	_, err := awsx.Do(
		ctx,
		ks.client.PutObject,
		ks.onRequest,
		&s3.PutObjectInput{
			Bucket:      aws.String(ks.bucket),
			Key:         aws.String(ks.objectKey(k)),
			Body:        bytes.NewReader(v),
			IfNoneMatch: aws.String("*"),
		},
	)

	// A precondition failure means the key is already present, which is the
	// expected path, not an error.
	if s3x.IsConflict(err) {
		return nil
	}

	return err
}

func (ks *keyspace) delete(ctx context.Context, k []byte) error {
	_, err := awsx.Do(
		ctx,
		ks.client.DeleteObject,
		ks.onRequest,
		&s3.DeleteObjectInput{
			Bucket: aws.String(ks.bucket),
			Key:    aws.String(ks.objectKey(k)),
		},
	)

	return err
}

func (ks *keyspace) Range(
	ctx context.Context,
	fn kv.BinaryRangeFunc,
) error {
	req := s3.ListObjectsV2Input{
		Bucket: aws.String(ks.bucket),
		Prefix: aws.String(ks.objectKeyPrefix),
	}

	for {
		out, err := awsx.Do(
			ctx,
			ks.client.ListObjectsV2,
			ks.onRequest,
			&req,
		)
		if err != nil {
			return err
		}

		for _, obj := range out.Contents {
			k, err := ks.pairKey(*obj.Key)
			if err != nil {
				return err
			}

			v, err := ks.Get(ctx, k)
			if err != nil {
				return err
			}

			// The object was deleted between listing and reading it.
			if v == nil {
				continue
			}

			ok, err := fn(ctx, k, v)
			if !ok || err != nil {
				return err
			}
		}

		if out.NextContinuationToken == nil {
			return nil
		}

		req.ContinuationToken = out.NextContinuationToken
	}
}

func (ks *keyspace) Close() error {
	return nil
}

// objectKey returns the key of the object that stores the pair with the given
// key.
func (ks *keyspace) objectKey(k []byte) string {
	return ks.objectKeyPrefix + hex.EncodeToString(k)
}

// pairKey returns the pair key encoded in the given object key.
func (ks *keyspace) pairKey(objectKey string) ([]byte, error) {
	enc, ok := strings.CutPrefix(objectKey, ks.objectKeyPrefix)
	if !ok {
		return nil, fmt.Errorf("object key %q is not in the %q keyspace", objectKey, ks.name)
	}

	k, err := hex.DecodeString(enc)
	if err != nil {
		return nil, fmt.Errorf("object key %q is malformed: %w", objectKey, err)
	}

	return k, nil
}
