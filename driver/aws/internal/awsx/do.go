package awsx

import (
	"context"
)

// Do executes an AWS API request.
//
// fn is a function that is called to execute the request, typically a method on
// an AWS service client such as [dynamodb.Client] or [s3.Client].
//
// m is a function that mutates the input value before it is sent and returns
// any options that should be used when sending the request.
func Do[In, Out, Opt any](
	ctx context.Context,
	fn func(context.Context, *In, ...func(*Opt)) (Out, error),
	m func(any) []func(*Opt),
	in *In,
) (out Out, err error) {
	var options []func(*Opt)
	if m != nil {
		options = m(in)
	}
	return fn(ctx, in, options...)
}
