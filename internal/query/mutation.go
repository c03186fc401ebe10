package query

import "context"

// Mutate runs a write and, only once it has succeeded, invalidates every key
// in invalidates. A failed write invalidates nothing and its error is
// returned unchanged.
func Mutate[T any](ctx context.Context, c *Cache, fn func(ctx context.Context) (T, error), invalidates ...Key) (T, error) {
	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	c.Invalidate(invalidates...)
	return out, nil
}

// MutateWith is Mutate for writes whose affected keys depend on the result,
// such as the doctor and patient of an updated appointment.
func MutateWith[T any](ctx context.Context, c *Cache, fn func(ctx context.Context) (T, error), invalidates func(T) []Key) (T, error) {
	out, err := fn(ctx)
	if err != nil {
		return out, err
	}
	c.Invalidate(invalidates(out)...)
	return out, nil
}
