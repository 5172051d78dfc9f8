package pipeline_test

import (
	"context"
	"testing"
)

func feed(t *testing.T, total int) func(ctx context.Context, rootChan chan<- int) error {
	t.Helper()

	return func(ctx context.Context, rootChan chan<- int) error {
		for i := 0; i < total; i++ {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case rootChan <- i:
			}
		}

		return nil
	}
}

func identity(_ context.Context, i int) (int, error) {
	return i, nil
}
