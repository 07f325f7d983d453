package pipeline

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// taskFunc は1要素分の処理です。エラー時の戻り値は使われず、入力がそのまま残ります。
type taskFunc[T any] func(ctx context.Context, i int, item T) (T, error)

// fanOut は items の各要素に task を並行適用し、入力と同じ順序で結果を返します。
// 個々のタスクのエラーやパニックは errs[i] に記録され、その要素は入力のまま残ります。
// そのため待ち合わせ自体が失敗することはありません。
func fanOut[T any](ctx context.Context, limit int, items []T, task taskFunc[T], settled func()) ([]T, []error) {
	results := make([]T, len(items))
	errs := make([]error, len(items))

	var eg errgroup.Group
	if limit > 0 {
		eg.SetLimit(limit)
	}

	for i, item := range items {
		eg.Go(func() error {
			results[i], errs[i] = capture(ctx, i, item, task)
			if settled != nil {
				settled()
			}
			return nil
		})
	}

	_ = eg.Wait()
	return results, errs
}

func capture[T any](ctx context.Context, i int, item T, task taskFunc[T]) (out T, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = item, fmt.Errorf("panic: %v", r)
		}
	}()

	v, err := task(ctx, i, item)
	if err != nil {
		return item, err
	}
	return v, nil
}
