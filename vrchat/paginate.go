package vrchat

import (
	"context"
	"iter"
	"time"
)

// DefaultPageSize is the page size used when PageOptions.Size is zero.
const DefaultPageSize = 100

// PageOptions controls how a listing is walked.
type PageOptions struct {
	// Size is the number of items requested per page.
	Size int
	// Max stops the walk after this many items. Zero means no limit.
	Max int
	// Delay is slept between page requests.
	Delay time.Duration
}

func (o PageOptions) size() int {
	if o.Size <= 0 {
		return DefaultPageSize
	}
	if o.Max > 0 && o.Max < o.Size {
		return o.Max
	}
	return o.Size
}

// PageFunc fetches one page of n items starting at offset.
type PageFunc[T any] func(ctx context.Context, n, offset int) ([]T, error)

// Paginate walks fetch page by page until an empty or short page, the Max
// limit, or an error. An error is yielded once and ends the sequence.
func Paginate[T any](ctx context.Context, fetch PageFunc[T], opts PageOptions) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		n := opts.size()
		offset, seen := 0, 0
		for {
			if offset > 0 && opts.Delay > 0 {
				t := time.NewTimer(opts.Delay)
				select {
				case <-ctx.Done():
					t.Stop()
					var zero T
					yield(zero, ctx.Err())
					return
				case <-t.C:
				}
			}
			page, err := fetch(ctx, n, offset)
			if err != nil {
				var zero T
				yield(zero, err)
				return
			}
			for _, item := range page {
				if !yield(item, nil) {
					return
				}
				seen++
				if opts.Max > 0 && seen >= opts.Max {
					return
				}
			}
			if len(page) < n {
				return
			}
			offset += len(page)
		}
	}
}

// Collect drains a paginated sequence into a slice.
func Collect[T any](seq iter.Seq2[T, error]) ([]T, error) {
	var out []T
	for item, err := range seq {
		if err != nil {
			return out, err
		}
		out = append(out, item)
	}
	return out, nil
}
