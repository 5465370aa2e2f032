package middleware

import (
	"context"
	"sync/atomic"

	"github.com/hanpama/routegraph/internal/request"
)

// Apply runs steps around terminal. Each step may call next at most once;
// a step that does not call it short-circuits the rest of the chain. A
// non-nil step result replaces the downstream result.
func Apply(ctx context.Context, data *request.ResolverData, steps []Step, terminal NextFunc) (any, error) {
	if len(steps) == 0 {
		return terminal()
	}

	var cursor atomic.Int64
	cursor.Store(-1)

	var dispatch func(i int) (any, error)
	dispatch = func(i int) (any, error) {
		for {
			cur := cursor.Load()
			if int64(i) <= cur {
				return nil, ErrNextCalledMultipleTimes
			}
			if cursor.CompareAndSwap(cur, int64(i)) {
				break
			}
		}
		if i == len(steps) {
			return terminal()
		}

		var downstream any
		st := steps[i]
		res, err := st.Fn(ctx, data, func() (any, error) {
			v, err := dispatch(i + 1)
			if err == nil {
				downstream = v
			}
			return v, err
		}, st.Args)
		if err != nil {
			return nil, err
		}
		if res != nil {
			return res, nil
		}
		return downstream, nil
	}
	return dispatch(0)
}
