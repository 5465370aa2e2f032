package resolve

import (
	"context"

	"github.com/hanpama/routegraph/internal/metadata"
	"github.com/hanpama/routegraph/internal/reqid"
	"github.com/hanpama/routegraph/internal/request"
	"go.uber.org/zap"
)

// Subscribe returns the event source of a subscription handler. Payloads
// published on the handler's topics are delivered until ctx is done; the
// handler's filter drops payloads it rejects.
func (e *Engine) Subscribe(meta *metadata.SubscriptionResolverMetadata) SourceFunc {
	snap := e.bc.Snapshot()
	return func(ctx context.Context, root any, args map[string]any, info *request.Info) (<-chan any, error) {
		ctx, _ = reqid.Ensure(ctx)
		data := &request.ResolverData{
			Root:    root,
			Args:    args,
			Context: request.NewContext(ctx, request.FromContext(ctx).Values()),
			Info:    info,
		}
		topics := meta.Topics
		if meta.TopicsFunc != nil {
			var err error
			if topics, err = meta.TopicsFunc(data); err != nil {
				return nil, err
			}
		}
		msgs, err := snap.PubSub.Subscribe(ctx, topics...)
		if err != nil {
			return nil, err
		}

		out := make(chan any)
		go func() {
			defer close(out)
			for msg := range msgs {
				if meta.Filter != nil {
					ok, err := meta.Filter(ctx, msg.Payload, data)
					if err != nil {
						snap.Logger.Warn("subscription filter failed",
							zap.String("method", meta.MethodName),
							zap.String("topic", msg.Topic),
							zap.Error(err),
						)
						continue
					}
					if !ok {
						continue
					}
				}
				select {
				case out <- msg.Payload:
				case <-ctx.Done():
					return
				}
			}
		}()
		return out, nil
	}
}
