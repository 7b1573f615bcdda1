package eventbus

import (
	"context"
	"fmt"

	logx "timesignal/pkg/logx"
)

// Log writes every event at debug level until ctx is done.
func Log(ctx context.Context, bus Bus, log logx.Logger) {
	if bus == nil || log.IsZero() {
		return
	}
	ch, unsub := bus.Subscribe(64)
	defer unsub()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-ch:
			if !ok {
				return
			}
			fields := []logx.Field{logx.String("type", e.Type), logx.Time("at", e.Time)}
			if m, ok := e.Data.(map[string]any); ok {
				for k, v := range m {
					fields = append(fields, logx.String(k, fmt.Sprint(v)))
				}
			} else if e.Data != nil {
				fields = append(fields, logx.Any("data", e.Data))
			}
			log.Debug("event", fields...)
		}
	}
}
