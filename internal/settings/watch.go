package settings

import (
	"context"

	"timesignal/internal/fswatch"
	logx "timesignal/pkg/logx"
)

// Watch calls fn whenever the store's backing files change, whoever wrote
// them. It blocks until ctx is done.
func Watch(ctx context.Context, cfg Config, log logx.Logger, fn func()) error {
	path, companions := WatchedFiles(cfg)
	return fswatch.File{
		Path:       path,
		Companions: companions,
		Log:        log.With(logx.String("comp", "settings.watch")),
	}.Run(ctx, fn)
}
