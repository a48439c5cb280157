package cache

import "log"

// Invalidator lets the presentation layer refresh stale reads after a
// successful mutation. Purely advisory; failures are ignored by callers.
type Invalidator interface {
	Invalidate(resourcePath string)
}

// LogInvalidator records invalidation signals in the application log. The
// presentation layer subscribes to the log stream in deployments that cache.
type LogInvalidator struct {
	logger *log.Logger
}

func NewLogInvalidator(logger *log.Logger) *LogInvalidator {
	if logger == nil {
		logger = log.Default()
	}
	return &LogInvalidator{logger: logger}
}

func (l *LogInvalidator) Invalidate(resourcePath string) {
	l.logger.Printf("cache invalidate: %s", resourcePath)
}
