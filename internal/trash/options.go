package trash

import (
	"time"

	"go.uber.org/zap"
)

// DefaultChunkSize is the page size used when relocating unbounded bulk deletes.
const DefaultChunkSize = 1000

type options struct {
	chunkSize     int
	lockForUpdate bool
	now           func() time.Time
	log           *zap.Logger
}

// Option configures a Repo.
type Option func(*options)

// WithChunkSize sets the page size for chunked relocation.
func WithChunkSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.chunkSize = n
		}
	}
}

// WithLockForUpdate makes bulk relocations fetch their rows with SELECT ... FOR UPDATE.
// SQLite does not support it.
func WithLockForUpdate(on bool) Option {
	return func(o *options) { o.lockForUpdate = on }
}

// WithClock overrides the clock used to stamp trashed-at and updated-at columns.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		if now != nil {
			o.now = now
		}
	}
}

// WithLogger sets the logger for relocation traces.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.log = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{
		chunkSize: DefaultChunkSize,
		now:       time.Now,
		log:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
