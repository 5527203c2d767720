package boot

import (
	"io"
	"log/slog"

	"github.com/joshuapare/bootalloc/early"
	"github.com/joshuapare/bootalloc/mem"
)

// Options configures a boot Stage.
type Options struct {
	// PageSize is the page allocation granularity. Must be a power of two.
	// Default: early.DefaultPageSize (4 KiB)
	PageSize mem.Size

	// Logger receives allocation events. Allocations log at Debug, exhaustion at Warn.
	// Default: discard
	Logger *slog.Logger
}

// DefaultOptions returns the options used when Open is given nil.
func DefaultOptions() *Options {
	return &Options{
		PageSize: early.DefaultPageSize,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// withDefaults fills unset fields without modifying o.
func (o *Options) withDefaults() Options {
	d := DefaultOptions()
	if o == nil {
		return *d
	}
	out := *o
	if out.PageSize == 0 {
		out.PageSize = d.PageSize
	}
	if out.Logger == nil {
		out.Logger = d.Logger
	}
	return out
}
