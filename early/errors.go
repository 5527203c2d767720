package early

import "errors"

var (
	// ErrNoMemory indicates the request does not fit between the byte and page
	// cursors, or that the region was asked to grow. It is the only exhaustion error.
	ErrNoMemory = errors.New("early: no memory")

	// ErrUnsupported indicates an operation this allocator never performs,
	// currently page deallocation.
	ErrUnsupported = errors.New("early: unsupported operation")

	// ErrUninitialized indicates an allocation call before Init.
	ErrUninitialized = errors.New("early: allocator not initialized")

	// ErrAlreadyInitialized indicates a second call to Init.
	ErrAlreadyInitialized = errors.New("early: allocator already initialized")

	// ErrInvalidParam indicates an alignment or page size that is not a power of
	// two, a negative count, or a region that wraps the address space.
	ErrInvalidParam = errors.New("early: invalid parameter")

	// ErrNoOutstanding indicates Dealloc was called with no byte allocation outstanding.
	ErrNoOutstanding = errors.New("early: no outstanding byte allocation")
)

// InvariantError reports a broken Region State invariant.
type InvariantError struct {
	msg string
}

func (e *InvariantError) Error() string {
	return "early: invariant violated: " + e.msg
}
