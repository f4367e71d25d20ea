package service

import "context"

// ParentResult carries the outcome of an asynchronous parent lookup.
type ParentResult struct {
	Handle *Handle
	Err    error
}

// DeleteAsync runs Delete in a goroutine and delivers the outcome on
// the returned channel. The channel is buffered, so the result can be
// collected at any time.
func (h *Handle) DeleteAsync(ctx context.Context, opts DeleteOptions) <-chan error {
	ch := make(chan error, 1)
	go func() {
		ch <- h.Delete(ctx, opts)
	}()
	return ch
}

// ParentAsync runs Parent in a goroutine and delivers the outcome on
// the returned channel.
func (h *Handle) ParentAsync(ctx context.Context) <-chan ParentResult {
	ch := make(chan ParentResult, 1)
	go func() {
		parent, err := h.Parent(ctx)
		ch <- ParentResult{Handle: parent, Err: err}
	}()
	return ch
}
