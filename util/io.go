package util

import (
	"context"
	"errors"
	"io"
	"net"
	"sync"
)

// DefaultBufSize is the standard buffer size for relayed streams (32 KiB).
const DefaultBufSize = 32 * 1024

// Relay shuttles bytes between two connections until either side
// reaches EOF or the context is cancelled.  Both connections are closed
// before Relay returns.
func Relay(ctx context.Context, a, b net.Conn) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	pipe := func(dst, src net.Conn) {
		defer wg.Done()
		buf := GetBuf()
		defer PutBuf(buf)
		_, err := io.CopyBuffer(dst, src, *buf)
		// Half-close so the peer sees EOF while the reverse direction
		// drains.
		if hc, ok := dst.(interface{ CloseWrite() error }); ok {
			hc.CloseWrite() //nolint:errcheck
		}
		errCh <- err
		if err != nil {
			cancel()
		}
	}

	wg.Add(2)
	go pipe(a, b)
	go pipe(b, a)

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-ctx.Done():
	case <-done:
	}
	a.Close()
	b.Close()
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil && !isHarmless(err) {
			return err
		}
	}
	return nil
}

// isHarmless returns true for errors that are expected during shutdown.
func isHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return errors.Is(opErr.Err, net.ErrClosed)
	}
	return false
}
