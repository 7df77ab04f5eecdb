package filewatch

import (
	"context"
	"fmt"

	"github.com/fsnotify/fsnotify"
)

// ModifiedError is the cause of the cancellation by UntilModifyContext.
type ModifiedError struct {
	Name string
	Op   fsnotify.Op
}

func (e *ModifiedError) Error() string {
	return fmt.Sprintf("%s is updated (%s)", e.Name, e.Op.String())
}

// UntilModifyContext returns a context that is canceled
// when one of target files is modified (= written, created, removed, or renamed).
//
// Changes only of the file mode do not cancel the context.
// context.Cause of the cancelled context is *ModifiedError.
//
// If error is not nil, both of the context and the cancel function are nil.
func UntilModifyContext(ctx context.Context, targetFilePath ...string) (context.Context, func(), error) {
	cctx, cancel := context.WithCancelCause(ctx)

	w, err := fsnotify.NewWatcher()
	if err != nil {
		cancel(err)
		return nil, nil, err
	}

	for _, f := range targetFilePath {
		if err := w.Add(f); err != nil {
			w.Close()
			cancel(err)
			return nil, nil, err
		}
	}

	go func() {
		defer w.Close()

		for {
			select {
			case <-cctx.Done():
				return
			case event, ok := <-w.Events:
				if !ok {
					return
				}
				if event.Op == fsnotify.Chmod {
					continue
				}
				cancel(&ModifiedError{Name: event.Name, Op: event.Op})
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				cancel(err)
			}
		}
	}()

	return cctx, func() { cancel(nil) }, nil
}
