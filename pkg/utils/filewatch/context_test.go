package filewatch_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/opst/podconsole/pkg/utils/filewatch"
)

func TestUntilModifyContext(t *testing.T) {
	for name, testcase := range map[string]struct {
		watchDir bool
		modify   func(t *testing.T, file string)
	}{
		"when a file is created in a watched directory, it cancels context": {
			watchDir: true,
			modify: func(t *testing.T, file string) {
				if err := os.WriteFile(file+".new", []byte("new"), 0600); err != nil {
					t.Fatal(err)
				}
			},
		},
		"when the watched file is written, it cancels context": {
			modify: func(t *testing.T, file string) {
				if err := os.WriteFile(file, []byte("apiRoot: http://localhost\n"), 0600); err != nil {
					t.Fatal(err)
				}
			},
		},
		"when the watched file is deleted, it cancels context": {
			modify: func(t *testing.T, file string) {
				if err := os.Remove(file); err != nil {
					t.Fatal(err)
				}
			},
		},
		"when the watched file is renamed, it cancels context": {
			modify: func(t *testing.T, file string) {
				if err := os.Rename(file, file+".bak"); err != nil {
					t.Fatal(err)
				}
			},
		},
	} {
		t.Run(name, func(t *testing.T) {
			dir := t.TempDir()
			file := filepath.Join(dir, "config.yaml")
			if err := os.WriteFile(file, []byte("{}"), 0600); err != nil {
				t.Fatal(err)
			}
			target := file
			if testcase.watchDir {
				target = dir
			}

			ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), target)
			if err != nil {
				t.Fatal(err)
			}
			defer cancel()
			if err := ctx.Err(); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			testcase.modify(t, file)

			select {
			case <-ctx.Done():
			case <-time.After(5 * time.Second):
				t.Fatal("context is not cancelled")
			}
			merr := new(filewatch.ModifiedError)
			if !errors.As(context.Cause(ctx), &merr) {
				t.Errorf("unexpected cause: %v", context.Cause(ctx))
			}
		})
	}

	t.Run("when only the mode of the watched file is changed, it does not cancel context", func(t *testing.T) {
		dir := t.TempDir()
		file := filepath.Join(dir, "config.yaml")
		if err := os.WriteFile(file, []byte("{}"), 0600); err != nil {
			t.Fatal(err)
		}

		ctx, cancel, err := filewatch.UntilModifyContext(context.Background(), file)
		if err != nil {
			t.Fatal(err)
		}
		defer cancel()

		if err := os.Chmod(file, 0644); err != nil {
			t.Fatal(err)
		}

		select {
		case <-ctx.Done():
			t.Errorf("context is cancelled: %v", context.Cause(ctx))
		case <-time.After(200 * time.Millisecond):
		}
	})

	t.Run("when the target does not exist, it returns error", func(t *testing.T) {
		_, _, err := filewatch.UntilModifyContext(context.Background(), filepath.Join(t.TempDir(), "missing"))
		if err == nil {
			t.Error("no error")
		}
	})
}
