package try_test

import (
	"errors"
	"testing"

	"github.com/opst/podconsole/pkg/utils/try"
)

type fataler struct {
	fatal [][]any
}

func (f *fataler) Fatal(args ...any) {
	f.fatal = append(f.fatal, args)
}

type helperfataler struct {
	fataler

	helper uint
}

func (hf *helperfataler) Helper() {
	hf.helper += 1
}

func TestTry(t *testing.T) {
	t.Run("when it does not have error,", func(t *testing.T) {
		expected := 42
		testee := try.To(expected, nil)

		t.Run("OrFatal returns the value", func(t *testing.T) {
			f := &fataler{}
			if actual := testee.OrFatal(f); actual != expected {
				t.Errorf("unexpected result: (actual, expected) = (%d, %d)", actual, expected)
			}
			if len(f.fatal) != 0 {
				t.Errorf("Fatal is called: %v", f.fatal)
			}
		})

		t.Run("OrDefault returns the value", func(t *testing.T) {
			if actual := testee.OrDefault(-1); actual != expected {
				t.Errorf("unexpected result: (actual, expected) = (%d, %d)", actual, expected)
			}
		})

		t.Run("Map converts the value", func(t *testing.T) {
			actual, err := try.Map(testee, func(i int) int { return i * 2 }).Get()
			if err != nil || actual != 84 {
				t.Errorf("unexpected result: (%d, %v)", actual, err)
			}
		})
	})

	t.Run("when it has error,", func(t *testing.T) {
		expectedErr := errors.New("fake error")
		testee := try.To(42, expectedErr)

		t.Run("OrFatal calls Helper and Fatal", func(t *testing.T) {
			f := &helperfataler{}
			if actual := testee.OrFatal(f); actual != 0 {
				t.Errorf("value is not zero: %d", actual)
			}
			if f.helper != 1 {
				t.Errorf("Helper is called %d times", f.helper)
			}
			if len(f.fatal) != 1 || f.fatal[0][0] != expectedErr {
				t.Errorf("Fatal is not called with the error: %v", f.fatal)
			}
		})

		t.Run("OrDefault returns default", func(t *testing.T) {
			if actual := testee.OrDefault(-1); actual != -1 {
				t.Errorf("unexpected result: %d", actual)
			}
		})

		t.Run("Get gives zero and the error", func(t *testing.T) {
			v, err := testee.Get()
			if v != 0 || !errors.Is(err, expectedErr) {
				t.Errorf("unexpected result: (%d, %v)", v, err)
			}
		})

		t.Run("Map keeps the error", func(t *testing.T) {
			_, err := try.Map(testee, func(i int) string { return "never" }).Get()
			if !errors.Is(err, expectedErr) {
				t.Errorf("error is lost: %v", err)
			}
		})
	})
}
