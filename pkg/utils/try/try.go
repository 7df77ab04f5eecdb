package try

// something have method `Fatal`.
//
// For example in standard libraries: *testing.T, log.Logger
type Fataler interface {
	Fatal(...any)
}

// Either wraps a (T, error) pair returned by a function.
//
// It is "ok" when the error is nil. Otherwise the T value is meaningless.
type Either[T any] interface {
	// Get returns the pair as it was.
	Get() (T, error)

	// OrFatal returns the value when ok, or calls ftl.Fatal(err).
	//
	// When ftl has "Helper()" (like *testing.T), that is called before Fatal.
	OrFatal(ftl Fataler) T

	// OrDefault returns the value when ok, or d.
	OrDefault(d T) T
}

// To captures the result of a function call, like try.To(strconv.Atoi("1")).
func To[T any](ok T, ng error) Either[T] {
	return either[T]{value: ok, err: ng}
}

// Map converts the value when ok, keeping the error otherwise.
func Map[T any, R any](e Either[T], mapper func(T) R) Either[R] {
	val, err := e.Get()
	if err != nil {
		return either[R]{err: err}
	}
	return either[R]{value: mapper(val)}
}

type either[T any] struct {
	value T
	err   error
}

func (e either[T]) Get() (T, error) {
	if e.err != nil {
		return *new(T), e.err
	}
	return e.value, nil
}

func (e either[T]) OrDefault(d T) T {
	if e.err != nil {
		return d
	}
	return e.value
}

func (e either[T]) OrFatal(ftl Fataler) T {
	if e.err == nil {
		return e.value
	}
	if hlp, ok := ftl.(interface{ Helper() }); ok {
		hlp.Helper() // think *testing.T
	}
	ftl.Fatal(e.err)
	return *new(T)
}
