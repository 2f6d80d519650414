package testutil

import "sync"

// ConcurrentTestRunner starts a batch of functions at the same instant so they
// genuinely contend (for example on a unique constraint).
type ConcurrentTestRunner struct {
	t TestingTB
}

// NewConcurrentTestRunner creates a runner bound to t.
func NewConcurrentTestRunner(t TestingTB) *ConcurrentTestRunner {
	return &ConcurrentTestRunner{t: t}
}

// RunConcurrent releases every function together and waits for all of them.
// errs[i] is the result of funcs[i].
func (r *ConcurrentTestRunner) RunConcurrent(funcs ...func() error) []error {
	r.t.Helper()

	errs := make([]error, len(funcs))
	start := make(chan struct{})
	var wg sync.WaitGroup
	for i, fn := range funcs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}()
	}
	close(start)
	wg.Wait()
	return errs
}
