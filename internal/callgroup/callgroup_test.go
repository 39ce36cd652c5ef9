package callgroup

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDeduplication(t *testing.T) {
	var g Group[int, int]
	var calls atomic.Int32
	started := make(chan struct{})
	var once sync.Once

	fn := func() (int, error) {
		calls.Add(1)
		once.Do(func() { close(started) })
		time.Sleep(50 * time.Millisecond)
		return 7, nil
	}

	const n = 10
	var wg sync.WaitGroup
	vals := make([]int, n)
	errs := make([]error, n)

	wg.Add(1)
	go func() {
		defer wg.Done()
		vals[0], errs[0] = g.Do(1, fn)
	}()

	<-started
	for i := 1; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			vals[i], errs[i] = g.Do(1, fn)
		}(i)
	}

	wg.Wait()

	for i := range errs {
		if errs[i] != nil {
			t.Errorf("caller %d got error: %v", i, errs[i])
		}
		if vals[i] != 7 {
			t.Errorf("caller %d got %d, want 7", i, vals[i])
		}
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("fn called %d times, want 1", got)
	}
}

func TestIndependentKeys(t *testing.T) {
	var g Group[int, int]
	var calls atomic.Int32

	fn := func() (int, error) {
		calls.Add(1)
		return 1, nil
	}

	var wg sync.WaitGroup
	for _, key := range []int{1, 2, 3} {
		wg.Add(1)
		go func(key int) {
			defer wg.Done()
			g.Do(key, fn)
		}(key)
	}
	wg.Wait()

	if got := calls.Load(); got != 3 {
		t.Errorf("fn called %d times, want 3", got)
	}
}

func TestWaiterReceivesResult(t *testing.T) {
	var g Group[int, string]
	started := make(chan struct{})
	var once sync.Once

	fn := func() (string, error) {
		once.Do(func() { close(started) })
		time.Sleep(50 * time.Millisecond)
		return "built", nil
	}

	var val1, val2 string
	var err1, err2 error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		val1, err1 = g.Do(1, fn)
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		val2, err2 = g.Do(1, func() (string, error) {
			t.Error("second fn should not execute")
			return "", errors.New("unexpected")
		})
	}()
	wg.Wait()

	if err1 != nil || err2 != nil {
		t.Fatalf("unexpected errors: %v, %v", err1, err2)
	}
	if val1 != "built" || val2 != "built" {
		t.Errorf("got (%q, %q), want both %q", val1, val2, "built")
	}
}

func TestErrorPropagation(t *testing.T) {
	var g Group[int, int]
	sentinel := errors.New("failed")
	started := make(chan struct{})
	var once sync.Once

	var err1, err2 error
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err1 = g.Do(1, func() (int, error) {
			once.Do(func() { close(started) })
			time.Sleep(50 * time.Millisecond)
			return 0, sentinel
		})
	}()
	<-started

	wg.Add(1)
	go func() {
		defer wg.Done()
		_, err2 = g.Do(1, func() (int, error) {
			t.Error("should not execute")
			return 0, nil
		})
	}()
	wg.Wait()

	if !errors.Is(err1, sentinel) {
		t.Errorf("caller 1: got %v, want %v", err1, sentinel)
	}
	if !errors.Is(err2, sentinel) {
		t.Errorf("caller 2: got %v, want %v", err2, sentinel)
	}
}

func TestReuseAfterCompletion(t *testing.T) {
	var g Group[int, int]
	var calls atomic.Int32

	fn := func() (int, error) {
		calls.Add(1)
		return int(calls.Load()), nil
	}

	if _, err := g.Do(1, fn); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := g.Do(1, fn); err != nil {
		t.Fatalf("second call: %v", err)
	}

	if got := calls.Load(); got != 2 {
		t.Errorf("fn called %d times, want 2", got)
	}
}
