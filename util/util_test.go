// util/util_test.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package util

import (
	"bytes"
	"errors"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestRingQueue(t *testing.T) {
	q := NewRingQueue[int](8)
	if q.Cap() != 7 {
		t.Errorf("expected capacity 7, got %d", q.Cap())
	}

	// Cycle through the buffer several times so that head and tail wrap.
	next, expect := 0, 0
	for round := range 10 {
		for range 5 {
			if err := q.Push(next); err != nil {
				t.Fatalf("round %d: unexpected error %v", round, err)
			}
			next++
		}
		for range 5 {
			v, ok := q.Front()
			if !ok || v != expect {
				t.Fatalf("round %d: expected %d at front, got %d (%v)", round, expect, v, ok)
			}
			q.Pop()
			expect++
		}
		if q.Size() != 0 {
			t.Errorf("round %d: expected empty queue, got size %d", round, q.Size())
		}
	}

	for i := range 7 {
		if err := q.Push(i); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	if err := q.Push(7); !errors.Is(err, ErrRingQueueFull) {
		t.Errorf("expected ErrRingQueueFull, got %v", err)
	}
	if !slices.Equal(q.Items(), []int{0, 1, 2, 3, 4, 5, 6}) {
		t.Errorf("unexpected items %v", q.Items())
	}

	// Popping an empty queue is harmless.
	for range 10 {
		q.Pop()
	}
	if _, ok := q.Front(); ok || q.Size() != 0 {
		t.Errorf("expected empty queue")
	}
}

func TestRingQueueCapacity(t *testing.T) {
	for _, c := range []int{0, 1, 3, 12} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("%d: expected panic for invalid capacity", c)
				}
			}()
			NewRingQueue[int](c)
		}()
	}
}

func TestBarrier(t *testing.T) {
	const workers, rounds = 6, 50

	b := NewBarrier("test", workers, nil)
	var counter atomic.Int32
	var wg sync.WaitGroup
	errs := make(chan string, workers*rounds)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for r := range rounds {
				counter.Add(1)
				b.Wait()
				// Everyone has incremented for this round before anyone
				// proceeds.
				if n := counter.Load(); n < int32(workers*(r+1)) {
					errs <- "counter behind after barrier"
				}
				b.Wait()
			}
		}()
	}
	wg.Wait()
	close(errs)

	for e := range errs {
		t.Error(e)
	}
	if counter.Load() != workers*rounds {
		t.Errorf("expected %d increments, got %d", workers*rounds, counter.Load())
	}
}

func TestBarrierSingleParty(t *testing.T) {
	b := NewBarrier("solo", 1, nil)
	done := make(chan struct{})
	go func() {
		b.Wait()
		b.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatalf("single-party barrier blocked")
	}
}

func TestErrorLogger(t *testing.T) {
	var e ErrorLogger
	if e.HaveErrors() || e.Err() != nil {
		t.Errorf("expected no errors initially")
	}

	e.ErrorString("top level %d", 1)
	e.Push("schedule")
	e.Push("line 3")
	e.Error(errors.New("bad time"))
	if e.CurrentDepth() != 2 {
		t.Errorf("expected depth 2, got %d", e.CurrentDepth())
	}
	e.Pop()
	e.Pop()

	exp := []string{"top level 1", "schedule / line 3: bad time"}
	if !slices.Equal(e.Errors(), exp) {
		t.Errorf("expected %v, got %v", exp, e.Errors())
	}
	if !strings.Contains(e.Err().Error(), "line 3: bad time") {
		t.Errorf("joined error missing message: %v", e.Err())
	}

	var buf bytes.Buffer
	e.PrintErrors(&buf, nil)
	if buf.String() != "top level 1\nschedule / line 3: bad time\n" {
		t.Errorf("unexpected printed errors %q", buf.String())
	}
}

func TestUnmarshalJSONErrors(t *testing.T) {
	var v struct {
		A int `json:"a"`
	}
	if err := UnmarshalJSON(strings.NewReader(`{"a": 3}`), &v); err != nil || v.A != 3 {
		t.Errorf("unexpected result %+v %v", v, err)
	}

	err := UnmarshalJSONBytes([]byte("{\n  \"a\": \"x\"\n}"), &v)
	if err == nil || !strings.Contains(err.Error(), "line 2") {
		t.Errorf("expected type error on line 2, got %v", err)
	}

	err = UnmarshalJSONBytes([]byte("{\n\n  \"a\" 3\n}"), &v)
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Errorf("expected syntax error on line 3, got %v", err)
	}
}

func TestArchive(t *testing.T) {
	type record struct {
		Name  string
		Times []int
		Attrs map[string]bool
	}
	in := record{Name: "YYZ", Times: []int{480, 490, 550}, Attrs: map[string]bool{"hub": true}}

	var buf bytes.Buffer
	if err := EncodeArchive(&buf, in); err != nil {
		t.Fatal(err)
	}
	var out record
	if err := DecodeArchive(&buf, &out); err != nil {
		t.Fatal(err)
	}
	if out.Name != in.Name || !slices.Equal(out.Times, in.Times) || !out.Attrs["hub"] {
		t.Errorf("expected %+v, got %+v", in, out)
	}

	fn := filepath.Join(t.TempDir(), "nested", "rec.zst")
	if err := WriteArchive(fn, in); err != nil {
		t.Fatal(err)
	}
	out = record{}
	if err := ReadArchive(fn, &out); err != nil || out.Name != "YYZ" {
		t.Errorf("file round trip failed: %+v %v", out, err)
	}
}

func TestGeneric(t *testing.T) {
	if Clamp(5, 0, 3) != 3 || Clamp(-2, 0, 3) != 0 || Clamp(2, 0, 3) != 2 {
		t.Errorf("Clamp misbehaved")
	}
	if Select(true, "a", "b") != "a" || Select(false, "a", "b") != "b" {
		t.Errorf("Select misbehaved")
	}

	m := map[string]int{"YYZ": 1, "YOW": 2, "YUL": 3}
	if k := SortedMapKeys(m); !slices.Equal(k, []string{"YOW", "YUL", "YYZ"}) {
		t.Errorf("unexpected sorted keys %v", k)
	}

	if s := MapSlice([]int{1, 2, 3}, func(i int) int { return i * i }); !slices.Equal(s, []int{1, 4, 9}) {
		t.Errorf("unexpected MapSlice result %v", s)
	}
}

func TestText(t *testing.T) {
	if !IsAllLetters("YYZ") || IsAllLetters("Y1Z") {
		t.Errorf("IsAllLetters misbehaved")
	}
	if !IsAlphanumeric("W5") || IsAlphanumeric("W-5") {
		t.Errorf("IsAlphanumeric misbehaved")
	}
}
