package jobs

import (
	"context"
	"errors"
	"testing"
)

type stubExpirer struct {
	calls int
	err   error
}

func (e *stubExpirer) ExpireOverdue(ctx context.Context) (int64, error) {
	e.calls++
	if _, ok := ctx.Deadline(); !ok {
		return 0, errors.New("sweep ran without a deadline")
	}
	return 3, e.err
}

func TestRunExpiryCallsExpirer(t *testing.T) {
	e := &stubExpirer{}
	s := NewScheduler(e, nil)
	s.runExpiry()
	if e.calls != 1 {
		t.Fatalf("calls = %d, want 1", e.calls)
	}

	e.err = errors.New("boom")
	s.runExpiry() // logged, not panicking
	if e.calls != 2 {
		t.Fatalf("calls = %d, want 2", e.calls)
	}
}

func TestStartRejectsBadSpec(t *testing.T) {
	s := NewScheduler(&stubExpirer{}, nil)
	if err := s.Start("not a cron spec"); err == nil {
		t.Fatal("Start() accepted an invalid spec")
	}
}

func TestStartAndStop(t *testing.T) {
	s := NewScheduler(&stubExpirer{}, nil)
	if err := s.Start("5 0 * * *"); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	<-s.Stop().Done()
}
