package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ramzi-kassab/floorman-api/internal/dto"
)

type signallingSweeper struct {
	ran chan struct{}
}

func (s *signallingSweeper) SweepAutoApprove(_ context.Context) (*dto.SweepResult, error) {
	select {
	case s.ran <- struct{}{}:
	default:
	}
	return &dto.SweepResult{}, nil
}

type recordingRecomputer struct {
	mu  sync.Mutex
	ids []string
	ran chan struct{}
}

func (r *recordingRecomputer) RecomputeEmployee(_ context.Context, employeeID string) error {
	r.mu.Lock()
	r.ids = append(r.ids, employeeID)
	r.mu.Unlock()
	select {
	case r.ran <- struct{}{}:
	default:
	}
	return nil
}

type staticEmployeeLister struct {
	ids []string
}

func (l *staticEmployeeLister) ListActiveEmployeeIDs(_ context.Context) ([]string, error) {
	return l.ids, nil
}

func TestSchedulerRunsSweepLoop(t *testing.T) {
	sweeper := &signallingSweeper{ran: make(chan struct{}, 1)}
	scheduler := NewScheduler(sweeper, nil, nil, 5*time.Millisecond, 0, nil)

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	select {
	case <-sweeper.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("sweep loop never ran")
	}
}

func TestSchedulerRunsRecomputeLoop(t *testing.T) {
	recomputer := &recordingRecomputer{ran: make(chan struct{}, 1)}
	lister := &staticEmployeeLister{ids: []string{"emp-1", "emp-2"}}
	scheduler := NewScheduler(nil, recomputer, lister, 0, 5*time.Millisecond, nil)

	scheduler.Start(context.Background())
	defer scheduler.Stop()

	select {
	case <-recomputer.ran:
	case <-time.After(2 * time.Second):
		t.Fatal("recompute loop never ran")
	}

	recomputer.mu.Lock()
	defer recomputer.mu.Unlock()
	assert.Contains(t, recomputer.ids, "emp-1")
}

func TestSchedulerDisabledIntervals(t *testing.T) {
	sweeper := &signallingSweeper{ran: make(chan struct{}, 1)}
	scheduler := NewScheduler(sweeper, nil, nil, 0, 0, nil)

	scheduler.Start(context.Background())
	scheduler.Stop()

	select {
	case <-sweeper.ran:
		t.Fatal("sweep ran despite a disabled interval")
	default:
	}
}
