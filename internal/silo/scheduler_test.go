package silo

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchedulerGrantsImmediatelyWhenFree(t *testing.T) {
	s := NewScheduler()

	select {
	case <-s.Acquire("a"):
	case <-time.After(time.Second):
		t.Fatal("expected immediate grant")
	}
	assert.Equal(t, "a", s.Holder())
}

func TestSchedulerQueuesSecondSiloUntilRelease(t *testing.T) {
	s := NewScheduler()
	<-s.Acquire("a")

	grantB := s.Acquire("b")
	select {
	case <-grantB:
		t.Fatal("silo b should not be granted while a holds the token")
	case <-time.After(50 * time.Millisecond):
	}
	assert.Equal(t, 1, s.Pending())

	s.Release("a")
	select {
	case <-grantB:
	case <-time.After(time.Second):
		t.Fatal("silo b was never granted after release")
	}
	assert.Equal(t, "b", s.Holder())
}

func TestSchedulerSameSiloReacquiresWithoutBlocking(t *testing.T) {
	s := NewScheduler()
	<-s.Acquire("a")

	select {
	case <-s.Acquire("a"):
	case <-time.After(time.Second):
		t.Fatal("same silo re-acquiring should not block")
	}
}

func TestSchedulerReleaseByNonHolderIsNoop(t *testing.T) {
	s := NewScheduler()
	<-s.Acquire("a")
	s.Release("b")
	require.Equal(t, "a", s.Holder())
}
