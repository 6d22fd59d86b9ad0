package events_test

import (
	"testing"

	"github.com/aretw0/waypoint/pkg/events"
	"github.com/stretchr/testify/assert"
)

func TestDispatcher_Order(t *testing.T) {
	d := events.New[int]()
	var got []string
	d.Register(func(v int) { got = append(got, "a") })
	d.Register(func(v int) { got = append(got, "b") })
	d.Broadcast(1)
	assert.Equal(t, []string{"a", "b"}, got)
	assert.Equal(t, 2, d.Len())
}

func TestDispatcher_DuplicateRegistrations(t *testing.T) {
	d := events.New[int]()
	var calls int
	fn := func(int) { calls++ }
	first := d.Register(fn)
	d.Register(fn)

	d.Broadcast(0)
	assert.Equal(t, 2, calls)

	first()
	first()
	d.Broadcast(0)
	assert.Equal(t, 3, calls)
	assert.Equal(t, 1, d.Len())
}

func TestDispatcher_ReentrantChanges(t *testing.T) {
	d := events.New[int]()
	var got []string

	var unregisterB func()
	d.Register(func(int) {
		got = append(got, "a")
		unregisterB()
		d.Register(func(int) { got = append(got, "late") })
	})
	unregisterB = d.Register(func(int) { got = append(got, "b") })

	// b was removed after the broadcast started, so it still runs; late is
	// only seen by the next broadcast.
	d.Broadcast(0)
	assert.Equal(t, []string{"a", "b"}, got)

	got = nil
	unregisterB = func() {}
	d.Broadcast(0)
	assert.Equal(t, []string{"a", "late"}, got)
}

func TestDispatcher_Recover(t *testing.T) {
	var recovered any
	d := events.New(events.WithRecover[int](func(r any) { recovered = r }))
	var after bool
	d.Register(func(int) { panic("boom") })
	d.Register(func(int) { after = true })

	d.Broadcast(0)
	assert.Equal(t, "boom", recovered)
	assert.True(t, after)

	plain := events.New[int]()
	plain.Register(func(int) { panic("boom") })
	assert.Panics(t, func() { plain.Broadcast(0) })
}
