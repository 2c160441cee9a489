package scheduler

// Capacity returns the number of tasks allowed to be live at once for the given number of
// available processors. One processor is left to the scheduler itself, but never fewer than one slot.
func Capacity(available int) int {
	return max(1, available-1)
}

// SlotPool bounds the number of live tasks.
type SlotPool struct {
	capacity int
}

// NewSlotPool returns a pool with the given number of slots, at least one.
func NewSlotPool(capacity int) SlotPool {
	return SlotPool{capacity: max(1, capacity)}
}

// Capacity returns the number of slots.
func (pool SlotPool) Capacity() int {
	return pool.capacity
}

// HasSpace returns true if another task can go live.
func (pool SlotPool) HasSpace(live int) bool {
	return live < pool.capacity
}
