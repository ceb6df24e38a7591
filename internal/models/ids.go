package models

// IDAllocator hands out strictly increasing identities for one entity kind.
// It is not safe for concurrent use.
type IDAllocator struct {
	next uint
}

// NewIDAllocator returns an allocator whose first identity is 1.
func NewIDAllocator() IDAllocator {
	return IDAllocator{next: 1}
}

// Next returns the next identity and advances the allocator.
func (a *IDAllocator) Next() uint {
	if a.next == 0 {
		a.next = 1
	}
	id := a.next
	a.next++
	return id
}

// Peek returns the identity the next call to Next will hand out.
func (a *IDAllocator) Peek() uint {
	if a.next == 0 {
		return 1
	}
	return a.next
}

// AdvancePast makes sure every future identity is greater than id.
// The allocator never moves backwards.
func (a *IDAllocator) AdvancePast(id uint) {
	if id >= a.Peek() {
		a.next = id + 1
	}
}
