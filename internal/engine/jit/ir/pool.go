package ir

const arenaPageSize = 128

// arena hands out stable pointers to T. Pages are never moved, so a pointer
// obtained from allocate stays valid until reset.
type arena[T any] struct {
	pages []*[arenaPageSize]T
	// allocated is the number of live slots across all pages.
	allocated int
}

func newArena[T any]() arena[T] {
	return arena[T]{}
}

// allocate returns a zeroed slot and its index.
func (a *arena[T]) allocate() (*T, int) {
	page, offset := a.allocated/arenaPageSize, a.allocated%arenaPageSize
	if page == len(a.pages) {
		if len(a.pages) < cap(a.pages) && a.pages[:page+1][page] != nil {
			a.pages = a.pages[:page+1]
		} else {
			a.pages = append(a.pages, new([arenaPageSize]T))
		}
	}
	index := a.allocated
	a.allocated++
	return &a.pages[page][offset], index
}

// view returns the slot at index i, which must have been allocated.
func (a *arena[T]) view(i int) *T {
	if i >= a.allocated {
		panic("BUG: arena index out of range")
	}
	return &a.pages[i/arenaPageSize][i%arenaPageSize]
}

func (a *arena[T]) len() int {
	return a.allocated
}

// reset zeroes every allocated slot while keeping the pages for reuse.
func (a *arena[T]) reset() {
	for i := 0; i < a.allocated; i++ {
		var zero T
		a.pages[i/arenaPageSize][i%arenaPageSize] = zero
	}
	a.pages = a.pages[:0]
	a.allocated = 0
}
