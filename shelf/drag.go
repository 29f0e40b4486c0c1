package shelf

// Drag is the index captured by the last drag-start, held by whoever
// receives the drag events. The zero value is an empty drag.
type Drag struct {
	index  int
	active bool
}

// Start records index as the dragged position, replacing any earlier one.
func (d *Drag) Start(index int) {
	d.index = index
	d.active = true
}

// Source returns the dragged index and whether a drag is in progress.
func (d *Drag) Source() (int, bool) {
	return d.index, d.active
}

func (d *Drag) Reset() {
	*d = Drag{}
}
