// Package watcher keeps the last two successful samples of a polled value.
package watcher

// Pair is the previous and current sample of a watched value
type Pair[T comparable] struct {
	Old     T
	Current T
}

// Changed reports whether the value differs from the previous sample
func (p Pair[T]) Changed() bool {
	return p.Old != p.Current
}

// ChangedFrom reports a transition away from v
func (p Pair[T]) ChangedFrom(v T) bool {
	return p.Old == v && p.Current != v
}

// ChangedTo reports a transition onto v
func (p Pair[T]) ChangedTo(v T) bool {
	return p.Old != v && p.Current == v
}

// Watcher holds a Pair across ticks. A missed read does not touch the pair,
// so one unreadable tick cannot look like a transition.
// The zero value is ready to use.
type Watcher[T comparable] struct {
	pair  Pair[T]
	valid bool
}

// Update feeds one sample. ok=false means the read failed this tick. The
// returned bool is false only while the watcher has never seen a value.
// The first value seeds both Old and Current.
func (w *Watcher[T]) Update(value T, ok bool) (Pair[T], bool) {
	if ok {
		if w.valid {
			w.pair.Old = w.pair.Current
		} else {
			w.pair.Old = value
			w.valid = true
		}
		w.pair.Current = value
	}
	return w.pair, w.valid
}

// UpdateFrom is Update for a (value, error) read
func (w *Watcher[T]) UpdateFrom(value T, err error) (Pair[T], bool) {
	return w.Update(value, err == nil)
}

// Pair returns the last pair without updating it
func (w *Watcher[T]) Pair() (Pair[T], bool) {
	return w.pair, w.valid
}

// Reset forgets every sample
func (w *Watcher[T]) Reset() {
	*w = Watcher[T]{}
}
