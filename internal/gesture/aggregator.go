package gesture

// DefaultAggregateSize is the number of classifier outputs the aggregator keeps.
const DefaultAggregateSize = 10

// Aggregator smooths classifier outputs over a longer window so a gesture has
// to be held for a while before the majority flips.
type Aggregator struct {
	window *Ring[Label]
}

// NewAggregator creates an Aggregator holding the last size labels.
func NewAggregator(size int) *Aggregator {
	if size <= 0 {
		size = DefaultAggregateSize
	}
	return &Aggregator{window: NewRing[Label](size)}
}

// Push records a classifier output.
func (a *Aggregator) Push(l Label) {
	a.window.Push(l)
}

// Majority returns the most frequent label in the window, with ties going to
// the label that reached the count first. ok is false when nothing was pushed.
func (a *Aggregator) Majority() (Label, bool) {
	l, _, ok := MostCommon(a.window.Slice())
	return l, ok
}

// Window returns the buffered labels oldest-first.
func (a *Aggregator) Window() []Label {
	return a.window.Slice()
}

// Reset empties the window.
func (a *Aggregator) Reset() {
	a.window.Reset()
}
