package gesture

// Classifier defaults.
const (
	DefaultWindowSize    = 5
	DefaultFlexThreshold = 1200
	DefaultMinVotes      = 3
)

// Options tunes a Classifier. Zero fields take the defaults.
type Options struct {
	WindowSize    int
	FlexThreshold float64
	MinVotes      int
}

func (o Options) withDefaults() Options {
	if o.WindowSize <= 0 {
		o.WindowSize = DefaultWindowSize
	}
	if o.FlexThreshold == 0 {
		o.FlexThreshold = DefaultFlexThreshold
	}
	if o.MinVotes <= 0 {
		o.MinVotes = DefaultMinVotes
	}
	return o
}

// Bent records which fingers are bent in a single frame.
type Bent struct {
	Thumb  bool
	Index  bool
	Middle bool
	Ring   bool
	Little bool
}

// BentFingers evaluates a frame against a flex threshold. A finger is bent
// when its reading is strictly below the threshold.
func BentFingers(f SensorFrame, threshold float64) Bent {
	return Bent{
		Thumb:  f.Flex[SlotThumb] < threshold,
		Index:  f.Flex[SlotIndex] < threshold,
		Middle: f.Flex[SlotMiddle] < threshold,
		Ring:   f.Flex[SlotRing] < threshold,
		Little: f.Flex[SlotLittle] < threshold,
	}
}

// Rule maps an exact bent pattern to a label.
type Rule struct {
	Name    string
	Pattern Bent
	Label   Label
}

// Matches reports whether b equals the rule pattern exactly.
func (r Rule) Matches(b Bent) bool {
	return b == r.Pattern
}

// rules is evaluated top to bottom; the first match wins and anything
// unmatched is LabelScanning.
var rules = []Rule{
	{
		Name:    "fist",
		Pattern: Bent{Thumb: true, Index: true, Middle: true, Ring: true, Little: true},
		Label:   LabelBye,
	},
	{
		Name:    "thumb_index",
		Pattern: Bent{Thumb: true, Index: true},
		Label:   LabelHello,
	},
	{
		Name:    "thumb_ring_little",
		Pattern: Bent{Thumb: true, Ring: true, Little: true},
		Label:   LabelMyNameIs,
	},
}

// Rules returns a copy of the decision table in priority order.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// LabelFor maps a bent pattern to a label using the decision table.
func LabelFor(b Bent) Label {
	for _, r := range rules {
		if r.Matches(b) {
			return r.Label
		}
	}
	return LabelScanning
}

// Classifier votes over a sliding window of frames. It is not safe for
// concurrent use.
type Classifier struct {
	opts   Options
	window *Ring[SensorFrame]
}

// NewClassifier creates a Classifier with the given options.
func NewClassifier(opts Options) *Classifier {
	opts = opts.withDefaults()
	return &Classifier{
		opts:   opts,
		window: NewRing[SensorFrame](opts.WindowSize),
	}
}

// Options returns the effective options.
func (c *Classifier) Options() Options {
	return c.opts
}

// Classify labels a single frame without touching the window.
func (c *Classifier) Classify(f SensorFrame) Label {
	return LabelFor(BentFingers(f, c.opts.FlexThreshold))
}

// Predict pushes frame (when non-nil) into the window and returns the
// window's vote. It returns LabelCollecting until the window is full, and
// LabelScanning when no label gathers MinVotes.
func (c *Classifier) Predict(frame *SensorFrame) Label {
	if frame != nil {
		c.window.Push(*frame)
	}

	if !c.window.Full() {
		return LabelCollecting
	}

	frames := c.window.Slice()
	labels := make([]Label, len(frames))
	for i, f := range frames {
		labels[i] = c.Classify(f)
	}

	winner, count, _ := MostCommon(labels)
	if count >= c.opts.MinVotes {
		return winner
	}
	return LabelScanning
}

// Buffered returns the number of frames in the window.
func (c *Classifier) Buffered() int {
	return c.window.Len()
}

// Reset empties the window.
func (c *Classifier) Reset() {
	c.window.Reset()
}

// MostCommon returns the most frequent item and its count. On ties the item
// that first reached the winning count in a left-to-right scan wins. ok is
// false for an empty slice.
func MostCommon[T comparable](items []T) (winner T, count int, ok bool) {
	counts := make(map[T]int, len(items))
	for _, it := range items {
		counts[it]++
		if counts[it] > count {
			count = counts[it]
			winner = it
			ok = true
		}
	}
	return winner, count, ok
}
