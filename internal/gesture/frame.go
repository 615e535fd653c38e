// Package gesture turns flex-sensor glove readings into discrete gestures.
package gesture

import "strconv"

// Flex sensor slots in the order the glove transmits them.
const (
	SlotLittle = iota
	SlotRing
	SlotMiddle
	SlotIndex
	SlotThumb
	NumFlex
)

// IdleFlex is the nominal reading of a straight finger.
const IdleFlex = 1500

// Quaternion is the hand orientation as a unit quaternion.
type Quaternion struct {
	W float64 `json:"w"`
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// IdentityQuaternion is the orientation reported before any data arrives.
var IdentityQuaternion = Quaternion{W: 1}

// SensorFrame is one complete glove reading.
type SensorFrame struct {
	Flex [NumFlex]float64
	Quat Quaternion
}

// IdleFrame returns a frame with every finger straight and no rotation.
func IdleFrame() SensorFrame {
	f := SensorFrame{Quat: IdentityQuaternion}
	for i := range f.Flex {
		f.Flex[i] = IdleFlex
	}
	return f
}

// PartialFrame is a reading where any field may be missing (nil).
type PartialFrame struct {
	Flex [NumFlex]*float64
	QuatW *float64
	QuatX *float64
	QuatY *float64
	QuatZ *float64
}

// Complete fills every missing field of p from prev and returns the result
// along with the names of the fields that were backfilled.
func (p PartialFrame) Complete(prev SensorFrame) (SensorFrame, []string) {
	out := prev
	var missing []string

	for i, v := range p.Flex {
		if v == nil {
			missing = append(missing, FlexFields[i])
			continue
		}
		out.Flex[i] = *v
	}

	quat := []struct {
		name string
		src  *float64
		dst  *float64
	}{
		{"quat_w", p.QuatW, &out.Quat.W},
		{"quat_x", p.QuatX, &out.Quat.X},
		{"quat_y", p.QuatY, &out.Quat.Y},
		{"quat_z", p.QuatZ, &out.Quat.Z},
	}
	for _, q := range quat {
		if q.src == nil {
			missing = append(missing, q.name)
			continue
		}
		*q.dst = *q.src
	}

	return out, missing
}

// FlexFields are the wire names of the flex slots, in slot order.
var FlexFields = [NumFlex]string{"flex_little", "flex_ring", "flex_middle", "flex_index", "flex_thumb"}

// Label is a classifier output.
type Label int

// Gesture labels.
const (
	LabelCollecting Label = -1
	LabelScanning   Label = 0
	LabelHello      Label = 1
	LabelMyNameIs   Label = 2
	LabelBye        Label = 3
)

var labelNames = map[Label]string{
	LabelCollecting: "collecting_data",
	LabelScanning:   "scanning",
	LabelHello:      "hello",
	LabelMyNameIs:   "my_name_is",
	LabelBye:        "bye",
}

// UnknownName is reported for labels outside the enumeration.
const UnknownName = "unknown"

// Name returns the human-readable gesture name.
func (l Label) Name() string {
	if n, ok := labelNames[l]; ok {
		return n
	}
	return UnknownName
}

// Valid reports whether l is one of the five known labels.
func (l Label) Valid() bool {
	_, ok := labelNames[l]
	return ok
}

func (l Label) String() string {
	return strconv.Itoa(int(l)) + "(" + l.Name() + ")"
}
