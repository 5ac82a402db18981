package protocol

// Template-driven layout discovery. Field offsets are inferred by
// diffing known-good template frames against each other, so the same
// logic tolerates packet-format variation across installations. Every
// inconsistency is reported specifically; discovery never guesses an
// offset.

import (
	"bytes"
	"fmt"
	"sort"
)

// TemplateSet is the validated catalog input to Discover. Values are
// raw packets (transport prefix plus frame) as captured from the bus.
type TemplateSet struct {
	// Reference is the device address the templates were captured for,
	// declared by the catalog and validated against the frames.
	Reference DeviceAddress
	// Modes holds one template per operating mode; all four are required.
	Modes map[Mode][]byte
	// Temperatures maps a Celsius setpoint to its template; at least
	// two distinct setpoints are required to fit the encoding.
	Temperatures map[int][]byte
	// FanHigh is an optional template identical to the cool template
	// except for the fan speed byte.
	FanHigh []byte
	// StatusRequest is an optional template for polling a panel's state.
	StatusRequest []byte
}

// FieldLayout maps logical protocol fields to byte offsets within a
// frame. Built once by Discover and immutable afterward; safe for
// concurrent use by the packet synthesizer and the status listener.
type FieldLayout struct {
	prefix   []byte
	frameLen int

	subnetOffset      int
	deviceOffset      int
	modeOffset        int
	temperatureOffset int
	fanSpeedOffset    int // -1 when the catalog has no fan template

	tempSlope     int
	tempIntercept int

	modeValues  map[Mode]byte
	modeByValue map[byte]Mode

	baseFrames    map[Mode][]byte
	statusRequest []byte
}

func discoveryErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrDiscovery, fmt.Sprintf(format, args...))
}

// Discover infers the field layout from a template set. It fails with a
// specific inconsistency whenever the templates are ambiguous: no
// unique mode offset, a temperature encoding that does not fit a single
// linear relationship, an address mismatch, or divergence outside the
// fields expected to vary.
func Discover(set TemplateSet) (*FieldLayout, error) {
	if !set.Reference.Valid() {
		return nil, discoveryErr("catalog reference address %s is invalid", set.Reference)
	}

	// Split and verify every template up front.
	var all []labeledFrame
	var prefix []byte

	check := func(label string, packet []byte) ([]byte, error) {
		pfx, frame, err := SplitPacket(packet)
		if err != nil {
			return nil, discoveryErr("template %q: %v", label, err)
		}
		if err := VerifyFrame(frame); err != nil {
			return nil, discoveryErr("template %q: %v", label, err)
		}
		if all == nil {
			prefix = append([]byte(nil), pfx...)
		} else if !bytes.Equal(pfx, prefix) {
			return nil, discoveryErr("template %q: prefix %X differs from %X", label, pfx, prefix)
		}
		all = append(all, labeledFrame{label: label, frame: frame})
		return frame, nil
	}

	modeFrames := make(map[Mode][]byte, len(Modes))
	for _, m := range Modes {
		packet, ok := set.Modes[m]
		if !ok {
			return nil, discoveryErr("missing %q template", m)
		}
		frame, err := check(string(m), packet)
		if err != nil {
			return nil, err
		}
		modeFrames[m] = frame
	}

	if len(set.Temperatures) < 2 {
		return nil, discoveryErr("need at least 2 temperature templates to fit the encoding, have %d",
			len(set.Temperatures))
	}
	temps := make([]int, 0, len(set.Temperatures))
	for t := range set.Temperatures {
		temps = append(temps, t)
	}
	sort.Ints(temps)
	tempFrames := make(map[int][]byte, len(temps))
	for _, t := range temps {
		frame, err := check(fmt.Sprintf("temp_%d", t), set.Temperatures[t])
		if err != nil {
			return nil, err
		}
		tempFrames[t] = frame
	}

	var fanFrame []byte
	if set.FanHigh != nil {
		frame, err := check("fan_high", set.FanHigh)
		if err != nil {
			return nil, err
		}
		fanFrame = frame
	}

	// All comparable templates must share one frame length.
	frameLen := len(all[0].frame)
	for _, t := range all[1:] {
		if len(t.frame) != frameLen {
			return nil, discoveryErr("template %q is %d bytes, %q is %d bytes",
				t.label, len(t.frame), all[0].label, frameLen)
		}
	}

	// Address bytes sit immediately after the fixed header by bus
	// convention; validate the convention against the reference address
	// embedded in every template rather than trusting it blindly.
	for _, t := range all {
		data := dataArea(t.frame)
		if len(data) < 2 {
			return nil, discoveryErr("template %q: data area too short for an address", t.label)
		}
		got := DeviceAddress{Subnet: data[0], Device: data[1]}
		if got != set.Reference {
			return nil, discoveryErr("template %q addresses %s, catalog declares reference %s",
				t.label, got, set.Reference)
		}
	}

	// Mode byte: the single data offset at which every pair of mode
	// templates differs.
	var modePairs [][2]labeledFrame
	for i, m := range Modes {
		for _, n := range Modes[i+1:] {
			modePairs = append(modePairs, [2]labeledFrame{
				{string(m), modeFrames[m]}, {string(n), modeFrames[n]},
			})
		}
	}
	modeIdx, err := uniqueDiffOffset(modePairs)
	if err != nil {
		return nil, err
	}

	modeValues := make(map[Mode]byte, len(Modes))
	modeByValue := make(map[byte]Mode, len(Modes))
	for _, m := range Modes {
		v := dataArea(modeFrames[m])[modeIdx]
		modeValues[m] = v
		modeByValue[v] = m
	}

	// Temperature byte: the single data offset at which every pair of
	// temperature templates differs, with a value that fits one linear
	// relationship to the labeled setpoint exactly.
	var tempPairs [][2]labeledFrame
	for i, t := range temps {
		for _, u := range temps[i+1:] {
			tempPairs = append(tempPairs, [2]labeledFrame{
				{fmt.Sprintf("temp_%d", t), tempFrames[t]},
				{fmt.Sprintf("temp_%d", u), tempFrames[u]},
			})
		}
	}
	tempIdx, err := uniqueDiffOffset(tempPairs)
	if err != nil {
		return nil, err
	}

	slope, intercept, err := fitTemperature(temps, tempFrames, tempIdx)
	if err != nil {
		return nil, err
	}

	// Fan speed byte: optional, located by diffing fan_high against cool.
	fanIdx := -1
	if fanFrame != nil {
		fanIdx, err = uniqueDiffOffset([][2]labeledFrame{
			{{"fan_high", fanFrame}, {"cool", modeFrames[ModeCool]}},
		})
		if err != nil {
			return nil, err
		}
		if fanIdx == modeIdx || fanIdx == tempIdx {
			return nil, discoveryErr("fan_high differs from cool at offset %d, which already encodes another field", fanIdx)
		}
	}

	// Header alignment: any divergence outside the discovered fields
	// means the catalog is inconsistent.
	allowed := map[int]bool{modeIdx: true, tempIdx: true}
	if fanIdx >= 0 {
		allowed[fanIdx] = true
	}
	for i := range all {
		for _, other := range all[i+1:] {
			for _, off := range diffOffsets(dataArea(all[i].frame), dataArea(other.frame)) {
				if !allowed[off] {
					return nil, discoveryErr("templates %q and %q diverge at data offset %d outside the known fields",
						all[i].label, other.label, off)
				}
			}
		}
	}

	layout := &FieldLayout{
		prefix:            prefix,
		frameLen:          frameLen,
		subnetOffset:      frameHeaderLen,
		deviceOffset:      frameHeaderLen + 1,
		modeOffset:        frameHeaderLen + modeIdx,
		temperatureOffset: frameHeaderLen + tempIdx,
		fanSpeedOffset:    -1,
		tempSlope:         slope,
		tempIntercept:     intercept,
		modeValues:        modeValues,
		modeByValue:       modeByValue,
		baseFrames:        make(map[Mode][]byte, len(Modes)),
	}
	if fanIdx >= 0 {
		layout.fanSpeedOffset = frameHeaderLen + fanIdx
	}
	for m, f := range modeFrames {
		layout.baseFrames[m] = append([]byte(nil), f...)
	}

	if set.StatusRequest != nil {
		pfx, frame, err := SplitPacket(set.StatusRequest)
		if err != nil {
			return nil, discoveryErr("template %q: %v", "status_request", err)
		}
		if err := VerifyFrame(frame); err != nil {
			return nil, discoveryErr("template %q: %v", "status_request", err)
		}
		if !bytes.Equal(pfx, prefix) {
			return nil, discoveryErr("template %q: prefix %X differs from %X", "status_request", pfx, prefix)
		}
		data := dataArea(frame)
		if len(data) < 2 || (DeviceAddress{Subnet: data[0], Device: data[1]}) != set.Reference {
			return nil, discoveryErr("template %q does not address the reference %s", "status_request", set.Reference)
		}
		layout.statusRequest = append([]byte(nil), frame...)
	}

	return layout, nil
}

type labeledFrame struct {
	label string
	frame []byte
}

// uniqueDiffOffset walks template pairs and returns the single data
// offset at which every pair differs. Zero or multiple differing
// offsets are discovery failures.
func uniqueDiffOffset(pairs [][2]labeledFrame) (int, error) {
	idx := -1
	for _, pair := range pairs {
		a, b := pair[0], pair[1]
		diffs := diffOffsets(dataArea(a.frame), dataArea(b.frame))
		switch {
		case len(diffs) == 0:
			return -1, discoveryErr("templates %q and %q are identical", a.label, b.label)
		case len(diffs) > 1:
			return -1, discoveryErr("templates %q and %q differ at %d offsets %v, expected exactly one",
				a.label, b.label, len(diffs), diffs)
		case idx == -1:
			idx = diffs[0]
		case diffs[0] != idx:
			return -1, discoveryErr("templates %q and %q differ at offset %d, other pairs differ at %d",
				a.label, b.label, diffs[0], idx)
		}
	}
	return idx, nil
}

func diffOffsets(a, b []byte) []int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var diffs []int
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			diffs = append(diffs, i)
		}
	}
	return diffs
}

// fitTemperature fits raw = slope*celsius + intercept from the two
// lowest setpoints and validates the fit exactly against every other
// temperature template.
func fitTemperature(temps []int, frames map[int][]byte, tempIdx int) (slope, intercept int, err error) {
	t0, t1 := temps[0], temps[1]
	r0 := int(dataArea(frames[t0])[tempIdx])
	r1 := int(dataArea(frames[t1])[tempIdx])

	dt := t1 - t0
	dr := r1 - r0
	if dr%dt != 0 {
		return 0, 0, discoveryErr("temperature encoding is not linear: raw %d at %d°C, raw %d at %d°C",
			r0, t0, r1, t1)
	}
	slope = dr / dt
	if slope == 0 {
		return 0, 0, discoveryErr("temperature byte does not change between %d°C and %d°C", t0, t1)
	}
	intercept = r0 - slope*t0

	for _, t := range temps {
		raw := int(dataArea(frames[t])[tempIdx])
		if want := slope*t + intercept; raw != want {
			return 0, 0, discoveryErr("temperature template for %d°C carries raw %d, linear fit raw=%d*C%+d predicts %d",
				t, raw, slope, intercept, want)
		}
	}
	return slope, intercept, nil
}

// Prefix returns a copy of the transport prefix sent before each frame.
func (l *FieldLayout) Prefix() []byte {
	return append([]byte(nil), l.prefix...)
}

// FrameLen returns the command frame length in bytes.
func (l *FieldLayout) FrameLen() int { return l.frameLen }

// SubnetOffset returns the frame offset of the subnet byte.
func (l *FieldLayout) SubnetOffset() int { return l.subnetOffset }

// DeviceOffset returns the frame offset of the device id byte.
func (l *FieldLayout) DeviceOffset() int { return l.deviceOffset }

// ModeOffset returns the frame offset of the mode byte.
func (l *FieldLayout) ModeOffset() int { return l.modeOffset }

// TemperatureOffset returns the frame offset of the setpoint byte.
func (l *FieldLayout) TemperatureOffset() int { return l.temperatureOffset }

// FanSpeedOffset returns the frame offset of the fan speed byte, or -1
// when the catalog carries no fan template.
func (l *FieldLayout) FanSpeedOffset() int { return l.fanSpeedOffset }

// TemperatureEncoding returns the fitted linear encoding raw = slope*C + intercept.
func (l *FieldLayout) TemperatureEncoding() (slope, intercept int) {
	return l.tempSlope, l.tempIntercept
}

// ModeValues returns a copy of the discovered mode byte enumeration.
func (l *FieldLayout) ModeValues() map[Mode]byte {
	out := make(map[Mode]byte, len(l.modeValues))
	for m, v := range l.modeValues {
		out[m] = v
	}
	return out
}

// HasFanSpeed reports whether the catalog located a fan speed byte.
func (l *FieldLayout) HasFanSpeed() bool { return l.fanSpeedOffset >= 0 }

// HasStatusRequest reports whether the catalog carries a status request
// template.
func (l *FieldLayout) HasStatusRequest() bool { return l.statusRequest != nil }
