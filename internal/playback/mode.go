package playback

// Mode is the combined repeat/shuffle setting. Shuffle and repeat are
// mutually exclusive, so one enum covers both.
type Mode int

const (
	ModeOff Mode = iota
	ModeRepeatAll
	ModeRepeatOne
	ModeShuffle
)

// Next advances one step in the fixed cycle
// Off, RepeatAll, RepeatOne, Shuffle, back to Off.
func (m Mode) Next() Mode {
	switch m {
	case ModeOff:
		return ModeRepeatAll
	case ModeRepeatAll:
		return ModeRepeatOne
	case ModeRepeatOne:
		return ModeShuffle
	default:
		return ModeOff
	}
}

// Shuffle reports whether this mode shuffles queue navigation.
func (m Mode) Shuffle() bool {
	return m == ModeShuffle
}

// Repeat returns the transport repeat setting for this mode.
func (m Mode) Repeat() RepeatMode {
	switch m {
	case ModeRepeatAll:
		return RepeatAll
	case ModeRepeatOne:
		return RepeatOne
	default:
		return RepeatOff
	}
}

func (m Mode) String() string {
	switch m {
	case ModeOff:
		return "off"
	case ModeRepeatAll:
		return "repeat_all"
	case ModeRepeatOne:
		return "repeat_one"
	case ModeShuffle:
		return "shuffle"
	default:
		return "unknown"
	}
}

// speedCycle is the fixed ordered set of playback speeds.
var speedCycle = [...]float64{0.5, 0.75, 1.0, 1.25, 1.5, 1.75, 2.0}

// speedTolerance absorbs floating-point drift when matching the current
// speed against the cycle.
const speedTolerance = 0.01

// NextSpeed returns the cycle entry after current, wrapping past the end.
// The current value is matched within a small tolerance; an unrecognized
// speed restarts the cycle at normal speed.
func NextSpeed(current float64) float64 {
	for i, v := range speedCycle {
		if current > v-speedTolerance && current < v+speedTolerance {
			return speedCycle[(i+1)%len(speedCycle)]
		}
	}
	return 1.0
}
