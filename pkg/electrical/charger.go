package electrical

// Level is an EV charger level.
type Level string

// Charger levels.
const (
	Level1 Level = "Level 1"
	Level2 Level = "Level 2"
	Level3 Level = "Level 3"
)

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	return l == Level1 || l == Level2 || l == Level3
}

// Label returns the short diagram label: "DCFC" for Level 3, else the level.
func (l Level) Label() string {
	if l == Level3 {
		return "DCFC"
	}
	return string(l)
}

// ChargerLevels returns the charger levels a panel on system s can feed.
func ChargerLevels(s System) []Level {
	if s == System277480 {
		return []Level{Level3}
	}
	return []Level{Level1, Level2}
}

// DefaultChargerLevel is the level offered first for a new charger on s.
func DefaultChargerLevel(s System) Level {
	if s == System277480 {
		return Level3
	}
	return Level2
}

// ChargerVoltage returns the supply voltage of a charger at level l on a
// panel with system s.
func ChargerVoltage(l Level, s System) int {
	switch l {
	case Level1:
		return 120
	case Level2:
		if s == System120208 {
			return 208
		}
		return 240
	case Level3:
		return 480
	}
	return LineToLineVoltage(s)
}
