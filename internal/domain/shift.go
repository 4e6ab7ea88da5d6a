package domain

import (
	"fmt"
	"strings"
)

// ShiftType is a named work window
type ShiftType string

const (
	ShiftDay          ShiftType = "DAY_SHIFT"
	ShiftEvening      ShiftType = "EVENING_SHIFT"
	ShiftNight        ShiftType = "NIGHT_SHIFT"
	ShiftMorning      ShiftType = "MORNING_SHIFT"
	ShiftAfternoon    ShiftType = "AFTERNOON_SHIFT"
	ShiftOvernight    ShiftType = "OVERNIGHT_SHIFT"
	ShiftWeekendDay   ShiftType = "WEEKEND_DAY"
	ShiftWeekendNight ShiftType = "WEEKEND_NIGHT"
)

const (
	nightPremium   = 1.25
	weekendPremium = 1.50
)

// ClockTime is a wall-clock time of day
type ClockTime struct {
	Hour   int
	Minute int
}

func (t ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

type shiftProfile struct {
	description   string
	start         ClockTime
	end           ClockTime
	durationHours int
	night         bool
	weekend       bool
}

var shiftTypes = []ShiftType{
	ShiftDay,
	ShiftEvening,
	ShiftNight,
	ShiftMorning,
	ShiftAfternoon,
	ShiftOvernight,
	ShiftWeekendDay,
	ShiftWeekendNight,
}

var shiftProfiles = map[ShiftType]shiftProfile{
	ShiftDay:          {"Day Shift", ClockTime{6, 0}, ClockTime{14, 0}, 8, false, false},
	ShiftEvening:      {"Evening Shift", ClockTime{14, 0}, ClockTime{22, 0}, 8, false, false},
	ShiftNight:        {"Night Shift", ClockTime{22, 0}, ClockTime{6, 0}, 8, true, false},
	ShiftMorning:      {"Morning Shift", ClockTime{8, 0}, ClockTime{17, 0}, 8, false, false},
	ShiftAfternoon:    {"Afternoon Shift", ClockTime{12, 0}, ClockTime{21, 0}, 8, false, false},
	ShiftOvernight:    {"Overnight Shift", ClockTime{0, 0}, ClockTime{8, 0}, 8, true, false},
	ShiftWeekendDay:   {"Weekend Day", ClockTime{7, 0}, ClockTime{15, 0}, 8, false, true},
	ShiftWeekendNight: {"Weekend Night", ClockTime{15, 0}, ClockTime{23, 0}, 8, true, true},
}

// ShiftTypes returns every shift type in enumeration order
func ShiftTypes() []ShiftType {
	out := make([]ShiftType, len(shiftTypes))
	copy(out, shiftTypes)
	return out
}

// ParseShiftType converts a string into a ShiftType
func ParseShiftType(s string) (ShiftType, error) {
	st := ShiftType(strings.ToUpper(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidShift, s)
	}
	return st, nil
}

// IsValid reports whether s is one of the known shift types
func (s ShiftType) IsValid() bool {
	_, ok := shiftProfiles[s]
	return ok
}

func (s ShiftType) String() string {
	return string(s)
}

func (s ShiftType) Description() string { return shiftProfiles[s].description }
func (s ShiftType) StartTime() ClockTime { return shiftProfiles[s].start }
func (s ShiftType) EndTime() ClockTime { return shiftProfiles[s].end }
func (s ShiftType) DurationHours() int { return shiftProfiles[s].durationHours }
func (s ShiftType) IsNightShift() bool { return shiftProfiles[s].night }
func (s ShiftType) IsWeekendShift() bool { return shiftProfiles[s].weekend }

// PremiumMultiplier returns the labor cost multiplier. Night classification wins over weekend.
func (s ShiftType) PremiumMultiplier() float64 {
	switch {
	case s.IsNightShift():
		return nightPremium
	case s.IsWeekendShift():
		return weekendPremium
	default:
		return 1.0
	}
}
