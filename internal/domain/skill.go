package domain

import (
	"fmt"
	"strings"
)

// SkillLevel is a worker's skill and experience level
type SkillLevel string

const (
	SkillTrainee      SkillLevel = "TRAINEE"
	SkillJunior       SkillLevel = "JUNIOR"
	SkillIntermediate SkillLevel = "INTERMEDIATE"
	SkillSenior       SkillLevel = "SENIOR"
	SkillExpert       SkillLevel = "EXPERT"
	SkillLead         SkillLevel = "LEAD"
)

type skillProfile struct {
	description string
	multiplier  float64
}

// skillLevels is ordered by rank. LEAD outranks EXPERT even though its multiplier is lower.
var skillLevels = []SkillLevel{
	SkillTrainee,
	SkillJunior,
	SkillIntermediate,
	SkillSenior,
	SkillExpert,
	SkillLead,
}

var skillProfiles = map[SkillLevel]skillProfile{
	SkillTrainee:      {"Trainee", 0.6},
	SkillJunior:       {"Junior", 0.8},
	SkillIntermediate: {"Intermediate", 1.0},
	SkillSenior:       {"Senior", 1.2},
	SkillExpert:       {"Expert", 1.4},
	SkillLead:         {"Team Lead", 1.3},
}

// SkillLevels returns every skill level ordered by rank
func SkillLevels() []SkillLevel {
	out := make([]SkillLevel, len(skillLevels))
	copy(out, skillLevels)
	return out
}

// ParseSkillLevel converts a string into a SkillLevel
func ParseSkillLevel(s string) (SkillLevel, error) {
	level := SkillLevel(strings.ToUpper(strings.TrimSpace(s)))
	if !level.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSkillLevel, s)
	}
	return level, nil
}

// IsValid reports whether l is one of the known skill levels
func (l SkillLevel) IsValid() bool {
	_, ok := skillProfiles[l]
	return ok
}

func (l SkillLevel) String() string {
	return string(l)
}

// Description returns a human readable label
func (l SkillLevel) Description() string {
	return skillProfiles[l].description
}

// Multiplier returns the productivity multiplier
func (l SkillLevel) Multiplier() float64 {
	return skillProfiles[l].multiplier
}

// Rank returns the ordinal position of l, or -1 when unknown
func (l SkillLevel) Rank() int {
	for i, candidate := range skillLevels {
		if candidate == l {
			return i
		}
	}
	return -1
}

// EffectiveRate scales a base rate by the skill multiplier
func (l SkillLevel) EffectiveRate(standardRate float64) float64 {
	return standardRate * l.Multiplier()
}

func (l SkillLevel) CanTrainOthers() bool {
	return l == SkillSenior || l == SkillExpert || l == SkillLead
}

func (l SkillLevel) CanLeadTeam() bool {
	return l == SkillLead || l == SkillExpert
}
