package policy

import (
	"fmt"
	"strings"
)

// Level is the severity attached to a constraint. The empty Level means
// "not configured" and inherits from the enclosing constraint.
type Level string

// Constraint levels.
const (
	LevelFail   Level = "FAIL"
	LevelWarn   Level = "WARN"
	LevelInform Level = "INFORM"
	LevelIgnore Level = "IGNORE"
)

// ParseLevel parses a level name, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch l := Level(strings.ToUpper(strings.TrimSpace(s))); l {
	case LevelFail, LevelWarn, LevelInform, LevelIgnore:
		return l, nil
	case "INFO":
		return LevelInform, nil
	default:
		return "", fmt.Errorf("unknown level %q", s)
	}
}

// IsSet reports whether l is configured.
func (l Level) IsSet() bool {
	return l != ""
}

// Or returns l, or def when l is not configured.
func (l Level) Or(def Level) Level {
	if l == "" {
		return def
	}
	return l
}

// Severity orders levels from IGNORE (0) to FAIL (3).
func (l Level) Severity() int {
	switch l {
	case LevelFail:
		return 3
	case LevelWarn:
		return 2
	case LevelInform:
		return 1
	default:
		return 0
	}
}

// Model selects how control times are assigned along a certificate chain.
type Model string

// Certificate chain validation models.
const (
	ModelShell  Model = "SHELL"
	ModelChain  Model = "CHAIN"
	ModelHybrid Model = "HYBRID"
)

// ParseModel parses a model name, case-insensitively.
func ParseModel(s string) (Model, error) {
	switch m := Model(strings.ToUpper(strings.TrimSpace(s))); m {
	case ModelShell, ModelChain, ModelHybrid:
		return m, nil
	default:
		return "", fmt.Errorf("unknown model %q", s)
	}
}

// ValidationLevel is the highest level of the validation process to run.
// The zero value means "not set".
type ValidationLevel int

// Validation levels, in execution order.
const (
	BasicSignatures ValidationLevel = iota + 1
	Timestamps
	LongTermData
	ArchivalData
)

var validationLevelNames = map[ValidationLevel]string{
	BasicSignatures: "BASIC_SIGNATURES",
	Timestamps:      "TIMESTAMPS",
	LongTermData:    "LONG_TERM_DATA",
	ArchivalData:    "ARCHIVAL_DATA",
}

// ParseValidationLevel parses a validation level name. ARCHIVE_DATA is
// accepted as an alias of ARCHIVAL_DATA.
func ParseValidationLevel(s string) (ValidationLevel, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "ARCHIVE_DATA" {
		return ArchivalData, nil
	}
	for l, n := range validationLevelNames {
		if n == name {
			return l, nil
		}
	}
	return 0, fmt.Errorf("unknown validation level %q", s)
}

// IsSet reports whether v is configured.
func (v ValidationLevel) IsSet() bool {
	return v != 0
}

// Or returns v, or def when v is not configured.
func (v ValidationLevel) Or(def ValidationLevel) ValidationLevel {
	if v == 0 {
		return def
	}
	return v
}

// Includes reports whether running up to v also runs other.
func (v ValidationLevel) Includes(other ValidationLevel) bool {
	return other <= v
}

// String returns the level name.
func (v ValidationLevel) String() string {
	if n, ok := validationLevelNames[v]; ok {
		return n
	}
	return fmt.Sprintf("ValidationLevel(%d)", int(v))
}

// MarshalText implements encoding.TextMarshaler.
func (v ValidationLevel) MarshalText() ([]byte, error) {
	if v == 0 {
		return []byte{}, nil
	}
	return []byte(v.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (v *ValidationLevel) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*v = 0
		return nil
	}
	l, err := ParseValidationLevel(string(b))
	if err != nil {
		return err
	}
	*v = l
	return nil
}

// Levels returns every validation level up to and including v.
func (v ValidationLevel) Levels() []ValidationLevel {
	var out []ValidationLevel
	for l := BasicSignatures; l <= v && l <= ArchivalData; l++ {
		out = append(out, l)
	}
	return out
}
