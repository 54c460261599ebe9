package egfr

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Field names as they appear on the wire.
const (
	FieldSerumCreatinine = "serum_creatinine"
	FieldAge             = "age"
	FieldSex             = "sex"
	FieldBiologicalSex   = "biological_sex"
	FieldRace            = "race"
	FieldRaceIsBlack     = "race_is_black"
)

// Constraint identifiers reported in FieldError.Constraint.
const (
	ConstraintRequired = "required"
	ConstraintType     = "type"
	ConstraintMin      = "ge"
	ConstraintMax      = "le"
	ConstraintEnum     = "enum"
	ConstraintConflict = "conflict"
)

// Bounds holds the inclusive input ranges accepted before Compute runs.
type Bounds struct {
	CreatinineMin float64
	CreatinineMax float64
	AgeMin        int
	AgeMax        int
}

// StrictBounds are the clinically conventional adult ranges.
var StrictBounds = Bounds{
	CreatinineMin: 0.1,
	CreatinineMax: 15.0,
	AgeMin:        18,
	AgeMax:        120,
}

// LenientBounds are the wider ranges of the form-encoded deployment.
var LenientBounds = Bounds{
	CreatinineMin: 0.01,
	CreatinineMax: 40.0,
	AgeMin:        1,
	AgeMax:        120,
}

// Validate rejects bound sets that would let a non-positive value through
// or that admit nothing at all.
func (b Bounds) Validate() error {
	if b.CreatinineMin <= 0 {
		return fmt.Errorf("creatinine min %g must be positive", b.CreatinineMin)
	}
	if b.CreatinineMin > b.CreatinineMax {
		return fmt.Errorf("creatinine min %g exceeds max %g", b.CreatinineMin, b.CreatinineMax)
	}
	if b.AgeMin < 1 {
		return fmt.Errorf("age min %d must be at least 1", b.AgeMin)
	}
	if b.AgeMin > b.AgeMax {
		return fmt.Errorf("age min %d exceeds max %d", b.AgeMin, b.AgeMax)
	}
	return nil
}

// Fields carries the raw textual request values. An empty string means the
// field was absent.
type Fields struct {
	SerumCreatinine string
	Age             string
	Sex             string
	Race            string
	RaceIsBlack     string

	// SexKey is the wire name Sex arrived under, used in error reports.
	// Empty means FieldSex.
	SexKey string
}

func (f Fields) sexKey() string {
	if f.SexKey == "" {
		return FieldSex
	}
	return f.SexKey
}

// FieldError describes one violated constraint.
type FieldError struct {
	Field      string `json:"field"`
	Constraint string `json:"constraint"`
	Message    string `json:"message"`
}

// ValidationError lists every field that failed. It is returned by Parse and
// never reaches Compute.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (e *ValidationError) add(field, constraint, format string, args ...interface{}) {
	e.Fields = append(e.Fields, FieldError{
		Field:      field,
		Constraint: constraint,
		Message:    fmt.Sprintf(format, args...),
	})
}

// Parse converts raw fields into a validated Input. All fields are checked;
// the returned *ValidationError carries one entry per violation. No defaults
// are substituted for missing values.
func (b Bounds) Parse(f Fields) (Input, error) {
	var (
		in   Input
		verr ValidationError
	)

	if v := strings.TrimSpace(f.SerumCreatinine); v == "" {
		verr.add(FieldSerumCreatinine, ConstraintRequired, "field required")
	} else if scr, ok := parseDecimal(v); !ok {
		verr.add(FieldSerumCreatinine, ConstraintType, "value %q is not a valid number", v)
	} else if scr < b.CreatinineMin {
		verr.add(FieldSerumCreatinine, ConstraintMin, "must be greater than or equal to %g mg/dL", b.CreatinineMin)
	} else if scr > b.CreatinineMax {
		verr.add(FieldSerumCreatinine, ConstraintMax, "must be less than or equal to %g mg/dL", b.CreatinineMax)
	} else {
		in.SerumCreatinine = scr
	}

	if v := strings.TrimSpace(f.Age); v == "" {
		verr.add(FieldAge, ConstraintRequired, "field required")
	} else if age, ok := parseWholeNumber(v); !ok {
		verr.add(FieldAge, ConstraintType, "value %q is not a valid integer", v)
	} else if age < b.AgeMin {
		verr.add(FieldAge, ConstraintMin, "must be greater than or equal to %d years", b.AgeMin)
	} else if age > b.AgeMax {
		verr.add(FieldAge, ConstraintMax, "must be less than or equal to %d years", b.AgeMax)
	} else {
		in.Age = age
	}

	switch v := Sex(strings.TrimSpace(f.Sex)); v {
	case "":
		verr.add(f.sexKey(), ConstraintRequired, "field required")
	case Male, Female:
		in.Sex = v
	default:
		verr.add(f.sexKey(), ConstraintEnum, "value %q is not one of 'male', 'female'", string(v))
	}

	black, ok := parseRace(f, &verr)
	if ok {
		in.Black = black
	}

	if len(verr.Fields) > 0 {
		return Input{}, &verr
	}
	return in, nil
}

// parseRace resolves the race indicator from the category, the boolean, or
// both. When both are present they must agree.
func parseRace(f Fields, verr *ValidationError) (bool, bool) {
	category := strings.TrimSpace(f.Race)
	flag := strings.TrimSpace(f.RaceIsBlack)

	if category == "" && flag == "" {
		verr.add(FieldRace, ConstraintRequired, "field required")
		return false, false
	}

	var (
		fromCategory, fromFlag bool
		valid                  = true
	)
	if category != "" {
		switch r := Race(category); r {
		case RaceBlack, RaceNonBlack, RaceNA:
			fromCategory = r.IsBlack()
		default:
			verr.add(FieldRace, ConstraintEnum, "value %q is not one of 'black', 'non-black', 'N/A'", category)
			valid = false
		}
	}
	if flag != "" {
		b, err := strconv.ParseBool(flag)
		if err != nil {
			verr.add(FieldRaceIsBlack, ConstraintType, "value %q is not a valid boolean", flag)
			valid = false
		}
		fromFlag = b
	}
	if !valid {
		return false, false
	}

	switch {
	case category != "" && flag != "":
		if fromCategory != fromFlag {
			verr.add(FieldRaceIsBlack, ConstraintConflict, "race_is_black=%t disagrees with race %q", fromFlag, category)
			return false, false
		}
		return fromFlag, true
	case flag != "":
		return fromFlag, true
	default:
		return fromCategory, true
	}
}

// decimalChars is the only syntax accepted for numbers: optional sign,
// digits, decimal point and exponent. Go literal forms such as hex floats
// ("0x1p-3") and digit separators ("1_0") are rejected, as are NaN and Inf.
const decimalChars = "0123456789+-.eE"

// parseDecimal parses a finite base-10 number.
func parseDecimal(v string) (float64, bool) {
	if v == "" || strings.Trim(v, decimalChars) != "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// parseWholeNumber accepts "45" and "45.0" but not "45.5".
func parseWholeNumber(v string) (int, bool) {
	f, ok := parseDecimal(v)
	if !ok || f != math.Trunc(f) {
		return 0, false
	}
	if f > math.MaxInt32 || f < math.MinInt32 {
		return 0, false
	}
	return int(f), true
}
