package expiry

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Never is the keyword that resolves to a far-future instant.
const Never = "never"

// Nominal unit lengths in milliseconds. Month and year are approximations.
const (
	Minute int64 = 60 * 1000
	Hour         = 60 * Minute
	Day          = 24 * Hour
	Week         = 7 * Day
	Month        = 30 * Day
	Year         = 365 * Day

	// NeverOffset is how far in the future "never" lands.
	NeverOffset = 100 * Year
)

var unitMillis = map[string]int64{
	"m": Minute,
	"h": Hour,
	"d": Day,
	"w": Week,
	"M": Month,
	"y": Year,
}

// durationRegex matches an unsigned integer followed by a single unit letter.
var durationRegex = regexp.MustCompile(`^(\d+)([mhdwMy])$`)

// ErrInvalidFormat is matched by every InvalidFormatError via errors.Is.
var ErrInvalidFormat = errors.New("invalid expiration format")

// InvalidFormatError reports an input that matched none of the accepted forms.
type InvalidFormatError struct {
	Input string
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("Invalid expiration format: %q. Use duration (e.g., 7d, 2h, 1w), ISO 8601 date (e.g., 2026-02-15T14:30:00Z), or %q.", e.Input, Never)
}

// Is lets errors.Is(err, ErrInvalidFormat) succeed.
func (e *InvalidFormatError) Is(target error) bool {
	return target == ErrInvalidFormat
}

// Resolver resolves expiration strings against a clock.
// The zero value uses time.Now and the local time zone.
type Resolver struct {
	Now      func() time.Time
	Location *time.Location
}

// Resolve resolves input against the wall clock.
func Resolve(input string) (int64, error) {
	return Resolver{}.Resolve(input)
}

// Resolve returns the epoch-millisecond instant described by input.
func (r Resolver) Resolve(input string) (int64, error) {
	if strings.EqualFold(input, Never) {
		return r.now().UnixMilli() + NeverOffset, nil
	}

	// A duration-shaped input never falls through to date parsing.
	if m := durationRegex.FindStringSubmatch(input); m != nil {
		unit := unitMillis[m[2]]
		now := r.now().UnixMilli()
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || n > (math.MaxInt64-now)/unit {
			return 0, &InvalidFormatError{Input: input}
		}
		return now + n*unit, nil
	}

	if t, ok := parseDate(input, r.location()); ok {
		return t.UnixMilli(), nil
	}

	return 0, &InvalidFormatError{Input: input}
}

func (r Resolver) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r Resolver) location() *time.Location {
	if r.Location != nil {
		return r.Location
	}
	return time.Local
}
