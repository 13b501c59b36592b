package helper

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// TimePhaser spells out a number of seconds as months, days, hours, minutes
// and seconds, skipping zero units: 90 -> "1 minutes 30 seconds".
func TimePhaser(seconds float64) string {
	m, s := divmod(seconds, 60)
	h, m := divmod(m, 60)
	d, h := divmod(h, 24)
	mo, d := divmod(d, 30)

	var parts []string
	if mo > 0 {
		parts = append(parts, unit(mo, "months"))
	}
	if d > 0 {
		parts = append(parts, unit(d, "days"))
	}
	if h > 0 {
		parts = append(parts, unit(h, "hours"))
	}
	if m > 0 {
		parts = append(parts, unit(m, "minutes"))
	}
	if s > 0 {
		parts = append(parts, unit(s, "seconds"))
	}
	return strings.Join(parts, " ")
}

func divmod(a, b float64) (float64, float64) {
	q := math.Floor(a / b)
	return q, a - q*b
}

func unit(v float64, name string) string {
	return strconv.Itoa(int(math.RoundToEven(v))) + " " + name
}

var (
	durationRegex = regexp.MustCompile(`(?:(\d{1,5})(h|s|m|d))+?`)
	durationUnits = map[string]time.Duration{
		"h": time.Hour,
		"s": time.Second,
		"m": time.Minute,
		"d": 24 * time.Hour,
	}
)

// ParseDuration sums every "<number><h|m|s|d>" group found in argument,
// e.g. "1d 2h30m" is 26h30m. Text without any group yields zero.
func ParseDuration(argument string) time.Duration {
	var total time.Duration
	for _, match := range durationRegex.FindAllStringSubmatch(strings.ToLower(argument), -1) {
		// At most five digits, Atoi can't fail.
		v, _ := strconv.Atoi(match[1])
		total += time.Duration(v) * durationUnits[match[2]]
	}
	return total
}
