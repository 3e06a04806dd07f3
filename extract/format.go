package extract

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/FuminoriSugawara/rosbag2-util/msgs"
	"github.com/FuminoriSugawara/rosbag2-util/table"
)

// FormatSeconds renders seconds since the Unix epoch in loc with microsecond
// precision. The fraction is rounded half to even, so a value one ulp below a
// whole microsecond still lands on it.
func FormatSeconds(sec float64, loc *time.Location) string {
	whole, frac := math.Modf(sec)
	us := math.RoundToEven(frac * 1e6)
	if us >= 1e6 {
		whole++
		us -= 1e6
	} else if us < 0 {
		whole--
		us += 1e6
	}
	return time.Unix(int64(whole), int64(us)*1000).In(loc).Format(table.TimeLayout)
}

// FormatNanos renders a bag timestamp in nanoseconds.
func FormatNanos(ns int64, loc *time.Location) string {
	return FormatSeconds(float64(ns)*1e-9, loc)
}

// FormatValue renders one array element the way the recorded arrays print:
// integral floats keep a trailing ".0", tiny and huge magnitudes use exponent
// form and integer arrays have no decimal point.
func FormatValue(v float64, kind msgs.Kind) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}
	if kind == msgs.KindInt {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	bits := 64
	if kind == msgs.KindFloat32 {
		bits = 32
	}
	if v != 0 {
		e := strconv.FormatFloat(v, 'e', -1, bits)
		exp, _ := strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
		if exp < -4 || exp >= 16 {
			return e
		}
	}
	s := strconv.FormatFloat(v, 'f', -1, bits)
	if !strings.ContainsRune(s, '.') {
		s += ".0"
	}
	return s
}
