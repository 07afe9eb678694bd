package legend

import (
	"fmt"
	"math"
)

var suffixes = []string{"", "K", "M", "G", "T"}

// PrettyValue formats v with three significant digits and a K/M/G/T suffix,
// e.g. 1234 → "1.23K", 0.5 → "0.5". Values past the last suffix keep it.
func PrettyValue(v float64) string {
	i := 0
	for math.Abs(v) >= 1000 && i < len(suffixes)-1 {
		v /= 1000
		i++
	}
	return fmt.Sprintf("%.3G%s", v, suffixes[i])
}
