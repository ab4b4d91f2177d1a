package cuts

import (
	"fmt"
	"math"
	"path/filepath"
	"strconv"
	"strings"
)

// OutputName returns the cut file name for a data file:
// "run_1547.root" becomes "run_1547_cut.root".
func OutputName(input string) string {
	base := filepath.Base(input)
	ext := filepath.Ext(base)
	return strings.TrimSuffix(base, ext) + "_cut" + ext
}

// Round rounds v to the given number of decimal places.
func Round(v float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(v*p) / p
}

// ThresholdLabel formats a rounded threshold the way the sweep ledger keys
// it: always with a decimal point, so 45 is "45.0" and 0.05 is "0.05".
func ThresholdLabel(v float64, decimals int) string {
	s := strconv.FormatFloat(Round(v, decimals), 'f', -1, 64)
	if !strings.ContainsAny(s, ".e") {
		s += ".0"
	}
	return s
}

// SweepName returns the output file name for one threshold of a sweep,
// e.g. "cut5_45p0_Bi214.root". The decimal point becomes 'p'. Thresholds are
// always labelled as floats, so a whole-number threshold of 1 is "1p0", never
// "1".
func SweepName(cutNumber int, threshold float64, decimals int, alias string) string {
	label := strings.ReplaceAll(ThresholdLabel(threshold, decimals), ".", "p")
	return fmt.Sprintf("cut%d_%s_%s", cutNumber, label, alias)
}
