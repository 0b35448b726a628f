package burst

// Run is an inclusive index range of consecutive set flags.
type Run struct {
	First int
	Last  int
}

// Runs folds over flags padded with an unset sentinel on each side and emits every
// maximal run of set flags in order.
func Runs(flags []bool) []Run {
	runs := make([]Run, 0)
	prev, start := false, 0
	for i := 0; i <= len(flags); i++ {
		cur := i < len(flags) && flags[i]
		switch {
		case cur && !prev:
			start = i
		case !cur && prev:
			runs = append(runs, Run{First: start, Last: i - 1})
		}
		prev = cur
	}
	return runs
}
