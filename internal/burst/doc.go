// Package burst finds bursts in a spike train using the ISI_N statistic.
//
// An event is in a burst when it lies inside at least one window of N consecutive
// events whose span is at or below the threshold. Windows are OR-accumulated into a
// per-event flag sequence, and maximal runs of set flags become burst intervals.
// Runs are extracted as if the flag sequence were padded with an unset flag at both
// ends, so bursts that begin at the first event or end at the last event are kept whole.
package burst
