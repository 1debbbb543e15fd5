// Package activity turns raw smartwatch acceleration into ActiGraph style
// activity counts and compares them with the counts exported by ActiLife.
//
// The count algorithm follows the published ActiGraph filter chain: the raw
// signal is resampled to 30 Hz, band-pass filtered, rectified with a dead
// band and saturation, accumulated to 10 Hz and summed per epoch. Before the
// comparison the merged series is cleaned of charging gaps and of minutes in
// which one or both devices were not worn.
package activity
