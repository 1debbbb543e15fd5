// Package circadian estimates rhythm metrics from the sensor series of a
// participant.
//
// Every series is reduced to 10 minute bins and fitted with a single
// component cosinor model with a 24 hour period, giving mesor, amplitude
// and acrophase. The non-parametric metrics interdaily stability (IS),
// intradaily variability (IV), the most active 10 hours (M10), the least
// active 5 hours (L5) and the relative amplitude (RA) are computed on the
// scaled raw series. Sleep periods can be scored from Actigraph counts with
// the Cole-Kripke algorithm when no sleep diary is available.
package circadian
