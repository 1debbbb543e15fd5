// Package comparison summarises rhythm metrics across participants: the
// data completeness of each device, agreement of every sensor's circadian
// metrics with the Actigraph reference, and the relation of the metrics to
// chronotype (MEQ score).
package comparison
