// Package wear derives the periods in which each device was worn.
//
// For the smartwatch, charging is detected from the battery log, either from
// the charging state transitions or from the shape of the battery level in a
// moving window. Hours without an export file are removed as well, and the
// two sources are combined into the wear interval files used by the activity
// and heart rate steps. For the Actigraph, epochs inside the non-wear
// periods detected upstream are dropped.
package wear
