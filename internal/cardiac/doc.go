// Package cardiac derives heart rate variability from smartwatch inter-beat
// intervals and relates heart rate to physical activity.
package cardiac
