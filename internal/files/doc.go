// Package files provides file system discovery and access for study data.
//
// This package contains two main components:
//
// Discovery: finds participant folders below the raw data root and the hourly
// smartwatch exports inside a device folder. Hourly files are named after the
// hour they cover (dd.mm.yy_HH.csv) and are returned in chronological order.
//
// Manager: opens and creates data files. Paths ending in .gz are compressed
// and decompressed transparently so callers never branch on the extension.
//
// Example usage:
//
//	discovery := files.NewDiscovery(paths.RawDir)
//	ids, err := discovery.Participants()
//
//	hourly, err := discovery.HourlyFiles(paths.HeartRateDir("01"))
//	for _, f := range files.HoursInWindow(hourly, start, end) {
//	    // read f.Path
//	}
package files
