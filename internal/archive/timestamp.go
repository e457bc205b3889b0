package archive

import (
	"archive/zip"
	"time"
)

// msdosEpochYear is the earliest year representable by a zip MS-DOS timestamp.
const msdosEpochYear = 1980

// EntryTime returns the modification time recorded for an entry, or
// fallback when the entry carries none.
//
// Zip timestamps are local wall clock values without zone information, so
// the recorded fields are interpreted in the local time zone.
func EntryTime(h *zip.FileHeader, fallback time.Time) time.Time {
	m := h.Modified
	if m.IsZero() || m.Year() < msdosEpochYear {
		return fallback
	}
	return time.Date(m.Year(), m.Month(), m.Day(), m.Hour(), m.Minute(), m.Second(), 0, time.Local)
}
