// Package archive packs a MoonBit library directory into an in-memory zip
// archive and unpacks such archives back onto disk.
//
// The same engine serves two callers: the installer, which unpacks the
// `core` bundle downloaded from the registry, and the backup manager, which
// snapshots and restores `<moonhome>/lib/core`.
//
// # Archive Layout
//
// Entry names are slash-separated and relative to the library directory, so
// every entry lives under the root subdirectory (`core/...`). The library
// directory itself is never stored. A build-output cache (`core/target`) is
// never archived.
//
// # Safety
//
// Unpack validates every entry before writing anything: an entry whose
// joined path resolves outside `<dest>/core` aborts the whole operation
// with a *PathEscapeError.
//
// # Metadata
//
// On Unix-like systems the permission bits of files and directories are
// stored in the zip external attributes and restored on unpack. Entry
// modification times are stored at one-second granularity in local wall
// clock time and restored after all content is written, files first and
// directories last, since writing into a directory bumps its mtime.
package archive
