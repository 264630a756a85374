// Package archive streams a directory tree into a zip archive. Entries are
// named relative to the tree root with forward slashes, file contents are
// deflated through one reusable buffer, empty directories get explicit
// entries, and entries that cannot be read are skipped and reported rather
// than aborting the build.
package archive
