// Package linker manages dev links: symbolic links placed in the desktop app's
// plugins directory that point at a local .tilepadPlugin source tree, so edits
// are picked up without re-bundling. Link and unlink ask a running app to
// reload its plugins afterwards; that notification is best-effort.
package linker
