// Package platform provides cross-platform directory symlink operations used
// by dev links. On Unix systems it uses native symlinks directly. On Windows
// directory symlinks require developer mode or elevation, and failures carry
// a hint saying so.
package platform
