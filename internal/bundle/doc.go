// Package bundle turns a plugin or icon pack source directory into a
// distributable archive named after its manifest id.
package bundle
