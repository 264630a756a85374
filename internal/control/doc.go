// Package control talks to the desktop app's loopback control server. Probe
// checks whether the app is running and never fails; Notify sends a reload,
// restart or stop request and reports a rejected request as an error.
package control
