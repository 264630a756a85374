// Package userdata resolves the host application's per-user data directory and
// the locations inside it that dev links target: the host install root, the
// plugins directory, and a plugin's slot. It also provides the host health
// check behind the doctor command.
package userdata
