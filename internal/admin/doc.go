// Package admin validates and executes administrative commands against the
// address store.
//
// Single-address operations run immediately. Removing every address that
// belongs to an owner is a bulk, name-driven deletion, so it is deferred
// through the confirmation engine and only runs when the same actor confirms.
//
// The Coordinator returns structured Results; the Dispatcher turns command
// lines into Coordinator calls and renders the Results as messages.
package admin
