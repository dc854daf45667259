// Package watch rebuilds the site when the input tree changes.
//
// Change sources (an fsnotify Watcher, or a Poller for filesystems without
// change notifications) call Trigger.Notify. A single Trigger worker turns
// bursts of notifications into one build after a quiet window, never waits
// longer than the max delay, and never runs two builds at once: requests that
// arrive while a build runs queue exactly one follow-up.
package watch
