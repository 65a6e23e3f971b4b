// Package ui renders git command lifecycle events for people reading a console
// log, complementing the structured fields the executor already records.
package ui
