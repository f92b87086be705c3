// Package planner decides what a push does with each file and remote object:
// which files go first, which uploads can be skipped and which remote objects
// are extra.
package planner
