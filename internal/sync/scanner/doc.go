// Package scanner expands the glob patterns given to a push into the list of
// local files to process.
//
// Every pattern and every match is normalized with TrimPathStart so "./a",
// "/a" and "a" all name the same file.
package scanner
