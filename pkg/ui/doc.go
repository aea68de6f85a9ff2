// Package ui prints run summaries, collation results and status tables
// to the console. Colour is off when stdout is not a terminal or when
// the user asks for plain output.
package ui
