// Package prompt provides interactive terminal prompts.
//
// Prompts render on stderr so stdout stays clean for piping. Callers
// must check that stdin is a terminal before prompting.
package prompt
