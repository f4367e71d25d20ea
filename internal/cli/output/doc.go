// Package output provides output formatting for the pathmark CLI.
package output
