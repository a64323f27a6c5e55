// Package logging builds the process-wide structured logger from
// configuration: level, output format, and source annotation.
package logging
