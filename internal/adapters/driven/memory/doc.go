// Package memory provides in-process store backends used when Redis or
// PostgreSQL is not configured. State is lost on restart.
package memory
