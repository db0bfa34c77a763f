// Package diag defines the error taxonomy of the resolver and the
// Collector that gathers resolution errors for batch reporting.
//
// Lexical and grammar errors (LexError, ParseError) abort parsing and are
// returned alone. Every other kind is recorded in a Collector while the
// pipeline keeps scanning, and the whole batch is returned as a *List once
// resolution ends. Each error carries the hcl.Range of the offending
// declaration.
package diag
