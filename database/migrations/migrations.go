// Package migrations registers the SQL schema. It is imported for its side
// effects by cmd/kiraana.
package migrations
