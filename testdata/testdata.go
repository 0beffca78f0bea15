// Package testdata embeds the formula books run by the acceptance tests.
package testdata

import "embed"

//go:embed books/*.md
var Books embed.FS

// GetFS returns the embedded filesystem
func GetFS() embed.FS {
	return Books
}
