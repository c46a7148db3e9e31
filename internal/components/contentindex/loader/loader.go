// Package loader registers content index drivers via blank imports.
//
// Usage in main.go:
//
//	import _ "github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex/loader"
package loader

import (
	_ "github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex/memory"
	_ "github.com/MahdiBaghbani/shareintake-go/internal/components/contentindex/sqlite"
)
