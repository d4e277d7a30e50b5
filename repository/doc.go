// Package repository maps Go structs to SQL tables. A Descriptor is resolved
// once per struct type from its `db` tags, and BaseRepository runs CRUD
// statements built from it on any bun.IDB.
package repository
