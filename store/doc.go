// Package store holds the concrete repositories of the relmap models. Each
// embeds repository.BaseRepository and routes its extra read queries through
// BaseRepository.Query, so rows are always mapped the same way.
package store
