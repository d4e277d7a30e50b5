// Package relmap wires the database, the repositories and the demo flow
// together. The mapping engine itself lives in the repository package.
package relmap
