// Package database provides connection management on top of Bun for
// postgres, mysql and sqlite, schema and seed script execution, query logging
// hooks, SQL error classification, configuration types and the logger used by
// the rest of the module.
package database
