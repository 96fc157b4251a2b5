// Package main provides a CLI for rendering and running sqlast operations.
//
// The CLI supports:
//   - render: Build an operation document into parameterized SQL
//   - exec: Render operations and run them against PostgreSQL
//   - config show: Print the effective configuration
//   - version: Print build information
//
// Operation documents are YAML or JSON files describing one GraphQL-shaped
// operation (findOne, findMany, createOne, createMany, updateOne,
// updateMany, deleteOne, deleteMany). "-" or no file reads standard input.
//
// Usage:
//
//	sqlast [flags] <command>
//
// Only exec needs database access; it reads database settings from
// sqlast.yaml or SQLAST_DATABASE_* environment variables.
package main

func main() {
	Execute()
}
