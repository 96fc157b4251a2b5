// Package ast models PostgreSQL statements as typed trees.
//
// Statements are assembled with builders (SelectFrom, InsertInto,
// UpdateTable, DeleteFrom) from values, columns, functions and condition
// trees. A finished tree is turned into SQL text and an ordered parameter
// list by the render package; scalar values never appear in the text.
//
// Every structural error (mismatched insert rows, alias arity, unsupported
// host values) is reported while building, so rendering cannot fail.
package ast
