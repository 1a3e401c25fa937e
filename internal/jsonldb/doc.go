// Package jsonldb provides generic, file-backed tables of JSON records.
//
// # Overview
//
// Each [Table] persists one logical table as a single JSON array file named
// after the table. Every operation starts from the file: [Table.Read] loads the
// whole array and [Table.Write] overwrites it. There is no in-memory cache and
// no cross-process locking; a database directory must have a single writer.
//
// # Validation
//
// A JSON schema is reflected from the row type with
// github.com/invopop/jsonschema and enforced on every read with
// github.com/xeipuuv/gojsonschema. Content that is not an array of objects with
// correctly typed fields is reported as a FORMAT_ERROR. Extra fields are
// accepted so that files survive schema evolution.
//
// # File Format
//
// A 4-space indented JSON array. An empty table is "[]".
package jsonldb
