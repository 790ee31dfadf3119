// Package schema holds the typed tool-schema model and the argument
// normalizer. Schemas are declared statically, validated once at
// construction, and consulted on every tool call to default, coerce,
// and bounds-check the caller's loosely-typed JSON arguments.
package schema
