// Package core implements the import pipeline.
//
// A run reads a source through a [Reader], turns every [Item] into a domain
// object with a [Converter], checks it with a [Validator] and hands valid
// objects to a [Writer]. The [Importer] drives these stages and collects
// the outcome in a [Result]. The package has no transport dependencies and
// is shared by the CLI and the HTTP server.
//
// # Targets
//
// Targets are registered at init time using [Register]. Each
// [TargetDefinition] names its fields, rules and sink columns:
//
//	core.Register(core.TargetDefinition{
//	    Info: core.TargetInfo{Key: "product", Label: "Products", Table: "products"},
//	    FieldSpecs: []core.FieldSpec{
//	        {Name: "code", Kind: core.KindText},
//	        {Name: "cost", Kind: core.KindDecimal},
//	    },
//	    New:   newProduct,
//	    Rules: productRules,
//	    Row:   productRow,
//	})
//
// # Row outcomes
//
// Every item the reader yields is counted once. A row fails with a process
// error when it cannot be parsed, converted or written, and with a
// validation error when rules reject it. Neither stops the run. Only a
// source read failure or a failed [Writer.Finish] is returned as an error,
// and the partial [Result] is returned with it.
//
// # Error handling
//
// Run-level errors are marked with one of the class sentinels in errors.go
// and mapped to user messages with [MapError]:
//
//   - SRC001-SRC004: source errors (missing, directory, unreadable)
//   - CFG001-CFG003: configuration errors (options, formats, targets)
//   - DB001-DB007: database errors (duplicates, constraints, connections)
//   - FIN001: commit failures
//   - IMP001: another import holds the sink
package core
