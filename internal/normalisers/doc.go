// Package normalisers cleans candidate articles before ingest. Each
// normaliser handles one concern, e.g. stripping markup from feed snippets,
// and a Pipeline runs them in order.
package normalisers
