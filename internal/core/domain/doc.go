// Package domain defines the core business entities for feedsync.
//
// This package is part of the hexagonal architecture's innermost layer.
// It defines the fundamental types:
//
//   - Document: A ranked news document with its lifecycle state
//   - ActiveDocumentData: Engine side data kept while a document is active
//   - FeedMarket: A country/language pair the engine serves
//   - EngineInitializer: The bundle used once to construct an engine
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. All other packages depend on
// domain, never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library, github.com/google/uuid, golang.org/x/text
//   - Cannot Import: Any internal/ package
package domain
