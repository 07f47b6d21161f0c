// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - Engine: The ranking engine facade
//   - DocumentStore: Document persistence (system of record for documents)
//   - ActiveDataStore: Engine side data persistence for active documents
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - EngineStateStore: Serialized engine state. Without it the engine starts fresh each run.
//   - ArticleNormaliser: Cleans ingested articles before they reach the engine.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
