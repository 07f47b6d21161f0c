// Package driving defines interfaces that external actors (UI, CLI) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// Clients talk to the feed either through the typed methods of FeedService or
// by sending ClientEvents to Handle and receiving EngineEvents back.
//
// Implementations of these interfaces live in internal/core/services.
package driving
