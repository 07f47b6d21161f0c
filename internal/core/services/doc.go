// Package services implements the driving ports.
//
// FeedManager keeps the document store, the active data store and the engine
// in step: every batch the engine ranks is persisted completely or not at
// all, and the engine is saved after each change. SettingsService reads and
// writes the feed settings through the config store.
package services
