// Package models defines the client-side entities mirrored from the CRM
// backend: customers (clienti), products (prodotti), packaging (imballaggi)
// and delivery notes (bolle).
//
// # Identity and sync flags
//
// Every entity carries a numeric ID and a Synced flag. IDs are assigned by
// the server when a record is created online; records created offline get a
// provisional local ID (max+1, or a timestamp-scale value for bolle) that is
// replaced by the server ID on the next successful sync. Synced is local-only
// state and never crosses the wire: each entity has a companion DTO type that
// statically excludes ID and sync flags from request payloads.
//
// # Money and weights
//
// Prices and weights use shopspring/decimal to avoid float drift across
// save/sync round trips.
package models
