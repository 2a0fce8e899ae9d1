// Package core is the application context of the back office.
//
// An [App] is built once at startup over an initialized local store and,
// optionally, the spreadsheet mirror. It holds the session collections
// (users, clients, credits, payments and the business configuration) in
// memory and writes each collection through to the store's state area
// after every mutation, under the keys [KeyUsers], [KeyClients],
// [KeyCredits], [KeyPayments] and [KeyConfig].
//
// # Mutations
//
// Registration, placement and payment follow the same steps:
//
//  1. validate the request against the configuration
//  2. append to the in-memory collection
//  3. persist the collection, rolling the append back on failure
//  4. enqueue the spreadsheet row when outbound sync is enabled
//
// Client CURPs are unique across local clients and the mirrored clients
// sheet. Credits and payments may reference mirrored records.
//
// Validation failures are [*ValidationError] values wrapping one of the
// package sentinels, so callers can match them with errors.Is.
package core
