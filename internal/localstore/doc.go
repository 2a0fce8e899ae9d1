// Package localstore provides the offline persistence layer for Finzana.
//
// A [Store] is a versioned database of named collections. Each collection
// holds JSON records with a store-assigned ascending id and declares the
// fields it indexes for [Store.GetByIndex]. Two collections make up the
// default schema:
//   - transactions, indexed by date, type and category
//   - sync_queue, indexed by table, synced and timestamp
//
// Besides collections, a store keeps a keyed state area used to persist the
// application's whole collections (clients, credits, payments, users,
// config) as one record per key.
//
// # Engines
//
// [Bolt] stores everything in a bbolt file and is the default. [SQLite]
// keeps the same contract on top of modernc.org/sqlite. Both are created
// uninitialized; every call made before [Store.Initialize] fails with
// [ErrNotInitialized].
//
//	st, _ := localstore.Open(localstore.DriverBolt, path)
//	if err := st.Initialize(ctx); err != nil {
//	    return err
//	}
//	id, err := st.Add(ctx, localstore.Transactions, localstore.Record{"type": "ingreso"})
//
// # Schema upgrades
//
// When the stored version is lower than the schema version, collections the
// schema no longer declares are dropped, declared ones are created, and
// indexes are rebuilt.
package localstore
