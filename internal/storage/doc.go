// Package storage implements the durable point store on top of PostgreSQL.
//
// Points land in a plain append-only table with no primary key and no
// uniqueness constraint: concurrent writers to the same
// (namespace, id, timestamp) tuple never conflict and both rows are kept.
// Range reads are served from the composite (namespace, id, timestamp)
// index. The schema is evolved by an ordered, named migration ledger that
// must be reconciled before any traffic is accepted.
package storage
