// Package memory provides object reuse for the hot path: a typed
// pool for order records, a ring of retired objects, and an epoch
// scheme that delays reuse until no snapshot reader can still see a
// retired order.
package memory
