package mongo

import "sync/atomic"

var isReplicaSet atomic.Bool

// IsReplicaSet reports whether Init found a replica set, in which case like
// toggles run inside a transaction. Checked once; false until Init succeeds.
func IsReplicaSet() bool { return isReplicaSet.Load() }
