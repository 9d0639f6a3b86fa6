// Package lock implements advisory, PID-tagged exclusive locks on files.
//
// A lock on a resource is a sidecar file named "<resource>.lock" whose only
// content is the decimal process identifier of its owner. The file is created
// with O_EXCL, so at most one process holds it. A lock whose owner no longer
// exists is stale and is reclaimed by the next Acquire; a lock whose owner is
// alive is waited on, never removed.
package lock
