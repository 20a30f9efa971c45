// Package ipc owns the byte-stream channel to the hvproxyd helper daemon and
// the command session running over it.
//
// Three layers live here. Conn is the framed transport: a raw AF_UNIX
// descriptor in the abstract namespace with exact-count reads and writes that
// silently absorb signal interruptions. Dial is the connector: it retries the
// abstract connect with quadratically growing backoff, asking a Launcher to
// spawn the daemon between attempts. Session correlates one request with one
// response by serial number, validates every header it reads, and force-closes
// the connection the moment the stream can no longer be trusted.
//
// Everything is synchronous and blocking: one outstanding request per
// connection, no pipelining, no read timeouts. Callers needing concurrent use
// must wrap a Session with their own mutual exclusion.
package ipc
