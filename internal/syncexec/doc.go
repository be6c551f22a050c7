// Package syncexec invokes the external synchronization tool as a bounded
// subprocess and keeps a small per-service run journal used to adapt the
// timeout for first-ever and recently-timed-out services.
package syncexec
