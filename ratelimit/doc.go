// Package ratelimit implements per-credential token-bucket rate
// limiting with a Redis-backed shared bucket and an in-process
// fallback.
//
// The Redis limiter runs the refill-and-take step as a single Lua
// script so concurrent callers across processes contend on one atomic
// bucket. When Redis is unreachable or slow the Fallback limiter
// degrades to a process-local bucket instead of failing the request.
package ratelimit
