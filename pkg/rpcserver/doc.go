// Package rpcserver implements the supervisor's local control-plane
// daemon (C5): a unix-socket listener serving a minimal hand-rolled
// HTTP/1.1 surface — no net/http server, no gRPC — serving the nine
// endpoints of §4.5 plus /v1/metrics and nothing more. Mutating
// lifecycle verbs proxy through /v1/execute so sentinel writes stay
// single-writer even with several shells open at once.
package rpcserver
