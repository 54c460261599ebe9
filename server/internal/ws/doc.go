// Package ws implements the WebSocket calculator endpoint.
//
// Hub keeps a set of connected clients. Every text frame a client sends is
// a calculation request with the same schema as POST /calculate plus an
// optional "id"; the hub evaluates it with the shared api.Service and queues
// exactly one reply frame:
//
//	{"id": 7, "egfr": 65.5}
//	{"id": 8, "error": "validation failed", "fields": [{"field": "age", ...}]}
//
// New(service) creates a Hub.
// Hub.Run(ctx) blocks until ctx is cancelled, then closes all connections.
// Hub.ServeHTTP upgrades the connection and serves it until it closes.
//
// The upgrader accepts all origins. The endpoint is mounted at /ws/calculate
// by the server.
package ws
