// Package probe reports calculator liveness over gRPC and HTTP.
//
// Probe wraps the standard grpc.health.v1 health server. Register attaches
// it to a *grpc.Server; ServeHTTP answers GET /healthz with the same status
// as JSON (503 while not serving). SetServing flips both the overall ""
// service and ServiceName.
//
// LoggingInterceptor is a unary server interceptor that logs every gRPC call
// with its method, status code and duration at debug level.
package probe
