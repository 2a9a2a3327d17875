// Package app wires the dashboard service together and runs it.
//
// New builds every component from a loaded configuration: the optional Redis
// query cache, the websocket hub, the dataset, lookup, explorer and health
// services, the cron reload schedule and the chi router. Start warms the
// dataset in the background and begins serving; Stop shuts the server down
// and releases the hub, the scheduler, the cache and the telemetry
// providers.
//
// Middleware order is RequestID, RealIP, StructuredLogger, Recoverer, OTel,
// SecurityHeaders, CORS and RateLimiter. The API routes additionally run
// under Timeout and Compress; the websocket route does not, since both wrap
// the response writer for the lifetime of the request.
package app
