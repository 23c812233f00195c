// Package requestid tags every request with a correlation identifier.
//
// Middleware reuses a well-formed X-Request-ID header from the client and
// otherwise generates a time-ordered UUID. The identifier is stored in the
// request context, echoed in the response header and, through
// LoggerExtractor, attached to every log record written during the request.
package requestid
