/*

Package swiftkit is a client library for Cloud Files-style object storage:
accounts holding containers, containers holding objects, all spoken over a
plain HTTP API, with an optional CDN publishing side channel.

The center of the package is the Connection, which owns one authenticated
session against a storage endpoint. Requests are reissued transparently
across two kinds of transient trouble: a broken transport is reconnected
and the request retried once, and an expired session token (a 401) triggers
one re-authentication before the retry. Higher-level wrappers (Container,
Object) build request paths and headers from domain attributes, delegate
execution to the Connection, and own the interpretation of status codes.

Limitations and Design Considerations

Serial transport - a Connection holds exactly one request/response channel
(two with CDN). The response body of every request must be fully consumed
and closed before the next request may be issued; the library guards this
and fails fast rather than corrupting the stream. Workers that need
concurrent requests should each hold their own Connection, coordinated
through a ConnectionPool.

Pooling - the ConnectionPool is a bounded cache of idle sessions, nothing
more. It performs no health checking on Get and no eviction by age; a
connection released mid-failure recovers through the normal retry path on
its next use.

Cancellation - requests are not cancellable mid-flight. Once issued, a
request runs to completion, one retry, or failure. The single configured
timeout bounds connect and read operations instead.

Object versions and multipart uploads - not part of this API. Large uploads
stream in bounded chunks over the single transport; sources of known size
can be verified end to end with an md5 checksum.
*/
package swiftkit
