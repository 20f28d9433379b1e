package swiftkit

import "time"

// Version of the swiftkit library.
const Version = "0.9.0"

// UserAgent is sent with every request, including authentication.
const UserAgent = "go-swiftkit/" + Version

const (
	// DefaultAuthURL is used when no auth endpoint is configured.
	DefaultAuthURL = "https://auth.swiftkit.dev/auth"

	// DefaultAPIVersion selects the storage API version segment in the
	// authentication path (/v1/<account>/auth).
	DefaultAPIVersion = 1

	// DefaultTimeout bounds connect and read operations on the transport.
	DefaultTimeout = 5 * time.Second

	// DefaultCDNTTL is the cache lifetime requested when publishing a
	// container without an explicit TTL.
	DefaultCDNTTL = 86400

	// DefaultPoolSize bounds the number of idle connections kept by a
	// ConnectionPool.
	DefaultPoolSize = 10
)

// Name and metadata limits enforced client-side before any request is made.
const (
	ContainerNameLimit = 256
	ObjectNameLimit    = 1024
	MetaNameLimit      = 128
	MetaValueLimit     = 256
)

const (
	// writeChunkSize is the unit in which streamed uploads are pushed onto
	// the transport (and the granularity of progress callbacks).
	writeChunkSize = 4096

	// readChunkSize is the unit in which downloads are copied to a caller
	// supplied writer.
	readChunkSize = 8192
)
