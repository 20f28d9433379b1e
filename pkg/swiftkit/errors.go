package swiftkit

import (
	"errors"
	"fmt"
)

// ResponseError reports a storage or CDN response with a status outside
// 200-299 that has no more specific mapping.
type ResponseError struct {
	Status int
	Reason string
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Reason)
}

// AuthenticationError reports a malformed response from the authentication
// service: the status looked successful but required headers were missing.
type AuthenticationError struct {
	Reason string
}

func (e *AuthenticationError) Error() string {
	return "invalid response from the authentication service: " + e.Reason
}

var (
	// ErrAuthenticationFailed is returned when the authentication service
	// rejects the supplied credentials.
	ErrAuthenticationFailed = errors.New("authentication failed: credentials rejected")

	// ErrCDNNotEnabled is returned for CDN operations on a connection whose
	// account did not advertise a CDN management URL.
	ErrCDNNotEnabled = errors.New("CDN is not enabled for this account")

	// ErrContainerNotPublic is returned when asking for the public URI of a
	// container that has not been published.
	ErrContainerNotPublic = errors.New("container is not published to the CDN")

	// ErrIncompleteSend is returned when a streamed upload source yields
	// fewer bytes than the declared object size.
	ErrIncompleteSend = errors.New("upload source ended before the declared size was sent")

	// ErrResponsePending is returned when a request is started while a
	// previous Response body on the same connection has not been closed.
	// The transport is a serial channel; interleaving requests corrupts it.
	ErrResponsePending = errors.New("previous response body must be closed before issuing a new request")
)

// NoSuchContainer reports a 404 for a container operation.
type NoSuchContainer struct {
	Name string
}

func (e *NoSuchContainer) Error() string {
	return fmt.Sprintf("no such container: %q", e.Name)
}

// NoSuchObject reports a 404 for an object operation.
type NoSuchObject struct {
	Name string
}

func (e *NoSuchObject) Error() string {
	return fmt.Sprintf("no such object: %q", e.Name)
}

// ContainerNotEmpty reports a 409 when deleting a container that still holds
// objects.
type ContainerNotEmpty struct {
	Name string
}

func (e *ContainerNotEmpty) Error() string {
	return fmt.Sprintf("cannot delete non-empty container %q", e.Name)
}

// InvalidNameError reports a container or object name rejected client-side
// before any request is made (empty, slash-containing, or over the length
// limit for containers; empty or over-limit for objects).
type InvalidNameError struct {
	Kind string // "container" or "object"
	Name string
}

func (e *InvalidNameError) Error() string {
	return fmt.Sprintf("invalid %s name: %q", e.Kind, e.Name)
}

// InvalidMetadataError reports a metadata entry whose name or value exceeds
// the service limits.
type InvalidMetadataError struct {
	Field string // "name" or "value"
	Value string
}

func (e *InvalidMetadataError) Error() string {
	return fmt.Sprintf("invalid metadata %s: %q", e.Field, e.Value)
}

// InvalidObjectSizeError reports a streamed upload attempted without a
// declared size.
type InvalidObjectSizeError struct {
	Size int64
}

func (e *InvalidObjectSizeError) Error() string {
	return fmt.Sprintf("invalid object size: %d", e.Size)
}

// InvalidURLError reports an endpoint URL that could not be parsed.
type InvalidURLError struct {
	URL string
}

func (e *InvalidURLError) Error() string {
	return fmt.Sprintf("invalid url: %q", e.URL)
}
