// Container operations.
//
// Containers are the storage compartments objects live in. They exist in a
// flat namespace; a container cannot hold another container. On accounts
// with the feature enabled, a container can be published to a content
// delivery network.
package swiftkit

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Container is a handle on one named container and the factory for Object
// instances within it.
type Container struct {
	conn *Connection
	Name string

	// Cached from the HEAD that produced this handle; zero when the handle
	// came from a bare listing.
	ObjectCount int64
	BytesUsed   int64

	cdnURI string
	cdnTTL int
}

func newContainer(conn *Connection, name string, count, size int64) (*Container, error) {
	if err := checkContainerName(name); err != nil {
		return nil, err
	}
	c := &Container{conn: conn, Name: name, ObjectCount: count, BytesUsed: size}
	if conn.cdnEnabled {
		if err := c.fetchCDNData(); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// fetchCDNData refreshes the cached CDN URI and TTL from the CDN service.
// A non-2xx response means the container simply is not published.
func (c *Container) fetchCDNData() error {
	resp, err := c.conn.CDNExecute("HEAD", []string{c.Name}, nil, nil)
	if err != nil {
		return err
	}
	if resp.Success() {
		c.cdnURI = resp.Header.Get("X-CDN-URI")
		c.cdnTTL = int(headerInt(resp.Header.Get("X-TTL")))
	}
	return resp.Discard()
}

// ListParams narrows an object listing. Zero values leave the corresponding
// query parameter unset.
type ListParams struct {
	Prefix string
	Limit  int
	Offset int
	Path   string // pseudo-directory listing
}

func (p ListParams) query() map[string]string {
	parms := map[string]string{}
	if p.Prefix != "" {
		parms["prefix"] = p.Prefix
	}
	if p.Limit > 0 {
		parms["limit"] = strconv.Itoa(p.Limit)
	}
	if p.Offset > 0 {
		parms["offset"] = strconv.Itoa(p.Offset)
	}
	if p.Path != "" {
		parms["path"] = p.Path
	}
	return parms
}

// ListObjects returns the names of objects in the container, narrowed by
// params.
func (c *Container) ListObjects(params ListParams) ([]string, error) {
	resp, err := c.conn.Execute("GET", []string{c.Name}, nil, nil, params.query())
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return nil, resp.Err()
	}
	body, err := resp.ReadBody()
	if err != nil {
		return nil, err
	}
	return splitLines(body), nil
}

// ObjectRecord is one entry of a detailed (format=json) object listing.
type ObjectRecord struct {
	Name         string `json:"name"`
	Hash         string `json:"hash"`
	Bytes        int64  `json:"bytes"`
	ContentType  string `json:"content_type"`
	LastModified string `json:"last_modified"`
}

// ListObjectsInfo returns detailed records for objects in the container,
// narrowed by params.
func (c *Container) ListObjectsInfo(params ListParams) ([]ObjectRecord, error) {
	parms := params.query()
	parms["format"] = "json"
	resp, err := c.conn.Execute("GET", []string{c.Name}, nil, nil, parms)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return nil, resp.Err()
	}
	body, err := resp.ReadBody()
	if err != nil {
		return nil, err
	}
	var records []ObjectRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// CreateObject returns an Object handle for the given name, creating
// nothing on the server yet. If an object by that name already exists its
// attributes are loaded; otherwise the handle starts empty and the first
// Write materializes it.
func (c *Container) CreateObject(name string) (*Object, error) {
	return newObject(c, name, false)
}

// GetObject returns an Object handle for an existing object, or
// NoSuchObject when it does not exist.
func (c *Container) GetObject(name string) (*Object, error) {
	return newObject(c, name, true)
}

// DeleteObject removes the named object from the container.
func (c *Container) DeleteObject(name string) error {
	if err := checkObjectName(name); err != nil {
		return err
	}
	resp, err := c.conn.Execute("DELETE", []string{c.Name, name}, nil, nil, nil)
	if err != nil {
		return err
	}
	if resp.Status == http.StatusNotFound {
		resp.Discard()
		return &NoSuchObject{Name: name}
	}
	if !resp.Success() {
		return resp.Err()
	}
	return resp.Discard()
}

// MakePublic publishes the container to the CDN, or updates its TTL when it
// is already published. ttl is the CDN cache duration in seconds; zero
// means DefaultCDNTTL.
func (c *Container) MakePublic(ttl int) error {
	if !c.conn.cdnEnabled {
		return ErrCDNNotEnabled
	}
	if ttl == 0 {
		ttl = DefaultCDNTTL
	}
	method := "PUT"
	if c.cdnURI != "" {
		method = "POST"
	}
	hdrs := http.Header{}
	hdrs.Set("X-TTL", strconv.Itoa(ttl))
	hdrs.Set("X-CDN-Enabled", "True")
	resp, err := c.conn.CDNExecute(method, []string{c.Name}, nil, hdrs)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return resp.Err()
	}
	c.cdnTTL = ttl
	if uri := resp.Header.Get("X-CDN-URI"); uri != "" {
		c.cdnURI = uri
	}
	return resp.Discard()
}

// MakePrivate withdraws the container from the CDN. Cached copies may
// remain available until the TTL expires.
func (c *Container) MakePrivate() error {
	if !c.conn.cdnEnabled {
		return ErrCDNNotEnabled
	}
	hdrs := http.Header{}
	hdrs.Set("X-CDN-Enabled", "False")
	resp, err := c.conn.CDNExecute("POST", []string{c.Name}, nil, hdrs)
	if err != nil {
		return err
	}
	if !resp.Success() {
		return resp.Err()
	}
	c.cdnURI = ""
	return resp.Discard()
}

// IsPublic reports whether the container is published to the CDN.
func (c *Container) IsPublic() (bool, error) {
	if !c.conn.cdnEnabled {
		return false, ErrCDNNotEnabled
	}
	return c.cdnURI != "", nil
}

// PublicURI returns the CDN URI for a published container.
func (c *Container) PublicURI() (string, error) {
	public, err := c.IsPublic()
	if err != nil {
		return "", err
	}
	if !public {
		return "", ErrContainerNotPublic
	}
	return c.cdnURI, nil
}

// TTL returns the cached CDN cache duration in seconds.
func (c *Container) TTL() int {
	return c.cdnTTL
}
