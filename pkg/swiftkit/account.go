// Account-level operations: creating, listing and deleting containers and
// reading account usage totals.
package swiftkit

import (
	"encoding/json"
	"net/http"
	"strings"
)

// AccountInfo is the usage summary reported by a HEAD on the account.
type AccountInfo struct {
	ContainerCount int64
	BytesUsed      int64
}

// Info returns the number of containers and total bytes used by the account.
func (c *Connection) Info() (AccountInfo, error) {
	resp, err := c.Execute("HEAD", nil, nil, nil, nil)
	if err != nil {
		return AccountInfo{}, err
	}
	info := AccountInfo{
		ContainerCount: headerInt(resp.Header.Get("X-Account-Container-Count")),
		BytesUsed:      headerInt(resp.Header.Get("X-Account-Bytes-Used")),
	}
	if !resp.Success() {
		return AccountInfo{}, resp.Err()
	}
	resp.Discard()
	return info, nil
}

// CreateContainer creates the named container if it does not already exist
// and returns a Container for it.
func (c *Connection) CreateContainer(name string) (*Container, error) {
	if err := checkContainerName(name); err != nil {
		return nil, err
	}
	resp, err := c.Execute("PUT", []string{name}, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if !resp.Success() {
		return nil, resp.Err()
	}
	resp.Discard()
	return newContainer(c, name, 0, 0)
}

// DeleteContainer deletes the named container. The container must be empty.
// On CDN-enabled accounts the container is also removed from the CDN.
func (c *Connection) DeleteContainer(name string) error {
	if err := checkContainerName(name); err != nil {
		return err
	}
	resp, err := c.Execute("DELETE", []string{name}, nil, nil, nil)
	if err != nil {
		return err
	}
	switch {
	case resp.Status == http.StatusConflict:
		resp.Discard()
		return &ContainerNotEmpty{Name: name}
	case resp.Status == http.StatusNotFound:
		resp.Discard()
		return &NoSuchContainer{Name: name}
	case !resp.Success():
		return resp.Err()
	}
	resp.Discard()

	if c.cdnEnabled {
		cdnResp, err := c.CDNExecute("DELETE", []string{name}, nil, nil)
		if err != nil {
			return err
		}
		cdnResp.Discard()
	}
	return nil
}

// GetContainer returns a Container for the given name, with its cached
// object count and byte usage populated from a HEAD request.
func (c *Connection) GetContainer(name string) (*Container, error) {
	if err := checkContainerName(name); err != nil {
		return nil, err
	}
	resp, err := c.Execute("HEAD", []string{name}, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	count := headerInt(resp.Header.Get("X-Container-Object-Count"))
	size := headerInt(resp.Header.Get("X-Container-Bytes-Used"))
	if resp.Status == http.StatusNotFound {
		resp.Discard()
		return nil, &NoSuchContainer{Name: name}
	}
	if !resp.Success() {
		return nil, resp.Err()
	}
	resp.Discard()
	return newContainer(c, name, count, size)
}

// ListContainers returns the names of all containers on the account.
func (c *Connection) ListContainers() ([]string, error) {
	resp, err := c.Execute("GET", []string{""}, nil, nil, nil)
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

// ContainerRecord is one entry of a detailed (format=json) container
// listing.
type ContainerRecord struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
	Bytes int64  `json:"bytes"`
}

// ListContainersInfo returns detailed records for every container on the
// account.
func (c *Connection) ListContainersInfo() ([]ContainerRecord, error) {
	resp, err := c.Execute("GET", []string{""}, nil, nil, map[string]string{"format": "json"})
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
	var records []ContainerRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, err
	}
	return records, nil
}

// GetAllContainers returns Container handles for every container on the
// account. The handles carry no cached counts; use GetContainer for those.
func (c *Connection) GetAllContainers() ([]*Container, error) {
	names, err := c.ListContainers()
	if err != nil {
		return nil, err
	}
	containers := make([]*Container, 0, len(names))
	for _, name := range names {
		cont, err := newContainer(c, name, 0, 0)
		if err != nil {
			return nil, err
		}
		containers = append(containers, cont)
	}
	return containers, nil
}

// ListPublicContainers returns the names of all containers published to the
// CDN.
func (c *Connection) ListPublicContainers() ([]string, error) {
	resp, err := c.CDNExecute("GET", []string{""}, nil, nil)
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

func splitLines(body []byte) []string {
	trimmed := strings.Trim(string(body), "\n")
	if trimmed == "" {
		return nil
	}
	return strings.Split(trimmed, "\n")
}
