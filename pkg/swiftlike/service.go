// Package swiftlike is an in-process Cloud Files-style storage service used
// for testing the swiftkit client and for local development. It speaks the
// same HTTP surface as the real service (authentication, account, container
// and object operations, plus the CDN management side channel) against
// purely in-memory state, and exposes failure-injection knobs so tests can
// exercise the client's reconnect and re-authentication paths.
package swiftlike

import (
	"crypto/md5"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/render"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Options configures a Service.
type Options struct {
	// Account is the account segment advertised in the storage URL.
	// Defaults to "test".
	Account string

	// Username and APIKey are the accepted credentials. When both are
	// empty any credentials authenticate.
	Username string
	APIKey   string

	// ListenAddr and CDNListenAddr default to ephemeral loopback ports.
	ListenAddr    string
	CDNListenAddr string

	// DisableCDN suppresses the X-CDN-Management-Url header so clients see
	// an account without CDN support.
	DisableCDN bool
}

type storedObject struct {
	data         []byte
	contentType  string
	etag         string
	lastModified time.Time
	metadata     map[string]string
}

type storedContainer struct {
	objects    map[string]*storedObject
	cdnEnabled bool
	cdnURI     string
	cdnTTL     int
}

// Service is one fake storage deployment: an auth endpoint, a storage
// endpoint and a CDN management endpoint over shared in-memory state.
type Service struct {
	m    sync.Mutex
	log  logrus.FieldLogger
	opts Options

	containers map[string]*storedContainer
	token      string

	authCalls    int
	dropNext     int
	rejectTokens bool

	operations []string

	Addr    net.Addr
	CDNAddr net.Addr
	done    chan bool

	storageServer *http.Server
	cdnServer     *http.Server
}

// NewService returns an unstarted Service. A nil logger falls back to the
// logrus standard logger.
func NewService(opts Options, logger logrus.FieldLogger) *Service {
	if opts.Account == "" {
		opts.Account = "test"
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Service{
		log:        logger,
		opts:       opts,
		containers: make(map[string]*storedContainer),
		done:       make(chan bool),
	}
}

// Start opens the storage and CDN listeners and begins serving.
func (s *Service) Start() error {
	addr := s.opts.ListenAddr
	if addr == "" {
		addr = "127.0.0.1:0"
	}
	cdnAddr := s.opts.CDNListenAddr
	if cdnAddr == "" {
		cdnAddr = "127.0.0.1:0"
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return errors.Wrap(err, "opening storage listener")
	}
	s.Addr = listener.Addr()

	cdnListener, err := net.Listen("tcp", cdnAddr)
	if err != nil {
		listener.Close()
		return errors.Wrap(err, "opening CDN listener")
	}
	s.CDNAddr = cdnListener.Addr()

	s.log.Infof("swiftlike storage at %v, CDN management at %v", s.Addr, s.CDNAddr)

	s.storageServer = &http.Server{Handler: s.createStorageRouter()}
	go func() {
		s.storageServer.Serve(listener)
		s.done <- true
	}()
	s.cdnServer = &http.Server{Handler: s.createCDNRouter()}
	go func() {
		s.cdnServer.Serve(cdnListener)
		s.done <- true
	}()
	return nil
}

// Close stops both listeners.
func (s *Service) Close() {
	if s.storageServer != nil {
		s.storageServer.Close()
	}
	if s.cdnServer != nil {
		s.cdnServer.Close()
	}
}

// Wait blocks until a listener shuts down.
func (s *Service) Wait() {
	<-s.done
}

// AuthURL is the endpoint clients should authenticate against.
func (s *Service) AuthURL() string {
	return fmt.Sprintf("http://%s/auth", s.Addr)
}

// AuthCalls reports how many authentication requests have been served.
func (s *Service) AuthCalls() int {
	s.m.Lock()
	defer s.m.Unlock()
	return s.authCalls
}

// Operations returns the "METHOD path" log of storage requests served.
func (s *Service) Operations() []string {
	s.m.Lock()
	defer s.m.Unlock()
	out := make([]string, len(s.operations))
	copy(out, s.operations)
	return out
}

// DropConnections makes the service kill the next n storage connections
// mid-request, as a crashed or reset peer would.
func (s *Service) DropConnections(n int) {
	s.m.Lock()
	s.dropNext = n
	s.m.Unlock()
}

// ExpireToken invalidates the current session token so the next storage
// request is rejected with 401, forcing clients to re-authenticate.
func (s *Service) ExpireToken() {
	s.m.Lock()
	s.token = ""
	s.m.Unlock()
}

// RejectTokens makes every storage request come back 401 regardless of
// token, including after re-authentication.
func (s *Service) RejectTokens(reject bool) {
	s.m.Lock()
	s.rejectTokens = reject
	s.m.Unlock()
}

func (s *Service) createStorageRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Use(s.failureInjector)

	r.Get("/auth", s.handleAuth)

	r.Route("/v1/{account}", func(r chi.Router) {
		r.Use(s.tokenChecker)
		r.Head("/", s.handleAccountHead)
		r.Get("/", s.handleAccountList)
		r.Put("/{container}", s.handleContainerPut)
		r.Delete("/{container}", s.handleContainerDelete)
		r.Head("/{container}", s.handleContainerHead)
		r.Get("/{container}", s.handleContainerList)
		r.Put("/{container}/*", s.handleObjectPut)
		r.Get("/{container}/*", s.handleObjectGet)
		r.Head("/{container}/*", s.handleObjectHead)
		r.Post("/{container}/*", s.handleObjectPost)
		r.Delete("/{container}/*", s.handleObjectDelete)
	})
	return r
}

func (s *Service) createCDNRouter() *chi.Mux {
	r := chi.NewRouter()
	r.Route("/v1/{account}", func(r chi.Router) {
		r.Use(s.tokenChecker)
		r.Get("/", s.handleCDNList)
		r.Put("/{container}", s.handleCDNPublish)
		r.Post("/{container}", s.handleCDNPublish)
		r.Head("/{container}", s.handleCDNHead)
		r.Delete("/{container}", s.handleCDNDelete)
	})
	return r
}

// failureInjector records each request and, while armed, hijacks the
// connection and closes it without writing a response.
func (s *Service) failureInjector(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.m.Lock()
		s.operations = append(s.operations, r.Method+" "+r.URL.Path)
		drop := s.dropNext > 0
		if drop {
			s.dropNext--
		}
		s.m.Unlock()

		if drop {
			s.log.Debug("dropping connection by request")
			hj, ok := w.(http.Hijacker)
			if !ok {
				panic("response writer does not support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err == nil {
				conn.Close()
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) tokenChecker(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.m.Lock()
		valid := !s.rejectTokens && s.token != "" && r.Header.Get("X-Auth-Token") == s.token
		s.m.Unlock()
		if !valid {
			render.Render(w, r, &errResponse{
				HTTPStatusCode: 401,
				ErrorMessage:   "invalid or expired session token",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Service) handleAuth(w http.ResponseWriter, r *http.Request) {
	s.m.Lock()
	s.authCalls++
	checkCreds := s.opts.Username != "" || s.opts.APIKey != ""
	badCreds := checkCreds &&
		(r.Header.Get("X-Storage-User") != s.opts.Username ||
			r.Header.Get("X-Storage-Pass") != s.opts.APIKey)
	if !badCreds {
		s.token = newToken()
	}
	token := s.token
	s.m.Unlock()

	if badCreds {
		render.Render(w, r, &errResponse{
			HTTPStatusCode: 401,
			ErrorMessage:   "bad credentials",
		})
		return
	}

	w.Header().Set("X-Storage-Url", fmt.Sprintf("http://%s/v1/%s", s.Addr, s.opts.Account))
	if !s.opts.DisableCDN {
		w.Header().Set("X-CDN-Management-Url", fmt.Sprintf("http://%s/v1/%s", s.CDNAddr, s.opts.Account))
	}
	w.Header().Set("X-Storage-Token", token)
	w.Header().Set("X-Auth-Token", token)
	w.WriteHeader(204)
}

func (s *Service) handleAccountHead(w http.ResponseWriter, r *http.Request) {
	s.m.Lock()
	count := len(s.containers)
	var bytesUsed int64
	for _, c := range s.containers {
		for _, o := range c.objects {
			bytesUsed += int64(len(o.data))
		}
	}
	s.m.Unlock()

	w.Header().Set("X-Account-Container-Count", strconv.Itoa(count))
	w.Header().Set("X-Account-Bytes-Used", strconv.FormatInt(bytesUsed, 10))
	w.WriteHeader(204)
}

func (s *Service) handleAccountList(w http.ResponseWriter, r *http.Request) {
	s.m.Lock()
	names := make([]string, 0, len(s.containers))
	for name := range s.containers {
		names = append(names, name)
	}
	s.m.Unlock()
	sort.Strings(names)

	if r.URL.Query().Get("format") == "json" {
		type record struct {
			Name  string `json:"name"`
			Count int64  `json:"count"`
			Bytes int64  `json:"bytes"`
		}
		records := make([]record, 0, len(names))
		s.m.Lock()
		for _, name := range names {
			cont := s.containers[name]
			if cont == nil {
				continue
			}
			rec := record{Name: name, Count: int64(len(cont.objects))}
			for _, o := range cont.objects {
				rec.Bytes += int64(len(o.data))
			}
			records = append(records, rec)
		}
		s.m.Unlock()
		body, _ := json.Marshal(records)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write(body)
		return
	}
	writeLines(w, names)
}

func (s *Service) handleContainerPut(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "container")
	s.m.Lock()
	_, exists := s.containers[name]
	if !exists {
		s.containers[name] = &storedContainer{objects: make(map[string]*storedObject)}
	}
	s.m.Unlock()

	if exists {
		w.WriteHeader(202)
	} else {
		w.WriteHeader(201)
	}
}

func (s *Service) handleContainerDelete(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "container")
	s.m.Lock()
	cont, exists := s.containers[name]
	if exists && len(cont.objects) > 0 {
		s.m.Unlock()
		render.Render(w, r, &errResponse{HTTPStatusCode: 409, ErrorMessage: "container not empty"})
		return
	}
	delete(s.containers, name)
	s.m.Unlock()

	if !exists {
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "no such container"})
		return
	}
	w.WriteHeader(204)
}

func (s *Service) handleContainerHead(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "container")
	s.m.Lock()
	cont, exists := s.containers[name]
	var count int
	var bytesUsed int64
	if exists {
		count = len(cont.objects)
		for _, o := range cont.objects {
			bytesUsed += int64(len(o.data))
		}
	}
	s.m.Unlock()

	if !exists {
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "no such container"})
		return
	}
	w.Header().Set("X-Container-Object-Count", strconv.Itoa(count))
	w.Header().Set("X-Container-Bytes-Used", strconv.FormatInt(bytesUsed, 10))
	w.WriteHeader(204)
}

func (s *Service) handleContainerList(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "container")
	q := r.URL.Query()

	s.m.Lock()
	cont, exists := s.containers[name]
	if !exists {
		s.m.Unlock()
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "no such container"})
		return
	}
	names := make([]string, 0, len(cont.objects))
	for objName := range cont.objects {
		names = append(names, objName)
	}
	s.m.Unlock()
	sort.Strings(names)

	if prefix := q.Get("prefix"); prefix != "" {
		filtered := names[:0]
		for _, n := range names {
			if strings.HasPrefix(n, prefix) {
				filtered = append(filtered, n)
			}
		}
		names = filtered
	}
	if path := q.Get("path"); path != "" {
		dir := strings.TrimSuffix(path, "/") + "/"
		filtered := names[:0]
		for _, n := range names {
			if strings.HasPrefix(n, dir) && !strings.Contains(strings.TrimPrefix(n, dir), "/") {
				filtered = append(filtered, n)
			}
		}
		names = filtered
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		if offset > len(names) {
			offset = len(names)
		}
		names = names[offset:]
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit >= 0 && limit < len(names) {
		names = names[:limit]
	}

	if q.Get("format") == "json" {
		type record struct {
			Name         string `json:"name"`
			Hash         string `json:"hash"`
			Bytes        int64  `json:"bytes"`
			ContentType  string `json:"content_type"`
			LastModified string `json:"last_modified"`
		}
		records := make([]record, 0, len(names))
		s.m.Lock()
		for _, n := range names {
			o := cont.objects[n]
			if o == nil {
				continue
			}
			records = append(records, record{
				Name:         n,
				Hash:         o.etag,
				Bytes:        int64(len(o.data)),
				ContentType:  o.contentType,
				LastModified: o.lastModified.UTC().Format("2006-01-02T15:04:05"),
			})
		}
		s.m.Unlock()
		body, _ := json.Marshal(records)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(200)
		w.Write(body)
		return
	}
	writeLines(w, names)
}

func (s *Service) handleObjectPut(w http.ResponseWriter, r *http.Request) {
	contName := pathParam(r, "container")
	objName := pathParam(r, "*")

	body, err := ioutil.ReadAll(r.Body)
	if err != nil {
		render.Render(w, r, &errResponse{HTTPStatusCode: 500, ErrorMessage: err.Error()})
		return
	}

	sum := md5.Sum(body)
	etag := hex.EncodeToString(sum[:])
	if want := r.Header.Get("Etag"); want != "" && !strings.EqualFold(want, etag) {
		render.Render(w, r, &errResponse{HTTPStatusCode: 422, ErrorMessage: "checksum mismatch"})
		return
	}

	obj := &storedObject{
		data:         body,
		contentType:  r.Header.Get("Content-Type"),
		etag:         etag,
		lastModified: time.Now(),
		metadata:     metaFromHeader(r.Header),
	}

	s.m.Lock()
	cont, exists := s.containers[contName]
	if exists {
		cont.objects[objName] = obj
	}
	s.m.Unlock()

	if !exists {
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "no such container"})
		return
	}
	w.Header().Set("ETag", etag)
	w.WriteHeader(201)
}

func (s *Service) lookupObject(r *http.Request) (*storedObject, bool) {
	s.m.Lock()
	defer s.m.Unlock()
	cont, ok := s.containers[pathParam(r, "container")]
	if !ok {
		return nil, false
	}
	obj, ok := cont.objects[pathParam(r, "*")]
	return obj, ok
}

func (s *Service) writeObjectHeaders(w http.ResponseWriter, obj *storedObject) {
	w.Header().Set("ETag", obj.etag)
	w.Header().Set("Content-Type", obj.contentType)
	w.Header().Set("Last-Modified", obj.lastModified.UTC().Format(http.TimeFormat))
	for name, value := range obj.metadata {
		w.Header().Set("X-Object-Meta-"+name, value)
	}
}

func (s *Service) handleObjectGet(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.lookupObject(r)
	if !ok {
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "no such object"})
		return
	}

	data := obj.data
	status := 200
	if rng := r.Header.Get("Range"); strings.HasPrefix(rng, "bytes=") {
		var from, to int
		if _, err := fmt.Sscanf(rng, "bytes=%d-%d", &from, &to); err == nil {
			if to >= len(data) {
				to = len(data) - 1
			}
			if from <= to && from >= 0 {
				data = data[from : to+1]
				status = 206
			}
		}
	}

	s.writeObjectHeaders(w, obj)
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(status)
	w.Write(data)
}

func (s *Service) handleObjectHead(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.lookupObject(r)
	if !ok {
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "no such object"})
		return
	}
	s.writeObjectHeaders(w, obj)
	w.Header().Set("Content-Length", strconv.Itoa(len(obj.data)))
	w.WriteHeader(200)
}

func (s *Service) handleObjectPost(w http.ResponseWriter, r *http.Request) {
	obj, ok := s.lookupObject(r)
	if !ok {
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "no such object"})
		return
	}
	s.m.Lock()
	obj.metadata = metaFromHeader(r.Header)
	if ct := r.Header.Get("Content-Type"); ct != "" {
		obj.contentType = ct
	}
	s.m.Unlock()
	w.WriteHeader(202)
}

func (s *Service) handleObjectDelete(w http.ResponseWriter, r *http.Request) {
	s.m.Lock()
	cont, ok := s.containers[pathParam(r, "container")]
	name := pathParam(r, "*")
	if ok {
		_, ok = cont.objects[name]
		delete(cont.objects, name)
	}
	s.m.Unlock()

	if !ok {
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "no such object"})
		return
	}
	w.WriteHeader(204)
}

func (s *Service) handleCDNList(w http.ResponseWriter, r *http.Request) {
	s.m.Lock()
	var names []string
	for name, cont := range s.containers {
		if cont.cdnEnabled {
			names = append(names, name)
		}
	}
	s.m.Unlock()
	sort.Strings(names)
	writeLines(w, names)
}

func (s *Service) handleCDNPublish(w http.ResponseWriter, r *http.Request) {
	name := pathParam(r, "container")
	ttl := 86400
	if v, err := strconv.Atoi(r.Header.Get("X-TTL")); err == nil && v > 0 {
		ttl = v
	}
	enabled := !strings.EqualFold(r.Header.Get("X-CDN-Enabled"), "false")

	s.m.Lock()
	cont, exists := s.containers[name]
	var uri string
	if exists {
		cont.cdnEnabled = enabled
		cont.cdnTTL = ttl
		if enabled && cont.cdnURI == "" {
			cont.cdnURI = "http://cdn.swiftlike.test/" + url.PathEscape(name)
		}
		uri = cont.cdnURI
	}
	s.m.Unlock()

	if !exists {
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "no such container"})
		return
	}
	w.Header().Set("X-CDN-URI", uri)
	w.Header().Set("X-TTL", strconv.Itoa(ttl))
	if r.Method == "PUT" {
		w.WriteHeader(201)
	} else {
		w.WriteHeader(202)
	}
}

func (s *Service) handleCDNHead(w http.ResponseWriter, r *http.Request) {
	s.m.Lock()
	cont, exists := s.containers[pathParam(r, "container")]
	enabled := exists && cont.cdnEnabled
	var uri string
	var ttl int
	if enabled {
		uri = cont.cdnURI
		ttl = cont.cdnTTL
	}
	s.m.Unlock()

	if !enabled {
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "not published"})
		return
	}
	w.Header().Set("X-CDN-URI", uri)
	w.Header().Set("X-TTL", strconv.Itoa(ttl))
	w.WriteHeader(204)
}

func (s *Service) handleCDNDelete(w http.ResponseWriter, r *http.Request) {
	s.m.Lock()
	cont, exists := s.containers[pathParam(r, "container")]
	if exists {
		cont.cdnEnabled = false
		cont.cdnURI = ""
	}
	s.m.Unlock()

	if !exists {
		render.Render(w, r, &errResponse{HTTPStatusCode: 404, ErrorMessage: "no such container"})
		return
	}
	w.WriteHeader(204)
}

func metaFromHeader(h http.Header) map[string]string {
	meta := make(map[string]string)
	for key, values := range h {
		if strings.HasPrefix(key, "X-Object-Meta-") {
			meta[strings.TrimPrefix(key, "X-Object-Meta-")] = values[0]
		}
	}
	return meta
}

// pathParam returns a chi URL parameter with any residual percent-encoding
// removed. Object names may contain slashes and reach us via the wildcard.
func pathParam(r *http.Request, name string) string {
	v := chi.URLParam(r, name)
	if decoded, err := url.PathUnescape(v); err == nil {
		return decoded
	}
	return v
}

func writeLines(w http.ResponseWriter, names []string) {
	body := ""
	for _, name := range names {
		body += name + "\n"
	}
	w.Header().Set("Content-Type", "text/plain")
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(200)
	w.Write([]byte(body))
}

func newToken() string {
	buf := make([]byte, 16)
	rand.Read(buf)
	return hex.EncodeToString(buf)
}

type errResponse struct {
	HTTPStatusCode int    `json:"-"`
	ErrorMessage   string `json:"errorMessage"`
}

func (e *errResponse) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.HTTPStatusCode)
	return nil
}
