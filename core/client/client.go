/*Package client provides easy access to the REST API of a model backend.

The client can be used against a router in the same process, which is what the
tests do, or against a remote service with NewWithURL.

  c := client.NewWithRouter(router).WithPrefix("/api")
  var created struct{ UUID string `json:"uuid"` }
  status, err := c.Model("mixed").Create(map[string]interface{}{"myStringProp": "a"}, &created)

*/
package client

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
	"github.com/relabs-tech/modelrest/core/access"
)

// Client provides easy access to the REST API.
type Client struct {
	router         *mux.Router
	httpClient     *http.Client
	url            string
	prefix         string
	token          string
	defaultHeaders map[string]string
	ctx            context.Context
}

// NewWithRouter creates a client to make calls directly to a router without
// going over the network
func NewWithRouter(router *mux.Router) Client {
	return Client{
		router: router,
	}
}

// NewWithURL creates a client to make calls to a remote service
func NewWithURL(url string) Client {
	return Client{
		httpClient: &http.Client{},
		url:        strings.TrimSuffix(url, "/"),
	}
}

// WithPrefix returns a new client which prepends prefix to every model path
func (c Client) WithPrefix(prefix string) Client {
	c.prefix = "/" + strings.Trim(prefix, "/")
	if c.prefix == "/" {
		c.prefix = ""
	}
	return c
}

// WithHeader returns a new client with an additional default header
func (c Client) WithHeader(key string, value string) Client {
	headers := make(map[string]string, len(c.defaultHeaders)+1)
	for k, v := range c.defaultHeaders {
		headers[k] = v
	}
	headers[key] = value
	c.defaultHeaders = headers
	return c
}

// WithToken returns a new client which passes token as bearer token
func (c Client) WithToken(token string) Client {
	c.token = token
	return c
}

// WithAuthorization returns a new client with specific authorization. Only
// effective for clients which call a router directly.
func (c Client) WithAuthorization(auth *access.Authorization) Client {
	c.ctx = auth.ContextWithAuthorization(c.Context())
	return c
}

// WithRole returns a new client with an authorization for the requested role
func (c Client) WithRole(role string) Client {
	return c.WithAuthorization(&access.Authorization{Roles: []string{role}})
}

// WithContext returns a new client with specified context
func (c Client) WithContext(ctx context.Context) Client {
	c.ctx = ctx
	return c
}

// Context returns the client's context
func (c Client) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// Response is a complete response of the API
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Error returns the error message of an error response, if any
func (r *Response) Error() string {
	var e struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(r.Body, &e) != nil {
		return ""
	}
	return e.Error
}

// Decode decodes the body into result
func (r *Response) Decode(result interface{}) error {
	if raw, ok := result.(*[]byte); ok {
		*raw = r.Body
		return nil
	}
	return json.Unmarshal(r.Body, result)
}

// Do sends a request and returns the complete response. Body is marshalled to
// JSON unless it is nil or []byte. The error is only set if the request could
// not be made.
func (c Client) Do(method, path string, header map[string]string, body interface{}) (*Response, error) {
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case []byte:
		reader = bytes.NewReader(b)
	default:
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reader = bytes.NewReader(data)
	}

	r, err := http.NewRequestWithContext(c.Context(), method, c.url+path, reader)
	if err != nil {
		return nil, err
	}
	if reader != nil {
		r.Header.Set("Content-Type", "application/json")
	}
	for key, value := range c.defaultHeaders {
		r.Header.Add(key, value)
	}
	for key, value := range header {
		r.Header.Set(key, value)
	}
	if c.token != "" {
		r.Header.Set("Authorization", "Bearer "+c.token)
	}

	if c.router != nil {
		rec := httptest.NewRecorder()
		c.router.ServeHTTP(rec, r)
		res := rec.Result()
		return &Response{Status: res.StatusCode, Header: res.Header, Body: rec.Body.Bytes()}, nil
	}

	res, err := c.httpClient.Do(r)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	return &Response{Status: res.StatusCode, Header: res.Header, Body: resBody}, nil
}

// raw sends the request and decodes the response into result. It returns an error
// unless the status is one of the expected ones.
func (c Client) raw(method, path string, header map[string]string, body, result interface{}, expected ...int) (int, http.Header, error) {
	res, err := c.Do(method, path, header, body)
	if err != nil {
		return http.StatusInternalServerError, nil, err
	}
	ok := false
	for _, status := range expected {
		ok = ok || res.Status == status
	}
	if !ok {
		return res.Status, res.Header, fmt.Errorf("handler returned wrong status code: got %v want %v. Error: %s",
			res.Status, expected, strings.TrimSpace(string(res.Body)))
	}
	if len(res.Body) > 0 && result != nil {
		err = res.Decode(result)
	}
	return res.Status, res.Header, err
}

// RawGet calls the GET method on a path and decodes the response into result.
// A status other than 200 is an error.
func (c Client) RawGet(path string, result interface{}) (int, error) {
	status, _, err := c.raw(http.MethodGet, path, nil, nil, result, http.StatusOK)
	return status, err
}

// RawGetWithHeader calls the GET method with additional headers and returns the response header
func (c Client) RawGetWithHeader(path string, header map[string]string, result interface{}) (int, http.Header, error) {
	return c.raw(http.MethodGet, path, header, nil, result, http.StatusOK)
}

// RawHead calls the HEAD method on a path. A status other than 200 is an error.
func (c Client) RawHead(path string) (int, error) {
	status, _, err := c.raw(http.MethodHead, path, nil, nil, nil, http.StatusOK)
	return status, err
}

// RawPost calls the POST method on a path. Status 200 and 201 are accepted.
func (c Client) RawPost(path string, body interface{}, result interface{}) (int, error) {
	status, _, err := c.raw(http.MethodPost, path, nil, body, result, http.StatusOK, http.StatusCreated)
	return status, err
}

// RawPut calls the PUT method on a path. Status 200 and 201 are accepted.
func (c Client) RawPut(path string, body interface{}, result interface{}) (int, error) {
	status, _, err := c.raw(http.MethodPut, path, nil, body, result, http.StatusOK, http.StatusCreated)
	return status, err
}

// RawPatch calls the PATCH method on a path. A status other than 200 is an error.
func (c Client) RawPatch(path string, body interface{}, result interface{}) (int, error) {
	status, _, err := c.raw(http.MethodPatch, path, nil, body, result, http.StatusOK)
	return status, err
}

// RawDelete calls the DELETE method on a path. A status other than 200 is an error.
func (c Client) RawDelete(path string, result interface{}) (int, error) {
	status, _, err := c.raw(http.MethodDelete, path, nil, nil, result, http.StatusOK)
	return status, err
}

// Model is a helper for the routes of one model
type Model struct {
	client     Client
	route      string
	parameters url.Values
}

// Model returns a helper for the model with the given route name
func (c Client) Model(route string) Model {
	return Model{client: c, route: route}
}

// WithParameter returns a new model helper with an additional query parameter
func (m Model) WithParameter(key, value string) Model {
	parameters := url.Values{}
	for k, v := range m.parameters {
		parameters[k] = append([]string{}, v...)
	}
	parameters.Add(key, value)
	m.parameters = parameters
	return m
}

// WithQuery is a shortcut for WithParameter("q", q)
func (m Model) WithQuery(q string) Model {
	return m.WithParameter("q", q)
}

// Path returns the path of the model's collection, including parameters
func (m Model) Path() string {
	return m.path("")
}

// SchemaPath returns the path of the model's schema
func (m Model) SchemaPath() string {
	return m.client.prefix + "/" + m.route + "/.schema"
}

// ItemPath returns the path of a single record, including parameters
func (m Model) ItemPath(id string) string {
	return m.path("/" + id)
}

func (m Model) path(suffix string) string {
	p := m.client.prefix + "/" + m.route + suffix
	if len(m.parameters) > 0 {
		p += "?" + m.parameters.Encode()
	}
	return p
}

// Create creates a new record
func (m Model) Create(body interface{}, result interface{}) (int, error) {
	return m.client.RawPost(m.Path(), body, result)
}

// List lists records. With WithQuery, it searches.
func (m Model) List(result interface{}) (int, error) {
	return m.client.RawGet(m.Path(), result)
}

// Read reads a single record
func (m Model) Read(id string, result interface{}) (int, error) {
	return m.client.RawGet(m.ItemPath(id), result)
}

// Exists checks whether a record exists
func (m Model) Exists(id string) (bool, error) {
	res, err := m.client.Do(http.MethodHead, m.ItemPath(id), nil, nil)
	if err != nil {
		return false, err
	}
	switch res.Status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	}
	return false, fmt.Errorf("unexpected status %d", res.Status)
}

// Patch updates some properties of a record
func (m Model) Patch(id string, body interface{}, result interface{}) (int, error) {
	return m.client.RawPatch(m.ItemPath(id), body, result)
}

// Replace replaces all properties of a record, creating it if necessary
func (m Model) Replace(id string, body interface{}, result interface{}) (int, error) {
	return m.client.RawPut(m.ItemPath(id), body, result)
}

// Delete deletes a record
func (m Model) Delete(id string) (int, error) {
	return m.client.RawDelete(m.ItemPath(id), nil)
}

// Schema reads the public schema of the model
func (m Model) Schema(result interface{}) (int, error) {
	return m.client.RawGet(m.SchemaPath(), result)
}
