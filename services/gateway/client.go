package gatewaysvc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/trezcool/masomo-console/core"
	"github.com/trezcool/masomo-console/core/resource"
)

const maxBodySize = 10 << 20

var (
	ErrNoBaseURL = errors.New("gateway base URL is required")

	errNoCollection = errors.New("response holds no collection")
)

type Options struct {
	BaseURL    string
	Token      string
	Timeout    time.Duration
	Transport  http.RoundTripper     // defaults to http.DefaultTransport
	Registerer prometheus.Registerer // metrics are not registered when nil
	Logger     core.Logger
}

// Client talks to the platform's REST gateway.
type Client struct {
	base    *url.URL
	http    *http.Client
	metrics *metrics
	log     core.Logger
}

var _ resource.Gateway = (*Client)(nil)

func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		return nil, ErrNoBaseURL
	}
	base, err := url.Parse(strings.TrimRight(opts.BaseURL, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing gateway base URL")
	}
	m, err := newMetrics(opts.Registerer)
	if err != nil {
		return nil, err
	}
	transport := opts.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &Client{
		base: base,
		http: &http.Client{
			Timeout:   opts.Timeout,
			Transport: &bearerTransport{token: opts.Token, base: transport},
		},
		metrics: m,
		log:     opts.Logger,
	}, nil
}

// NewClientFromConfig builds a Client from the gateway section of conf.
func NewClientFromConfig(conf *core.Config, reg prometheus.Registerer, logger core.Logger) (*Client, error) {
	return NewClient(Options{
		BaseURL:    conf.Gateway.BaseURL,
		Token:      conf.Gateway.Token,
		Timeout:    conf.Gateway.Timeout,
		Registerer: reg,
		Logger:     logger,
	})
}

func (c *Client) List(ctx context.Context, def resource.Definition) (coll resource.Collection, err error) {
	defer func(start time.Time) { c.metrics.observe(def.Name, "list", start, err) }(time.Now())
	env, err := c.do(ctx, http.MethodGet, def.Endpoints.ListPath, nil, nil)
	if err != nil {
		return nil, err
	}
	return collection(env, def)
}

func (c *Client) Search(ctx context.Context, def resource.Definition, params map[string]string) (coll resource.Collection, err error) {
	defer func(start time.Time) { c.metrics.observe(def.Name, "search", start, err) }(time.Now())
	q := make(url.Values, len(params))
	for k, v := range params {
		q.Set(k, v)
	}
	env, err := c.do(ctx, http.MethodGet, def.Endpoints.SearchPath, q, nil)
	if err != nil {
		return nil, err
	}
	return collection(env, def)
}

func (c *Client) Create(ctx context.Context, def resource.Definition, fields resource.Entity) (msg string, err error) {
	defer func(start time.Time) { c.metrics.observe(def.Name, "create", start, err) }(time.Now())
	env, err := c.do(ctx, http.MethodPost, def.Endpoints.ItemPath, nil, fields)
	if err != nil {
		return "", err
	}
	return message(env), nil
}

func (c *Client) Update(ctx context.Context, def resource.Definition, id string, patch resource.Entity) (msg string, err error) {
	defer func(start time.Time) { c.metrics.observe(def.Name, "update", start, err) }(time.Now())
	path, body := itemRequest(def, def.Endpoints.UpdateID, id, patch)
	env, err := c.do(ctx, http.MethodPut, path, nil, body)
	if err != nil {
		return "", err
	}
	return message(env), nil
}

func (c *Client) Delete(ctx context.Context, def resource.Definition, id string) (msg string, err error) {
	defer func(start time.Time) { c.metrics.observe(def.Name, "delete", start, err) }(time.Now())
	path, body := itemRequest(def, def.Endpoints.DeleteID, id, nil)
	env, err := c.do(ctx, http.MethodDelete, path, nil, body)
	if err != nil {
		return "", err
	}
	return message(env), nil
}

// itemRequest places id in the path or in the body, as the resource expects.
// The returned path is escaped, so an id never spans more than one segment.
func itemRequest(def resource.Definition, loc resource.IDLocation, id string, fields resource.Entity) (string, resource.Entity) {
	if loc == resource.IDInPath {
		return def.Endpoints.ItemPath + "/" + url.PathEscape(id), fields
	}
	body := fields.Clone()
	if body == nil {
		body = resource.Entity{}
	}
	body[def.IDField] = id
	return def.Endpoints.ItemPath, body
}

// do sends one request and returns the decoded envelope.
// path must already be escaped. Failures are classified into *core.GatewayError values.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body resource.Entity) (map[string]json.RawMessage, error) {
	u := *c.base
	u.RawPath = c.base.EscapedPath() + path
	p, err := url.PathUnescape(u.RawPath)
	if err != nil {
		return nil, errors.Wrapf(err, "bad request path %q", path)
	}
	u.Path = p
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, errors.Wrap(err, "encoding request body")
		}
		reqBody = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, errors.Wrap(err, "building request")
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logError(method, path, err)
		return nil, core.NewGatewayError(core.KindNetwork, 0, "", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		c.logError(method, path, err)
		return nil, core.NewGatewayError(core.KindNetwork, resp.StatusCode, "", errors.Wrap(err, "reading response"))
	}
	env, decodeErr := envelope(data)
	msg := message(env)

	switch {
	case resp.StatusCode == http.StatusNotFound:
		err = core.NewGatewayError(core.KindNotFound, resp.StatusCode, msg, nil)
	case resp.StatusCode >= http.StatusInternalServerError:
		err = core.NewGatewayError(core.KindServer, resp.StatusCode, msg, nil)
	case decodeErr != nil:
		err = core.NewGatewayError(core.KindServer, resp.StatusCode, "", decodeErr)
	case resp.StatusCode >= http.StatusBadRequest, !succeeded(env):
		if msg == "" {
			msg = fmt.Sprintf("request rejected (%d %s)", resp.StatusCode, http.StatusText(resp.StatusCode))
		}
		err = core.NewGatewayError(core.KindValidation, resp.StatusCode, msg, nil)
	}
	if err != nil {
		c.logError(method, path, err)
		return nil, err
	}
	return env, nil
}

func (c *Client) logError(method, path string, err error) {
	if c.log == nil {
		return
	}
	c.log.Warn(fmt.Sprintf("gateway %s %s failed", method, path), err, map[string]interface{}{"kind": core.KindOf(err).String()})
}

func envelope(data []byte) (map[string]json.RawMessage, error) {
	env := make(map[string]json.RawMessage)
	if len(bytes.TrimSpace(data)) == 0 {
		return env, nil
	}
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "decoding response envelope")
	}
	return env, nil
}

// succeeded reads the success flag; an envelope without one counts as a success.
func succeeded(env map[string]json.RawMessage) bool {
	raw, ok := env["success"]
	if !ok {
		return true
	}
	var success bool
	if err := json.Unmarshal(raw, &success); err != nil {
		return false
	}
	return success
}

func message(env map[string]json.RawMessage) string {
	raw, ok := env["message"]
	if !ok {
		return ""
	}
	var msg string
	if err := json.Unmarshal(raw, &msg); err != nil {
		return ""
	}
	return msg
}

// collection normalizes list and search envelopes: the items live under the
// resource's collection key or under "data".
func collection(env map[string]json.RawMessage, def resource.Definition) (resource.Collection, error) {
	raw, ok := env[def.CollectionKey]
	if !ok {
		if raw, ok = env["data"]; !ok {
			return nil, core.NewGatewayError(core.KindServer, http.StatusOK, "", errors.Wrap(errNoCollection, def.Name))
		}
	}

	coll := make(resource.Collection, 0)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&coll); err != nil {
		return nil, core.NewGatewayError(core.KindServer, http.StatusOK, "", errors.Wrap(err, "decoding "+def.Name+" collection"))
	}
	if coll == nil {
		coll = resource.Collection{}
	}
	return coll, nil
}
