package request

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
)

// StatusError is returned for any non-2xx answer, so callers can tell a 404 from a 409.
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "status is " + e.Status
}

type Request struct {
	client  *http.Client
	url     string
	method  string
	login   string
	passw   string
	body    io.Reader
	headers map[string]string
	args    map[string]string
	logger  *slog.Logger
	err     error
}

func New(c *http.Client, logger *slog.Logger) *Request {
	return &Request{client: c, method: http.MethodGet, logger: logger}
}

func (r *Request) URL(url string) *Request {
	r.url = url

	return r
}

func (r *Request) Post() *Request {
	r.method = http.MethodPost

	return r
}

func (r *Request) Auth(login, passw string) *Request {
	r.login = login
	r.passw = passw

	return r
}

func (r *Request) Args(args map[string]string) *Request {
	r.args = args

	return r
}

// JSON encodes obj as the request body.
func (r *Request) JSON(obj any) *Request {
	dat, err := json.Marshal(obj)
	if err != nil {
		r.err = err
		return r
	}

	r.body = bytes.NewReader(dat)

	if r.headers == nil {
		r.headers = make(map[string]string)
	}

	r.headers["Content-Type"] = "application/json"

	return r
}

func (r *Request) DoRes(ctx context.Context) (*http.Response, error) {
	if r.err != nil {
		return nil, r.err
	}

	req, err := http.NewRequestWithContext(ctx, r.method, r.url, r.body)
	if err != nil {
		return nil, err
	}

	req.Header.Del("User-Agent")

	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	if r.login != "" {
		req.SetBasicAuth(r.login, r.passw)
	}

	if len(r.args) > 0 {
		q := req.URL.Query()

		for k, v := range r.args {
			q.Add(k, v)
		}

		req.URL.RawQuery = q.Encode()
	}

	res, err := r.client.Do(req)
	if err != nil {
		if r.logger != nil {
			r.logger.Info(fmt.Sprintf("%s %s - error %s", r.method, req.URL, err.Error()))
		}

		return nil, err
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		if r.logger != nil {
			r.logger.Warn(fmt.Sprintf("%s %s - %d", r.method, req.URL, res.StatusCode))
		}

		_, _ = io.Copy(io.Discard, res.Body)
		res.Body.Close()

		return nil, &StatusError{Code: res.StatusCode, Status: res.Status}
	}

	if r.logger != nil {
		r.logger.Debug(fmt.Sprintf("%s %s - %d", r.method, req.URL, res.StatusCode))
	}

	return res, nil
}

func (r *Request) Do(ctx context.Context) (io.ReadCloser, error) {
	res, err := r.DoRes(ctx)
	if err != nil {
		return nil, err
	}

	if res.Body == nil {
		return nil, fmt.Errorf("null body")
	}

	return res.Body, nil
}

// Exec performs the request and discards the response body.
func (r *Request) Exec(ctx context.Context) error {
	b, err := r.Do(ctx)
	if err != nil {
		return err
	}

	defer b.Close()

	_, err = io.Copy(io.Discard, b)

	return err
}

func (r *Request) GetJSON(ctx context.Context, obj any) error {
	b, err := r.Do(ctx)
	if err != nil {
		return err
	}

	defer b.Close()

	return json.NewDecoder(b).Decode(obj)
}
