package jobs

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	rderr "rdesk/internal/errors"
	"rdesk/internal/retry"
	"rdesk/internal/status"
)

// Response is the probe result of a successful StartHTTPRequest, stored
// as JSON.
type Response struct {
	StatusCode int               `json:"status_code"`
	Headers    map[string]string `json:"headers"`
	Body       string            `json:"body"`
}

// StartHTTPRequest marks url as pending in the probe cache and performs
// the request in the background.  header is a JSON object of header
// names to values, or empty.  body may be nil.  The cache ends up
// holding the JSON encoded Response or the failure text.
func (r *Runner) StartHTTPRequest(url, method string, body *string, header string) {
	r.probes.Begin(url)
	r.metrics.ProbeStarted()

	r.spawn(func() {
		text, err := r.httpRequest(url, method, body, header)
		if err != nil {
			r.metrics.JobFailed()
			r.logger.Warn("http %s %s: %v", method, url, err)
			text = err.Error()
		}
		r.probes.Set(url, text)
	})
}

// StartHTTPPost posts body to url in the background.  The job slot
// holds status.Pending until the request finishes, then the response
// body or the failure text.  header is a single "Name: value" line, or
// empty.
func (r *Runner) StartHTTPPost(url, body, header string) {
	r.job.Set(status.Pending)
	r.metrics.JobStarted()

	r.spawn(func() {
		text, err := r.httpPost(url, body, header)
		if err != nil {
			r.metrics.JobFailed()
			r.logger.Warn("http POST %s: %v", url, err)
			text = err.Error()
		}
		r.job.Set(text)
	})
}

func (r *Runner) httpRequest(url, method string, body *string, header string) (string, error) {
	headers, err := parseHeaderObject(header)
	if err != nil {
		return "", err
	}
	if method == "" {
		method = http.MethodGet
	}
	var rd io.Reader
	if body != nil {
		rd = strings.NewReader(*body)
	}
	req, err := http.NewRequestWithContext(r.ctx, strings.ToUpper(method), url, rd)
	if err != nil {
		return "", err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, data, err := r.do(req)
	if err != nil {
		return "", err
	}
	out := Response{
		StatusCode: resp.StatusCode,
		Headers:    make(map[string]string, len(resp.Header)),
		Body:       string(data),
	}
	for k := range resp.Header {
		out.Headers[strings.ToLower(k)] = resp.Header.Get(k)
	}
	enc, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode response: %w", err)
	}
	return string(enc), nil
}

func (r *Runner) httpPost(url, body, header string) (string, error) {
	req, err := http.NewRequestWithContext(r.ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	if name, value, ok := parseHeaderLine(header); ok {
		req.Header.Set(name, value)
	}
	_, data, err := r.do(req)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// do sends req through the breaker for its host and reads the body.
func (r *Runner) do(req *http.Request) (*http.Response, []byte, error) {
	var (
		resp *http.Response
		data []byte
	)
	err := r.breakers.Execute(retry.HostKey(req.URL.String()), func() error {
		var err error
		resp, err = r.client.Do(req)
		if err != nil {
			return rderr.Wrap("request", req.URL.Redacted(), err)
		}
		defer resp.Body.Close()
		data, err = io.ReadAll(io.LimitReader(resp.Body, MaxBodySize))
		if err != nil {
			return fmt.Errorf("read response: %w", err)
		}
		return nil
	})
	return resp, data, err
}

func parseHeaderObject(header string) (map[string]string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return nil, nil
	}
	var h map[string]string
	if err := json.Unmarshal([]byte(header), &h); err != nil {
		return nil, fmt.Errorf("invalid header object: %w", err)
	}
	return h, nil
}

func parseHeaderLine(header string) (name, value string, ok bool) {
	name, value, ok = strings.Cut(header, ":")
	if !ok {
		return "", "", false
	}
	name = strings.TrimSpace(name)
	return name, strings.TrimSpace(value), name != ""
}
