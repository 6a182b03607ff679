package transports

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rzbill/calclog/internal/logstore"
)

// HTTPTransport implements LogsTransport against the JSON API.
type HTTPTransport struct {
	base   string
	client *http.Client
}

// NewHTTPTransport returns a transport rooted at base (e.g. http://127.0.0.1:5000).
// A nil client uses http.DefaultClient.
func NewHTTPTransport(base string, client *http.Client) *HTTPTransport {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPTransport{base: strings.TrimRight(base, "/"), client: client}
}

func (t *HTTPTransport) Submit(ctx context.Context, expression string) (SubmitResult, error) {
	body, _ := json.Marshal(map[string]string{"expression": expression})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.base+"/api/logs", bytes.NewReader(body))
	if err != nil {
		return SubmitResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := t.client.Do(req)
	if err != nil {
		return SubmitResult{}, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return SubmitResult{}, err
	}
	var out SubmitResult
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return SubmitResult{}, err
	}
	return out, nil
}

func (t *HTTPTransport) List(ctx context.Context, sinceID uint64) ([]logstore.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url("/api/logs", sinceID), nil)
	if err != nil {
		return nil, err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	var recs []logstore.Record
	if err := json.NewDecoder(resp.Body).Decode(&recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (t *HTTPTransport) Poll(ctx context.Context, sinceID uint64, onRecord func(logstore.Record) error) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, t.url("/api/long-polling/logs", sinceID), nil)
	if err != nil {
		return err
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := checkStatus(resp); err != nil {
		return err
	}
	sc := bufio.NewScanner(resp.Body)
	for sc.Scan() {
		line := bytes.TrimSpace(sc.Bytes())
		if len(line) == 0 {
			continue
		}
		var rec logstore.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			return err
		}
		if err := onRecord(rec); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func (t *HTTPTransport) url(path string, sinceID uint64) string {
	if sinceID == 0 {
		return t.base + path
	}
	q := url.Values{"since_id": []string{strconv.FormatUint(sinceID, 10)}}
	return t.base + path + "?" + q.Encode()
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	var m struct {
		Message string `json:"message"`
	}
	_ = json.Unmarshal(b, &m)
	return &StatusError{Code: resp.StatusCode, Message: m.Message}
}

func itoa(n int) string { return strconv.Itoa(n) }
