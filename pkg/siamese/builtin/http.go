package builtin

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/HsiangNianian/siamese-prototype/internal/webtext"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/term"
	"github.com/HsiangNianian/siamese-prototype/pkg/siamese/unify"
)

// webClient backs the HTTP built-ins. Any network, status or parse
// failure yields nothing; the goal simply fails.
type webClient struct {
	client *http.Client
}

func newWebClient(c *http.Client) *webClient {
	if c == nil {
		c = &http.Client{Timeout: 15 * time.Second}
	}
	return &webClient{client: c}
}

// getJSON fetches the URL in the first argument, parses the body as
// JSON and unifies the second argument with the decoded value.
func (w *webClient) getJSON(ctx context.Context, call *Call) error {
	if len(call.Goal.Args) != 2 {
		return nil
	}
	url, ok := term.Text(call.Goal.Args[0])
	if !ok {
		return nil
	}
	resp, err := w.get(ctx, url)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil
	}
	value, err := term.FromJSON(raw)
	if err != nil {
		return nil
	}
	if b, ok := unify.Unify(call.Goal.Args[1], value, call.Bindings); ok {
		call.Yield(b)
	}
	return nil
}

// getText fetches the URL in the first argument and unifies the second
// argument with the page's visible text.
func (w *webClient) getText(ctx context.Context, call *Call) error {
	if len(call.Goal.Args) != 2 {
		return nil
	}
	url, ok := term.Text(call.Goal.Args[0])
	if !ok {
		return nil
	}
	resp, err := w.get(ctx, url)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil
	}

	text, err := webtext.Extract(resp.Body)
	if err != nil {
		return nil
	}
	if b, ok := unify.Unify(call.Goal.Args[1], term.Str(text), call.Bindings); ok {
		call.Yield(b)
	}
	return nil
}

func (w *webClient) get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	return w.client.Do(req)
}
