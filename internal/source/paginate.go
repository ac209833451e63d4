package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// maxPages bounds a pagination chain that never reports the last page
const maxPages = 10000

// Page is a paginated response envelope
type Page[T any] struct {
	Data []T    `json:"data"`
	More bool   `json:"more"`
	Next string `json:"next"`
}

// Paginate GETs startURL and follows Next while More is set, returning the
// concatenated data. A body that is a bare JSON array is a single final
// page. Relative Next links resolve against the page they came from.
func Paginate[T any](ctx context.Context, client *http.Client, startURL string, progress Progress) ([]T, error) {
	if client == nil {
		client = http.DefaultClient
	}

	var (
		out   []T
		pages int
		next  = startURL
		seen  = make(map[string]bool)
	)
	for next != "" {
		if seen[next] {
			return nil, fmt.Errorf("pagination loop at %s", next)
		}
		if pages >= maxPages {
			return nil, fmt.Errorf("more than %d pages", maxPages)
		}
		seen[next] = true

		page, err := getPage[T](ctx, client, next)
		if err != nil {
			return nil, err
		}
		pages++
		out = append(out, page.Data...)
		if progress != nil {
			progress(pages, len(out))
		}

		if !page.More || page.Next == "" {
			break
		}
		if next, err = resolve(next, page.Next); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func getPage[T any](ctx context.Context, client *http.Client, pageURL string) (*Page[T], error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request %s: %w", pageURL, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request %s: unexpected status %s", pageURL, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", pageURL, err)
	}

	var page Page[T]
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '[' {
		err = json.Unmarshal(trimmed, &page.Data)
	} else {
		err = json.Unmarshal(body, &page)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", pageURL, err)
	}
	return &page, nil
}

func resolve(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid page url %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid next link %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
