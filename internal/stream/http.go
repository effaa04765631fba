package stream

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

type httpLibrary struct {
	base   *url.URL
	client *http.Client
}

func (l *httpLibrary) Open(ctx context.Context, p string, offset int64) (io.ReadCloser, int64, error) {
	u := l.base.JoinPath(strings.Split(p, "/")...)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, 0, err
	}
	if offset > 0 {
		req.Header.Set("Range", fmt.Sprintf("bytes=%d-", offset))
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, 0, err
	}
	switch resp.StatusCode {
	case http.StatusOK:
		size := resp.ContentLength
		if offset > 0 {
			// The server ignored the range; drop the prefix here.
			if _, err := io.CopyN(io.Discard, resp.Body, offset); err != nil {
				resp.Body.Close()
				return nil, 0, err
			}
		}
		return resp.Body, size, nil
	case http.StatusPartialContent:
		return resp.Body, totalFromContentRange(resp.Header.Get("Content-Range")), nil
	case http.StatusNotFound:
		resp.Body.Close()
		return nil, 0, fmt.Errorf("%s: %w", p, ErrNotFound)
	default:
		resp.Body.Close()
		return nil, 0, fmt.Errorf("%s: unexpected status %s", p, resp.Status)
	}
}

// totalFromContentRange parses the complete length out of a header like
// "bytes 100-599/600". Unknown lengths come back as -1.
func totalFromContentRange(cr string) int64 {
	i := strings.LastIndex(cr, "/")
	if i < 0 {
		return -1
	}
	n, err := strconv.ParseInt(cr[i+1:], 10, 64)
	if err != nil {
		return -1
	}
	return n
}
