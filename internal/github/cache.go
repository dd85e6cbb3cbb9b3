package github

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"

	"github.com/rnwolfe/gh/internal/store"
)

// CacheStore persists response bodies keyed by request identity.
type CacheStore interface {
	GetCached(key string) (store.CacheEntry, bool, error)
	PutCached(key string, entry store.CacheEntry) error
}

// CacheTransport makes GET requests conditional using stored ETags. A 304
// from the server is answered from the store as a 200, so callers never
// see it. Conditional requests that hit do not count against the rate
// limit. Cache failures fall through to the network.
type CacheTransport struct {
	Store CacheStore
	Base  http.RoundTripper
}

// RoundTrip implements http.RoundTripper.
func (t *CacheTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}
	if req.Method != http.MethodGet || t.Store == nil {
		return base.RoundTrip(req)
	}

	key := cacheKey(req)
	entry, hit, err := t.Store.GetCached(key)
	if err != nil {
		hit = false
	}

	out := req
	if hit {
		out = req.Clone(req.Context())
		out.Header.Set("If-None-Match", entry.ETag)
	}
	resp, err := base.RoundTrip(out)
	if err != nil {
		return nil, err
	}

	switch {
	case hit && resp.StatusCode == http.StatusNotModified:
		resp.Body.Close()
		return cachedResponse(req, resp, entry), nil
	case resp.StatusCode == http.StatusOK && resp.Header.Get("ETag") != "":
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, err
		}
		_ = t.Store.PutCached(key, store.CacheEntry{
			ETag:        resp.Header.Get("ETag"),
			ContentType: resp.Header.Get("Content-Type"),
			Body:        body,
		})
		resp.Body = io.NopCloser(bytes.NewReader(body))
		return resp, nil
	default:
		return resp, nil
	}
}

// cacheKey identifies a request by URL and credential, so two accounts
// never share entries. Only a digest of the credential is kept.
func cacheKey(req *http.Request) string {
	sum := sha256.Sum256([]byte(req.Header.Get("Authorization")))
	return req.Method + " " + req.URL.String() + " " + hex.EncodeToString(sum[:6])
}

func cachedResponse(req *http.Request, notModified *http.Response, entry store.CacheEntry) *http.Response {
	header := notModified.Header.Clone()
	if entry.ContentType != "" {
		header.Set("Content-Type", entry.ContentType)
	}
	header.Set("X-From-Cache", "1")
	return &http.Response{
		Status:        "200 OK",
		StatusCode:    http.StatusOK,
		Proto:         notModified.Proto,
		ProtoMajor:    notModified.ProtoMajor,
		ProtoMinor:    notModified.ProtoMinor,
		Header:        header,
		Body:          io.NopCloser(bytes.NewReader(entry.Body)),
		ContentLength: int64(len(entry.Body)),
		Request:       req,
	}
}
