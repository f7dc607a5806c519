// Package mediaref models the different shapes providers use to hand back
// generated media — remote URL, bare base64, or inline data URI — as one
// tagged union with a single resolution path to raw bytes.
package mediaref

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type Kind int

const (
	KindURL Kind = iota
	KindBase64
	KindDataURI
)

// Ref is a reference to a piece of generated media in whatever form the
// provider returned it.
type Ref struct {
	Kind Kind
	// URL is set for KindURL.
	URL string
	// Payload is the base64 payload for KindBase64 and KindDataURI.
	Payload string
	// ContentType is only known up front for KindDataURI.
	ContentType string
}

// Parse classifies a raw provider value.
func Parse(value string) (Ref, error) {
	v := strings.TrimSpace(value)
	switch {
	case v == "":
		return Ref{}, fmt.Errorf("empty media reference")
	case strings.HasPrefix(v, "data:"):
		contentType, payload, err := splitDataURI(v)
		if err != nil {
			return Ref{}, err
		}
		return Ref{Kind: KindDataURI, Payload: payload, ContentType: contentType}, nil
	case strings.HasPrefix(v, "http://"), strings.HasPrefix(v, "https://"):
		return Ref{Kind: KindURL, URL: v}, nil
	default:
		// Providers that inline media without a data: scheme send bare base64.
		if _, err := base64.StdEncoding.DecodeString(peek(v)); err != nil {
			return Ref{}, fmt.Errorf("unrecognized media reference (not a URL, data URI, or base64)")
		}
		return Ref{Kind: KindBase64, Payload: v}, nil
	}
}

// Resolve turns the reference into raw bytes plus a content type. URL
// references are fetched with the supplied client; inline forms are decoded
// locally. defaultContentType is used when the reference does not carry one.
func (r Ref) Resolve(ctx context.Context, client *http.Client, defaultContentType string) ([]byte, string, error) {
	switch r.Kind {
	case KindURL:
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.URL, nil)
		if err != nil {
			return nil, "", err
		}
		resp, err := client.Do(req)
		if err != nil {
			return nil, "", fmt.Errorf("fetch media: %w", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, "", fmt.Errorf("fetch media: status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, "", err
		}
		contentType := resp.Header.Get("Content-Type")
		if contentType == "" {
			contentType = defaultContentType
		}
		return data, contentType, nil

	case KindDataURI, KindBase64:
		data, err := base64.StdEncoding.DecodeString(r.Payload)
		if err != nil {
			return nil, "", fmt.Errorf("decode media payload: %w", err)
		}
		contentType := r.ContentType
		if contentType == "" {
			contentType = defaultContentType
		}
		return data, contentType, nil
	}
	return nil, "", fmt.Errorf("unknown media reference kind %d", r.Kind)
}

// DataURI encodes raw bytes as an inline data URI for providers that demand
// a self-contained payload instead of a remote reference.
func DataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

func splitDataURI(v string) (contentType, payload string, err error) {
	rest := strings.TrimPrefix(v, "data:")
	meta, payload, found := strings.Cut(rest, ",")
	if !found {
		return "", "", fmt.Errorf("malformed data URI")
	}
	contentType = strings.TrimSuffix(meta, ";base64")
	if contentType == meta {
		return "", "", fmt.Errorf("data URI without base64 encoding")
	}
	return contentType, payload, nil
}

// peek returns a decodable prefix so classification does not decode a whole
// video payload just to validate it.
func peek(v string) string {
	const n = 64
	if len(v) <= n {
		return v
	}
	// Trim to a multiple of 4 so the prefix is itself valid base64.
	return v[:n-(n%4)]
}
