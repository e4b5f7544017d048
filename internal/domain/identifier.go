package domain

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

var recordIDNamespaceUUID = uuid.MustParse("9b2f1d54-6c0a-4f8e-8e0e-2a4c1d7b9e31")

// RecordID derives the stable record identifier for a source URL. The same
// URL always maps to the same identifier, so an existence check before a
// save is an idempotent duplicate check.
func RecordID(sourceURL string) (string, error) {
	canonical, err := CanonicalSourceURL(sourceURL)
	if err != nil {
		return "", err
	}
	return uuid.NewSHA1(recordIDNamespaceUUID, []byte(canonical)).String(), nil
}

// CanonicalSourceURL normalizes a source URL so trivially different spellings
// of the same page collide on one identifier: scheme and host are lowercased,
// default ports and fragments dropped, and a trailing slash on a non-root
// path removed. The query string is kept because many recipe sites key the
// page on it.
func CanonicalSourceURL(sourceURL string) (string, error) {
	raw := strings.TrimSpace(sourceURL)
	if raw == "" {
		return "", fmt.Errorf("source url is empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("parse source url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("source url %q is not absolute", raw)
	}

	u.Scheme = strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case u.Scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case u.Scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	u.Host = host
	u.Fragment = ""
	if len(u.Path) > 1 {
		u.Path = strings.TrimRight(u.Path, "/")
	}
	return u.String(), nil
}
