package utils

import (
	"net/url"
	"strings"

	"golang.org/x/net/idna"
)

var losslessParams = []string{"&quality=lossless", "quality=lossless&", "quality=lossless"}

// CleanImageURL drops the quality=lossless parameter that breaks embed
// thumbnails and converts an internationalized host to its ASCII form.
func CleanImageURL(raw string) string {
	cleaned := strings.TrimSpace(raw)
	for _, param := range losslessParams {
		cleaned = strings.ReplaceAll(cleaned, param, "")
	}
	cleaned = strings.TrimRight(cleaned, "?&")

	parsed, err := url.Parse(cleaned)
	if err != nil || parsed.Host == "" {
		return cleaned
	}
	host := parsed.Hostname()
	ascii, err := idna.ToASCII(strings.ToLower(host))
	if err != nil || ascii == host {
		return cleaned
	}
	return strings.Replace(cleaned, host, ascii, 1)
}

func IsHTTPURL(raw string) bool {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	return (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
}
