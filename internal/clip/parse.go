package clip

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// ParseURIList extracts local file paths from a text/uri-list payload.
// Comment lines and non-file URIs are skipped.
func ParseURIList(list string) []string {
	var out []string
	for _, line := range strings.Split(list, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if p, ok := FileURIToPath(line); ok {
			out = append(out, p)
		}
	}
	return out
}

// FileURIToPath converts a file:// URI into a local path, percent-decoding it.
// A "localhost" host is accepted; other hosts are rejected.
func FileURIToPath(uri string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, "file://")
	if !ok {
		return "", false
	}
	rest = strings.TrimPrefix(rest, "localhost")
	if !strings.HasPrefix(rest, "/") {
		return "", false
	}
	p, err := url.PathUnescape(rest)
	if err != nil {
		p = rest
	}
	return p, p != ""
}

// SinglePathFallback treats text as a one-file list when it is an absolute
// path naming an existing file. file:// URIs are accepted too.
func SinglePathFallback(text string) []string {
	t := strings.TrimSpace(text)
	if t == "" || strings.ContainsAny(t, "\r\n") {
		return nil
	}
	if p, ok := FileURIToPath(t); ok {
		t = p
	}
	if !filepath.IsAbs(t) {
		return nil
	}
	if _, err := os.Stat(t); err != nil {
		return nil
	}
	return []string{t}
}

const (
	startFragmentComment = "<!--StartFragment-->"
	endFragmentComment   = "<!--EndFragment-->"
)

// HTMLFragment extracts the copied fragment from a Windows "HTML Format"
// payload. The fragment comments are preferred; the StartFragment/EndFragment
// header offsets are used when the comments are missing. Payloads without
// either are returned unchanged.
func HTMLFragment(cf string) string {
	if i := strings.Index(cf, startFragmentComment); i >= 0 {
		body := cf[i+len(startFragmentComment):]
		if j := strings.Index(body, endFragmentComment); j >= 0 {
			return body[:j]
		}
	}
	start, okStart := headerOffset(cf, "StartFragment:")
	end, okEnd := headerOffset(cf, "EndFragment:")
	if okStart && okEnd && start >= 0 && start <= end && end <= len(cf) {
		return cf[start:end]
	}
	return cf
}

func headerOffset(cf, key string) (int, bool) {
	i := strings.Index(cf, key)
	if i < 0 {
		return 0, false
	}
	rest := cf[i+len(key):]
	if j := strings.IndexAny(rest, "\r\n"); j >= 0 {
		rest = rest[:j]
	}
	n, err := strconv.Atoi(strings.TrimSpace(rest))
	if err != nil {
		return 0, false
	}
	return n, true
}
