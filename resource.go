// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package mcp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/coreproto/mcp/internal/util"
)

// A ServerResource associates a Resource with its handler.
type ServerResource struct {
	Resource Resource
	Handler  ResourceHandler
}

// A ServerResourceTemplate associates a ResourceTemplate with its
// handler, matching any URI satisfying the template rather than one
// fixed URI.
type ServerResourceTemplate struct {
	ResourceTemplate ResourceTemplate
	Handler          ResourceHandler
}

// A ResourceHandler reads one resource, invoked when a client calls
// resources/read. If the handler cannot find the resource it should
// return the error from [ResourceNotFoundError].
type ResourceHandler func(ctx context.Context, uri string) (*ReadResourceResult, error)

// readFileResource reads the file at a URI relative to dirFilepath,
// refusing to serve a path outside rootFilepaths when any are
// configured. dirFilepath and rootFilepaths are absolute filesystem
// paths.
func readFileResource(rawURI, dirFilepath string, rootFilepaths []string) ([]byte, error) {
	uriFilepath, err := computeURIFilepath(rawURI, dirFilepath, rootFilepaths)
	if err != nil {
		return nil, err
	}

	var data []byte
	err = withFile(dirFilepath, uriFilepath, func(f *os.File) error {
		var err error
		data, err = io.ReadAll(f)
		return err
	})
	if os.IsNotExist(err) {
		err = ResourceNotFoundError(rawURI)
	}
	return data, err
}

// withFile opens the file at join(dir, rel) and calls f on it. rel must
// already have been validated by [computeURIFilepath] as a local,
// non-escaping path.
func withFile(dir, rel string, f func(*os.File) error) (err error) {
	file, err := os.Open(filepath.Join(dir, rel))
	if err != nil {
		return err
	}
	defer func() { err = errors.Join(err, file.Close()) }()
	return f(file)
}

// computeURIFilepath returns a path relative to dirFilepath. dirFilepath
// and rootFilepaths are absolute file paths.
func computeURIFilepath(rawURI, dirFilepath string, rootFilepaths []string) (string, error) {
	uri, err := url.Parse(rawURI)
	if err != nil {
		return "", err
	}
	if uri.Scheme != "file" {
		return "", fmt.Errorf("URI is not a file: %s", uri)
	}
	if uri.Path == "" {
		// A more specific error than the one below, to catch the
		// common mistake "file://foo".
		return "", errors.New("empty path")
	}
	// The URI's path is interpreted relative to dirFilepath, and in the local filesystem.
	// It must not try to escape its directory.
	uriFilepathRel, err := filepath.Localize(strings.TrimPrefix(uri.Path, "/"))
	if err != nil {
		return "", fmt.Errorf("%q cannot be localized: %w", uriFilepathRel, err)
	}

	if len(rootFilepaths) > 0 {
		uriFilepathAbs := filepath.Join(dirFilepath, uriFilepathRel)
		rootOK := false
		for _, rootFilepathAbs := range rootFilepaths {
			if rel, err := filepath.Rel(rootFilepathAbs, uriFilepathAbs); err == nil && filepath.IsLocal(rel) {
				rootOK = true
				break
			}
		}
		if !rootOK {
			return "", fmt.Errorf("URI path %q is not under any root", uriFilepathAbs)
		}
	}
	return uriFilepathRel, nil
}

// fileRoots transforms the Roots obtained from the client into absolute
// paths on the local filesystem.
func fileRoots(rawRoots []*Root) ([]string, error) {
	var roots []string
	for _, r := range rawRoots {
		fr, err := fileRoot(r)
		if err != nil {
			return nil, err
		}
		roots = append(roots, fr)
	}
	return roots, nil
}

// fileRoot returns the absolute filesystem path named by a file:// root.
func fileRoot(root *Root) (_ string, err error) {
	defer util.Wrapf(&err, "root %q", root.URI)

	rurl, err := url.Parse(root.URI)
	if err != nil {
		return "", err
	}
	if rurl.Scheme != "file" {
		return "", errors.New("not a file URI")
	}
	if rurl.Path == "" {
		return "", errors.New("empty path")
	}
	// We don't want Localize here: we want an absolute path, which is not local.
	path := filepath.Clean(filepath.FromSlash(rurl.Path))
	if !filepath.IsAbs(path) {
		return "", errors.New("not an absolute path")
	}
	return path, nil
}

// Matches reports whether sr's URI template matches uri.
func (sr *ServerResourceTemplate) Matches(uri string) bool {
	re, err := uriTemplateToRegexp(sr.ResourceTemplate.URITemplate)
	if err != nil {
		return false
	}
	return re.MatchString(uri)
}

// uriTemplateToRegexp compiles the RFC 6570 subset this package supports
// ({var} and {+var}, with no comma lists, prefix modifiers, or explode
// modifiers) into a matching regexp.
func uriTemplateToRegexp(uriTemplate string) (*regexp.Regexp, error) {
	pat := uriTemplate
	var b strings.Builder
	b.WriteByte('^')
	seen := map[string]bool{}
	for len(pat) > 0 {
		literal, rest, ok := strings.Cut(pat, "{")
		b.WriteString(regexp.QuoteMeta(literal))
		if !ok {
			break
		}
		expr, rest, ok := strings.Cut(rest, "}")
		if !ok {
			return nil, errors.New("missing '}'")
		}
		pat = rest
		if strings.ContainsRune(expr, ',') {
			return nil, errors.New("can't handle commas in expressions")
		}
		if strings.ContainsRune(expr, ':') {
			return nil, errors.New("can't handle prefix modifiers in expressions")
		}
		if len(expr) > 0 && expr[len(expr)-1] == '*' {
			return nil, errors.New("can't handle explode modifiers in expressions")
		}

		var re, name string
		first := byte(0)
		if len(expr) > 0 {
			first = expr[0]
		}
		switch first {
		default:
			// {var} doesn't match slashes.
			re = `[^/]*`
			name = expr
		case '+':
			// {+var} matches anything, even slashes.
			re = `.*`
			name = expr[1:]
		case '#', '.', '/', ';', '?', '&':
			return nil, fmt.Errorf("prefix character %c unsupported", first)
		}
		if seen[name] {
			return nil, fmt.Errorf("can't handle duplicate name %q", name)
		}
		seen[name] = true
		b.WriteString(re)
	}
	b.WriteByte('$')
	return regexp.Compile(b.String())
}
