// Package assetcache intercepts the client's outbound fetches and resolves them
// with a per-class caching strategy over versioned cache generations.
package assetcache

import (
	"net/http"
	"net/url"
	"path"
	"strings"
)

// Class is the resource class that selects a strategy.
type Class string

const (
	ClassPassthrough Class = "passthrough"
	ClassData        Class = "data"
	ClassEngine      Class = "engine"
	ClassDocument    Class = "document"
	ClassCrossOrigin Class = "cross-origin"
	ClassStatic      Class = "static"
)

// Strategy names how a class is resolved.
type Strategy string

const (
	StrategyNone                 Strategy = "none"
	StrategyStaleWhileRevalidate Strategy = "stale-while-revalidate"
	StrategyCacheFirst           Strategy = "cache-first"
	StrategyNetworkFirst         Strategy = "network-first"
)

// Strategy returns the strategy used for the class.
func (c Class) Strategy() Strategy {
	switch c {
	case ClassData, ClassCrossOrigin:
		return StrategyStaleWhileRevalidate
	case ClassEngine, ClassStatic:
		return StrategyCacheFirst
	case ClassDocument:
		return StrategyNetworkFirst
	}
	return StrategyNone
}

// Classify picks the class of req, first match wins:
// non-GET, snapshot data, engine payloads, documents, cross-origin, static.
// scope is the origin (and base path) the client was loaded from.
func Classify(req *http.Request, scope *url.URL) Class {
	if req.Method != http.MethodGet && req.Method != "" {
		return ClassPassthrough
	}
	p := req.URL.Path
	lower := strings.ToLower(p)

	switch ext := path.Ext(lower); {
	case ext == ".parquet" || ext == ".csv":
		return ClassData
	case ext == ".wasm" || strings.Contains(lower, "worker.js"):
		return ClassEngine
	case ext == ".html" || isRoot(p, scope):
		return ClassDocument
	}
	if !sameOrigin(req.URL, scope) {
		return ClassCrossOrigin
	}
	return ClassStatic
}

func isRoot(p string, scope *url.URL) bool {
	if p == "" || p == "/" {
		return true
	}
	return scope != nil && scope.Path != "" && p == scope.Path
}

func sameOrigin(u, scope *url.URL) bool {
	if scope == nil {
		return true
	}
	return strings.EqualFold(u.Scheme, scope.Scheme) && strings.EqualFold(u.Host, scope.Host)
}

// cacheKey is the URL a response is stored under; fragments never reach the network.
func cacheKey(u *url.URL) string {
	if u.Fragment == "" && u.RawFragment == "" {
		return u.String()
	}
	c := *u
	c.Fragment, c.RawFragment = "", ""
	return c.String()
}
