package assets

import (
	"crypto/sha1" //nolint:gosec // cache key only
	"encoding/hex"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/css"
	"github.com/tdewolff/minify/v2/js"
)

// Media types understood by the minifier.
const (
	MediaCSS = "text/css"
	MediaJS  = "application/javascript"
)

// DefaultMinifyCacheSize bounds the number of memoised minification results.
const DefaultMinifyCacheSize = 64

// Minifier shrinks CSS or JS source.
type Minifier interface {
	Minify(mediatype string, in []byte) ([]byte, error)
}

// CachingMinifier minifies with tdewolff/minify and memoises results by
// input digest, so a long-lived watch session only re-minifies bundles
// whose source changed.
type CachingMinifier struct {
	m     *minify.M
	cache *lru.Cache[string, []byte]
}

// NewMinifier returns a CachingMinifier holding at most size results.
func NewMinifier(size int) (*CachingMinifier, error) {
	if size <= 0 {
		size = DefaultMinifyCacheSize
	}
	cache, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, err
	}
	m := minify.New()
	m.AddFunc(MediaCSS, css.Minify)
	m.AddFunc(MediaJS, js.Minify)
	return &CachingMinifier{m: m, cache: cache}, nil
}

// Minify implements Minifier.
func (c *CachingMinifier) Minify(mediatype string, in []byte) ([]byte, error) {
	sum := sha1.Sum(in) //nolint:gosec
	key := mediatype + ":" + hex.EncodeToString(sum[:])
	if out, ok := c.cache.Get(key); ok {
		return out, nil
	}
	out, err := c.m.Bytes(mediatype, in)
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, out)
	return out, nil
}

// Len reports the number of memoised results.
func (c *CachingMinifier) Len() int { return c.cache.Len() }
