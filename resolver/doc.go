// Package resolver turns media references into displayable URLs by calling
// the signing service in batches.
//
// Resolution never fails: every input reference appears in the result,
// mapped either to a signed URL or to itself. Batches are independent, so
// one failed request only sends its own references to the identity
// fallback.
//
//	cache, _ := mediacache.NewMemory(1024)
//	c, err := resolver.New(resolver.Config{BaseURL: "http://localhost:8080"},
//	    resolver.WithCache(cache))
//	urls := c.Resolve(ctx, refs)
//	if urls.Signed(refs[0]) { ... }
package resolver
