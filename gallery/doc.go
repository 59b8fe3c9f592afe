// Package gallery keeps an image gallery displayable while its references
// are being signed.
//
// Each slot starts out showing its raw reference, moves to a signed URL or
// an identity fallback once resolution returns, and ends either Loaded or
// Error after a load probe. Slots fail independently, a slot that takes
// longer than the slot timeout shows the placeholder, and Cancel drops any
// result that arrives later.
//
//	g := gallery.New(refs, client, loader, gallery.Config{},
//	    gallery.WithObserver(func(u gallery.SlotUpdate) { render(u) }))
//	g.Start(ctx)
//	defer g.Cancel()
package gallery
