// Package render keeps page bitmaps ready for painting under a memory
// budget.
//
// # Tiers
//
// Every page near the viewport gets a preview: a full-page raster whose
// scale is capped by [Config.PreviewMaxScale] and
// [Config.PreviewMaxPixels], so previews stay cheap no matter how far
// the user zooms in. When the zoom exceeds the preview cap, the visible
// part of the page additionally gets a partial tile rendered at the
// true zoom. The paint layer draws the preview first and the partial
// tile over it, so detail arrives without the page ever going blank.
//
// # Scheduling
//
// [Cache.UpdateVisible] is called once per transform change. It never
// renders inline; it decides what each page near the viewport should
// have, debounces re-requests while a gesture is still settling, and
// runs the renders on background goroutines bounded by
// [Config.MaxConcurrent]. A render whose result no longer matches the
// pending request by the time it finishes is discarded, and evicting a
// page cancels its in-flight renders through their contexts.
//
// # Eviction
//
// Committed bitmaps are counted at four bytes per pixel against
// [Config.MemoryBudget]. When the budget is exceeded, pages outside the
// cached region are released farthest-from-current-page first until the
// total fits. Pages inside the cached region are never evicted, so the
// budget is a target, not a hard ceiling, when the visible set alone
// exceeds it.
package render
