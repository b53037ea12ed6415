// Package grid provides the blocked spatial grid the router searches over.
//
// # Overview
//
// A [Grid] is a fixed width×height field of [Cell] values. Each cell carries
// its position, an [Obstacle] kind, and the per-search scratch state (tentative
// distance and visited flag) used by the path search.
//
// Cells are not stored row-major. The grid is tiled into square blocks of
// [BlockSize]×[BlockSize] cells and every block is stored contiguously, so the
// 3×3 neighbourhood scans performed by the search mostly stay inside one block.
// Dimensions are rounded up to whole blocks; the padding cells exist in memory
// but are never addressed through logical coordinates.
//
// # Addressing
//
// [Grid.At] maps a logical (x, y) to its cell with pure arithmetic. Callers
// are responsible for clamping: out-of-range coordinates are not checked on
// the hot path. [Grid.Contains] and [Grid.Clamp] exist for callers that take
// coordinates from outside the router.
//
// [Grid.Index] and [Grid.CellAt] convert between positions and flat cell
// indices. Index-addressed buffers (such as the search fallback ring) store
// these integers instead of pointers.
//
// # Obstacles
//
// Obstacle kinds persist across searches and are only mutated by lead
// placement ([Grid.Stamp]), tracing, and the selective lifting of a trace's
// cells on a scratch copy ([Grid.Lift]).
//
// # Copies
//
// [Grid.Clone] produces an independent deep copy. The router uses it to build
// the disposable work grid for a single connection; nothing aliases between
// the committed grid and its clones.
package grid
