// Package stream implements the background frame reader behind a movie.
//
// An Engine owns one goroutine that walks a FrameSource at a paced rate,
// reads each frame's bytes through a Reader, and publishes them into a
// single latest-wins slot. The consumer pulls the slot with Take on its own
// schedule; frames it never took are counted as dropped.
//
// Seeks and rate changes wake the goroutine early through a coalescing
// interrupt channel, so control changes take effect without waiting out the
// current frame interval. After SeekToFrame(k) returns, the next frame handed
// out by Take is frame k.
package stream
