// Package shmio exchanges a typed frame buffer between processes through a
// named, memory-mapped shared segment.
//
// A segment holds one fixed-shape element buffer, a fixed keyword table of
// metadata, and the synchronization state for a request/ready frame
// handshake. The producer fills the buffer in place; the consumer reads it
// in place; nothing is copied or serialized. Segments live as files under
// the namespace directory (default /dev/shm) and survive both processes,
// so either side may start first.
//
// Example usage:
//
//	ch, err := shmio.CreateOrAttach("frame", 100, shmio.Float32,
//	  []shmio.Keyword{
//	    shmio.FloatKeyword("EXPT", 0.5, "exposure time"),
//	    shmio.IntKeyword("GAIN", 1, "sensor gain"),
//	  }, nil)
//	// ...
//	ch.RequestFrame()
//	ch.WaitFrameReady()
//	pixels := shmio.As[float32](ch)
//
// The handshake blocks on futexes shared through the segment, which makes
// the package Linux-only. See README.md for the segment layout and the
// crash-recovery caveats.
package shmio
