package audiocapture

import "log/slog"

// frameChunker reassembles arbitrary-size device callbacks into
// fixed-size frames. The device thread is the only writer, so no
// locking is needed here.
type frameChunker struct {
	frameSize int // bytes
	buf       []byte
	handler   FrameHandler
}

func newFrameChunker(frameSize int, handler FrameHandler) *frameChunker {
	return &frameChunker{
		frameSize: frameSize,
		buf:       make([]byte, 0, frameSize*2),
		handler:   handler,
	}
}

// write appends device bytes and emits every completed frame.
// An empty callback is a transient device glitch: logged and skipped.
func (fc *frameChunker) write(input []byte) {
	if len(input) == 0 {
		slog.Debug("dropped empty capture callback")
		return
	}

	fc.buf = append(fc.buf, input...)

	for len(fc.buf) >= fc.frameSize {
		// Hand out a copy: the handler may retain the frame past this call,
		// and buf is about to be reused.
		frame := make([]byte, fc.frameSize)
		copy(frame, fc.buf[:fc.frameSize])
		fc.buf = fc.buf[:copy(fc.buf, fc.buf[fc.frameSize:])]

		fc.handler(frame)
	}
}

// pending returns the number of buffered bytes not yet forming a frame.
func (fc *frameChunker) pending() int {
	return len(fc.buf)
}
