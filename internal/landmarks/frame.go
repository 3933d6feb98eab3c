package landmarks

import (
	"encoding/binary"
	"fmt"

	"github.com/OCAP2/gaze/pkg/core"
)

// FrameHeaderSize is the fixed prefix of a binary frame message:
// seq (uint64), width (uint32), height (uint32), all big-endian.
const FrameHeaderSize = 16

// EncodeFrame builds the binary message sent to the sidecar.
func EncodeFrame(f core.Frame) []byte {
	buf := make([]byte, FrameHeaderSize+len(f.Pixels))
	binary.BigEndian.PutUint64(buf[0:8], f.Seq)
	binary.BigEndian.PutUint32(buf[8:12], uint32(f.Width))
	binary.BigEndian.PutUint32(buf[12:16], uint32(f.Height))
	copy(buf[FrameHeaderSize:], f.Pixels)
	return buf
}

// DecodeFrame is the inverse of EncodeFrame. CapturedAt is not carried.
func DecodeFrame(data []byte) (core.Frame, error) {
	if len(data) < FrameHeaderSize {
		return core.Frame{}, fmt.Errorf("frame message too short: %d bytes", len(data))
	}
	f := core.Frame{
		Seq:    binary.BigEndian.Uint64(data[0:8]),
		Width:  int(binary.BigEndian.Uint32(data[8:12])),
		Height: int(binary.BigEndian.Uint32(data[12:16])),
	}
	pixels := data[FrameHeaderSize:]
	if want := f.Width * f.Height * 3; len(pixels) != want {
		return core.Frame{}, fmt.Errorf("frame pixel size mismatch: got %d, want %d", len(pixels), want)
	}
	f.Pixels = pixels
	return f, nil
}
