package utils

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Float32ArrayToByteArray encodes an embedding as little-endian float32s, as stored in DB blobs and Redis.
func Float32ArrayToByteArray(fa []float32) []byte {
	buf := bytes.Buffer{}
	_ = binary.Write(&buf, binary.LittleEndian, fa)
	return buf.Bytes()
}

// ByteArrayToFloat32Array decodes Float32ArrayToByteArray output. Trailing bytes are ignored.
func ByteArrayToFloat32Array(b []byte) (result []float32) {
	for i := 0; i+4 <= len(b); i += 4 {
		result = append(result, math.Float32frombits(binary.LittleEndian.Uint32(b[i:])))
	}
	return
}
