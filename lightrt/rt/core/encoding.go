package core

import (
	"encoding/binary"
	"math"

	"github.com/go-gl/mathgl/mgl32"
)

// Little-endian helpers shared by every GPU record. Offsets are in bytes.

func putVec4(buf []byte, offset int, v mgl32.Vec4) {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(v[i]))
	}
}

func putMat4(buf []byte, offset int, m mgl32.Mat4) {
	for i, v := range m {
		binary.LittleEndian.PutUint32(buf[offset+i*4:], math.Float32bits(v))
	}
}

func putInt4(buf []byte, offset int, v [4]int32) {
	for i := 0; i < 4; i++ {
		binary.LittleEndian.PutUint32(buf[offset+i*4:], uint32(v[i]))
	}
}

func readVec4(buf []byte, offset int) mgl32.Vec4 {
	var v mgl32.Vec4
	for i := 0; i < 4; i++ {
		v[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[offset+i*4:]))
	}
	return v
}

func readMat4(buf []byte, offset int) mgl32.Mat4 {
	var m mgl32.Mat4
	for i := range m {
		m[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf[offset+i*4:]))
	}
	return m
}

func readInt4(buf []byte, offset int) [4]int32 {
	var v [4]int32
	for i := 0; i < 4; i++ {
		v[i] = int32(binary.LittleEndian.Uint32(buf[offset+i*4:]))
	}
	return v
}

// Mat4Bytes packs matrices back to back, 64 bytes each, column-major.
func Mat4Bytes(mats ...mgl32.Mat4) []byte {
	buf := make([]byte, 64*len(mats))
	for i, m := range mats {
		putMat4(buf, i*64, m)
	}
	return buf
}

// ReadMat4 decodes the column-major matrix starting at offset.
func ReadMat4(buf []byte, offset int) mgl32.Mat4 {
	return readMat4(buf, offset)
}
