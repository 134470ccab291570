package chd

import "github.com/hansbonini/psxcdrom/pkg/psx"

// GF(2^8) tables for the CD-ROM Reed-Solomon product code.
var eccFLUT, eccBLUT [256]byte

func init() {
	for i := 0; i < 256; i++ {
		j := i << 1
		if i&0x80 != 0 {
			j ^= 0x11D
		}
		eccFLUT[i] = byte(j)
		eccBLUT[i^j] = byte(i)
	}
}

func eccComputeBlock(src []byte, majorCount, minorCount, majorMult, minorInc int, dest []byte) {
	size := majorCount * minorCount
	for major := 0; major < majorCount; major++ {
		index := (major>>1)*majorMult + (major & 1)
		var a, b byte
		for minor := 0; minor < minorCount; minor++ {
			t := src[index]
			index += minorInc
			if index >= size {
				index -= size
			}
			a ^= t
			b ^= t
			a = eccFLUT[a]
		}
		a = eccBLUT[eccFLUT[a]^b]
		dest[major] = a
		dest[major+majorCount] = a ^ b
	}
}

// generateECC recomputes the P and Q parity of a raw sector, covering the
// header as it is stored.
func generateECC(sector []byte) {
	eccComputeBlock(sector[psx.HeaderOffset:], 86, 24, 2, 86, sector[psx.ECCPOffset:])
	eccComputeBlock(sector[psx.HeaderOffset:], 52, 43, 86, 88, sector[psx.ECCQOffset:])
}
