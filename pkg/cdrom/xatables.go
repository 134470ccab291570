package cdrom

// ADPCM prediction filter coefficients, in 1/64 units.
var (
	xaFilterPos = [4]int32{0, 60, 115, 98}
	xaFilterNeg = [4]int32{0, 0, -52, -55}
)

// zigZagTable holds the 29 tap weights of the seven output phases that
// turn six 37800 Hz samples into seven 44100 Hz samples.
var zigZagTable = [7][29]int32{
	{0, 0, 0, 0, 0, -0x2, 0xA, -0x22, 0x41, -0x54, 0x34, 0x9, -0x10A, 0x400, -0xA78,
		0x234C, 0x6794, -0x1780, 0xBCD, -0x623, 0x350, -0x16D, 0x6B, 0xA, -0x10, 0x11, -0x8, 0x3, -0x1},
	{0, 0, 0, -0x2, 0, 0x3, -0x13, 0x3C, -0x4B, 0xA2, -0xE3, 0x132, -0x43, -0x267, 0xC9D,
		0x74BB, -0x11B4, 0x9B8, -0x5BF, 0x372, -0x1A8, 0xA6, -0x1B, 0x5, 0x6, -0x8, 0x3, -0x1, 0},
	{0, 0, -0x1, 0x3, -0x2, -0x5, 0x1F, -0x4A, 0xB3, -0x192, 0x2B1, -0x39E, 0x4F8, -0x5A6, 0x7939,
		-0x5A6, 0x4F8, -0x39E, 0x2B1, -0x192, 0xB3, -0x4A, 0x1F, -0x5, -0x2, 0x3, -0x1, 0, 0},
	{0, -0x1, 0x3, -0x8, 0x6, 0x5, -0x1B, 0xA6, -0x1A8, 0x372, -0x5BF, 0x9B8, -0x11B4, 0x74BB, 0xC9D,
		-0x267, -0x43, 0x132, -0xE3, 0xA2, -0x4B, 0x3C, -0x13, 0x3, 0, -0x2, 0, 0, 0},
	{-0x1, 0x3, -0x8, 0x11, -0x10, 0xA, 0x6B, -0x16D, 0x350, -0x623, 0xBCD, -0x1780, 0x6794, 0x234C, -0xA78,
		0x400, -0x10A, 0x9, 0x34, -0x54, 0x41, -0x22, 0xA, -0x1, 0, 0x1, 0, 0, 0},
	{0x2, -0x8, 0x10, -0x23, 0x2B, 0x1A, -0xEB, 0x27B, -0x548, 0xAFA, -0x16FA, 0x53E0, 0x3C07, -0x1249, 0x80E,
		-0x347, 0x15B, -0x44, -0x17, 0x46, -0x23, 0x11, -0x5, 0, 0, 0, 0, 0, 0},
	{-0x5, 0x11, -0x23, 0x46, -0x17, -0x44, 0x15B, -0x347, 0x80E, -0x1249, 0x3C07, 0x53E0, -0x16FA, 0xAFA, -0x548,
		0x27B, -0xEB, 0x1A, 0x2B, -0x23, 0x10, -0x8, 0x2, 0, 0, 0, 0, 0, 0},
}
