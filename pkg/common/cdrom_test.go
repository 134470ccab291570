package common

import "testing"

func TestBCD(t *testing.T) {
	testCases := []struct {
		value uint8
		bcd   uint8
	}{
		{0, 0x00},
		{9, 0x09},
		{10, 0x10},
		{59, 0x59},
		{74, 0x74},
		{99, 0x99},
	}
	for _, tc := range testCases {
		if got := ToBCD(tc.value); got != tc.bcd {
			t.Errorf("ToBCD(%d) = 0x%02X, want 0x%02X", tc.value, got, tc.bcd)
		}
		if got := FromBCD(tc.bcd); got != tc.value {
			t.Errorf("FromBCD(0x%02X) = %d, want %d", tc.bcd, got, tc.value)
		}
		if !IsValidBCD(tc.bcd) {
			t.Errorf("IsValidBCD(0x%02X) = false", tc.bcd)
		}
	}
	for _, b := range []uint8{0x0A, 0xA0, 0x1F, 0xFF} {
		if IsValidBCD(b) {
			t.Errorf("IsValidBCD(0x%02X) = true", b)
		}
	}
}

func TestLBAToMSF(t *testing.T) {
	testCases := []struct {
		lba  uint32
		want string
	}{
		{0, "00:02:00"},
		{16, "00:02:16"},
		{4350, "01:00:00"},
	}
	for _, tc := range testCases {
		if got := LBAToMSF(tc.lba); got != tc.want {
			t.Errorf("LBAToMSF(%d) = %s, want %s", tc.lba, got, tc.want)
		}
	}
}

func TestCleanFileName(t *testing.T) {
	testCases := map[string]string{
		"SYSTEM.CNF;1": "SYSTEM.CNF",
		"SLUS_000.01":  "SLUS_000.01",
		"DATA":         "DATA",
	}
	for in, want := range testCases {
		if got := CleanFileName(in); got != want {
			t.Errorf("CleanFileName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSafeIntToUint8(t *testing.T) {
	if v, err := SafeIntToUint8(99); err != nil || v != 99 {
		t.Errorf("SafeIntToUint8(99) = %d, %v", v, err)
	}
	for _, bad := range []int{-1, 256} {
		if _, err := SafeIntToUint8(bad); err == nil {
			t.Errorf("SafeIntToUint8(%d) succeeded", bad)
		}
	}
}
