package pages

import (
	"testing"
	"unsafe"
)

func TestMapRoundsToPages(t *testing.T) {
	page := Size()
	if page <= 0 || page&(page-1) != 0 {
		t.Fatalf("page size %d is not a power of two", page)
	}
	data, release, err := Map(page + 1)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	defer func() {
		if err := release(); err != nil {
			t.Fatalf("release: %v", err)
		}
	}()
	if len(data) != 2*page {
		t.Fatalf("len = %d, want %d", len(data), 2*page)
	}
	if addr := uintptr(unsafe.Pointer(&data[0])); addr%uintptr(page) != 0 {
		t.Fatalf("mapping at %#x is not page aligned", addr)
	}
	for i := range data {
		if data[i] != 0 {
			t.Fatalf("byte %d not zeroed", i)
		}
	}
	data[0], data[len(data)-1] = 0xAA, 0x55
	if data[0] != 0xAA || data[len(data)-1] != 0x55 {
		t.Fatalf("mapping is not writable")
	}
}

func TestMapRejectsZero(t *testing.T) {
	if _, _, err := Map(0); err == nil {
		t.Fatalf("expected error for zero-length mapping")
	}
}

func TestReleaseTwice(t *testing.T) {
	_, release, err := Map(1)
	if err != nil {
		t.Fatalf("Map: %v", err)
	}
	if err := release(); err != nil {
		t.Fatalf("first release: %v", err)
	}
	if err := release(); err != nil {
		t.Fatalf("second release should be a no-op: %v", err)
	}
}

func TestRoundUp(t *testing.T) {
	tests := []struct{ n, page, want int }{
		{1, 4096, 4096},
		{4096, 4096, 4096},
		{4097, 4096, 8192},
		{100, 64, 128},
	}
	for _, tt := range tests {
		if got := roundUp(tt.n, tt.page); got != tt.want {
			t.Errorf("roundUp(%d, %d) = %d, want %d", tt.n, tt.page, got, tt.want)
		}
	}
}
