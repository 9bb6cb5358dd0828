package pages

import "unsafe"

func roundUp(n, page int) int {
	return (n + page - 1) &^ (page - 1)
}

// pageOffset returns how many bytes to skip in b to reach a page boundary.
func pageOffset(b []byte, page int) int {
	addr := uintptr(unsafe.Pointer(unsafe.SliceData(b)))
	return int((uintptr(page) - addr%uintptr(page)) % uintptr(page))
}
