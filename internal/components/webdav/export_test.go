package webdav

// Export internal functions for testing.

// IsWriteMethodForTest exposes isWriteMethod for testing.
func IsWriteMethodForTest(method string) bool {
	return isWriteMethod(method)
}

// IsHiddenForTest exposes isHidden for testing.
func IsHiddenForTest(name string) bool {
	return isHidden(name)
}
