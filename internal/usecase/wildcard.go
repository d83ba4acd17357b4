package usecase

import "strings"

// MatchesCode reports whether a stored UPC is contained in a scanned code.
// Camera-scanned payloads sometimes embed a shorter canonical product UPC
// with extra leading/trailing digits from packaging or vendor data, so
// substring containment lets a catalog keyed on the short code still match
// the longer raw scan. Exact equality is the trivial case.
func MatchesCode(scannedCode, storedCode string) bool {
	if storedCode == "" {
		return false
	}
	return strings.Contains(scannedCode, storedCode)
}

// FindMatchingCode returns the first member of allowedCodes contained in
// scannedCode. The slice is scanned front to back, so when more than one
// allowed code is embedded in the same scan the first-registered one wins.
func FindMatchingCode(scannedCode string, allowedCodes []string) (string, bool) {
	for _, stored := range allowedCodes {
		if MatchesCode(scannedCode, stored) {
			return stored, true
		}
	}
	return "", false
}
