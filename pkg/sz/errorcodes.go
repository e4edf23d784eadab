package sz

import "sync"

// Native error codes with a known category. Codes that are not listed map to
// CategoryGeneric.
var (
	errorCodesMu sync.RWMutex
	errorCodes   = map[int64]Category{
		// bad input
		2: CategoryBadInput, 7: CategoryBadInput, 22: CategoryBadInput,
		23: CategoryBadInput, 24: CategoryBadInput, 25: CategoryBadInput,
		26: CategoryBadInput, 27: CategoryBadInput, 32: CategoryBadInput,
		51: CategoryBadInput, 62: CategoryBadInput, 63: CategoryBadInput,
		64: CategoryBadInput, 76: CategoryBadInput, 88: CategoryBadInput,
		2207: CategoryBadInput, 30121: CategoryBadInput,

		// unknown data source
		2134: CategoryUnknownDataSource,

		// not found
		33: CategoryNotFound, 37: CategoryNotFound, 2208: CategoryNotFound,

		// configuration
		2203: CategoryConfiguration, 2205: CategoryConfiguration,
		7211: CategoryConfiguration, 7212: CategoryConfiguration,
		7216: CategoryConfiguration, 7217: CategoryConfiguration,
		7218: CategoryConfiguration, 7220: CategoryConfiguration,
		7221: CategoryConfiguration, 7223: CategoryConfiguration,
		7224: CategoryConfiguration, 7226: CategoryConfiguration,

		// database
		1001: CategoryDatabase, 1002: CategoryDatabase, 1003: CategoryDatabase,
		1004: CategoryDatabase, 1005: CategoryDatabase,
		1006: CategoryDatabaseConnectionLost, 1007: CategoryDatabaseConnectionLost,

		// initialization
		48: CategoryNotInitialized, 49: CategoryNotInitialized,
		50: CategoryNotInitialized, 53: CategoryNotInitialized,

		// license
		999: CategoryLicense, 9000: CategoryLicense, 9001: CategoryLicense,

		87:   CategoryRetryTimeoutExceeded,
		7245: CategoryReplaceConflict, 7246: CategoryReplaceConflict,
		8000: CategoryUnhandled,
	}
)

// Well known native codes referenced by this package and its tests.
const (
	CodeUnknownDataSource int64 = 2134
	CodeNotFound          int64 = 33
	CodeReplaceConflict   int64 = 7245
	CodeConnectionLost    int64 = 1006
)

// RegisterErrorCode maps a native error code to a category, replacing any
// previous mapping. It lets applications classify codes introduced by newer
// native releases without waiting for a wrapper update.
func RegisterErrorCode(code int64, category Category) {
	errorCodesMu.Lock()
	errorCodes[code] = category
	errorCodesMu.Unlock()
}

// categoryFor never fails: unknown codes and invalid registered categories
// both fall back to CategoryGeneric.
func categoryFor(code int64) Category {
	errorCodesMu.RLock()
	c, ok := errorCodes[code]
	errorCodesMu.RUnlock()
	if !ok || !c.valid() {
		return CategoryGeneric
	}
	return c
}
