package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInsufficientData     ErrorCode = 106
	ErrCodeInvalidType          ErrorCode = 107
	ErrCodeInvalidPeriod        ErrorCode = 108
	ErrCodeMissingParameter     ErrorCode = 109
	ErrCodeInvalidVersion       ErrorCode = 110
	ErrCodeInvalidMultiplier    ErrorCode = 111
	ErrCodeInvalidPrice         ErrorCode = 112

	// Data/Resource errors (200-299)
	ErrCodeDataNotFound    ErrorCode = 200
	ErrCodeDataUnavailable ErrorCode = 201
	ErrCodeQueryFailed     ErrorCode = 202

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301
	ErrCodeIndicatorCalculation   ErrorCode = 302
	ErrCodeIndicatorUndefined     ErrorCode = 303

	// Portfolio errors (500-599)
	ErrCodeSizingRejected     ErrorCode = 500
	ErrCodeUnknownAsset       ErrorCode = 501
	ErrCodeInvalidDecision    ErrorCode = 502
	ErrCodeNothingToLiquidate ErrorCode = 503

	// State errors (600-699)
	ErrCodeStateCorrupt     ErrorCode = 600
	ErrCodeStateReadFailed  ErrorCode = 601
	ErrCodeStateWriteFailed ErrorCode = 602

	// Market data errors (700-799)
	ErrCodeMarketDataFetchFailed ErrorCode = 700
	ErrCodeMarketDataWriteFailed ErrorCode = 701
	ErrCodeMarketDataParseFailed ErrorCode = 702
	ErrCodeInvalidProvider       ErrorCode = 704

	// Report errors (800-899)
	ErrCodeReportWriteFailed ErrorCode = 800
	ErrCodeReportReadFailed  ErrorCode = 801
)
