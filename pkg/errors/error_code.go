package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidPeriod        ErrorCode = 102
	ErrCodeInvalidThreshold     ErrorCode = 103
	ErrCodeInvalidType          ErrorCode = 104
	ErrCodeMissingParameter     ErrorCode = 105
	ErrCodeInsufficientData     ErrorCode = 106

	// Series errors (200-299)
	ErrCodeMalformedSeries     ErrorCode = 200
	ErrCodeEmptySeries         ErrorCode = 201
	ErrCodeSymbolMismatch      ErrorCode = 202
	ErrCodeNonMonotonicSeries  ErrorCode = 203
	ErrCodeOHLCInvariantBroken ErrorCode = 204
	ErrCodeNegativeVolume      ErrorCode = 205

	// Agent errors (300-399)
	ErrCodeInvalidState     ErrorCode = 300
	ErrCodeAgentFailed      ErrorCode = 301
	ErrCodeUnknownAgentType ErrorCode = 302
	ErrCodeAgentNotTrained  ErrorCode = 303
	ErrCodeMissingPairData  ErrorCode = 304

	// Ensemble errors (400-499)
	ErrCodeNoSubAgents              ErrorCode = 400
	ErrCodeUnknownAggregationMethod ErrorCode = 401
	ErrCodeSubAgentFailed           ErrorCode = 402

	// Backtest errors (500-599)
	ErrCodeBacktestConfigError ErrorCode = 500
	ErrCodeBacktestStateError  ErrorCode = 501
	ErrCodeTrainPeriodTooLarge ErrorCode = 502
	ErrCodeStoreFailed         ErrorCode = 503

	// Market data errors (600-699)
	ErrCodeMarketDataFetchFailed ErrorCode = 600
	ErrCodeMarketDataParseFailed ErrorCode = 601
	ErrCodeInvalidInterval       ErrorCode = 602
	ErrCodeInvalidProvider       ErrorCode = 603
)
