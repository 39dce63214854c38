package apperrors

// ErrorCode - тип для кодов ошибок
type ErrorCode string

const (
	// Системные и неизвестные ошибки
	CodeInternalError        ErrorCode = "INTERNAL_ERROR"
	CodeExternalServiceError ErrorCode = "EXTERNAL_SERVICE_ERROR"

	// Ошибки синхронизации чата
	CodeConnectionFailed    ErrorCode = "CONNECTION_FAILED"
	CodeHistoryLoadFailed   ErrorCode = "HISTORY_LOAD_FAILED"
	CodeSendFailed          ErrorCode = "SEND_FAILED"
	CodeUploadFailed        ErrorCode = "UPLOAD_FAILED"
	CodeMalformedWireRecord ErrorCode = "MALFORMED_WIRE_RECORD"

	// Общие ошибки
	CodeNotFound         ErrorCode = "NOT_FOUND"
	CodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	CodeInvalidStatus    ErrorCode = "INVALID_STATUS"
	CodeInvalidOperation ErrorCode = "INVALID_OPERATION"
	CodeLimitExceeded    ErrorCode = "LIMIT_EXCEEDED"
)
