package apperrors

/*
Фабрики для доменных ошибок подсистемы синхронизации чата.
Один домен на компонент: connection, history, send, upload, wire.
*/

// NewConnectionError - транспорт не смог (пере)подключиться.
// Recoverable только через новый Open.
func NewConnectionError(err error, message string) *AppError {
	return Wrap(err, CodeConnectionFailed, "connection", message)
}

// NewHistoryLoadError - загрузка истории диалога не удалась.
// Store при этом остается пустым (all-or-nothing).
func NewHistoryLoadError(err error, conversationID string) *AppError {
	return Wrap(err, CodeHistoryLoadFailed, "history", "failed to load history for conversation "+conversationID)
}

// NewSendFailure - сеть/сервер отклонили отправку; сообщение помечается
// failed и сохраняется для повтора.
func NewSendFailure(err error, message string) *AppError {
	return Wrap(err, CodeSendFailed, "send", message)
}

// NewUploadFailure - загрузка вложения не удалась; для внешнего сообщения
// это эквивалент SendFailure.
func NewUploadFailure(err error, message string) *AppError {
	return Wrap(err, CodeUploadFailed, "upload", message)
}

// ErrInvalidOperation - фабрика для невалидных операций
func ErrInvalidOperation(domain, message string) *AppError {
	return New(CodeInvalidOperation, domain, message)
}

// ErrLimitExceeded - превышение лимита (размер файла и т.п.)
func ErrLimitExceeded(domain, message string) *AppError {
	return New(CodeLimitExceeded, domain, message)
}

// InternalError оборачивает неизвестную системную ошибку
func InternalError(err error) *AppError {
	return Wrap(err, CodeInternalError, "system", "internal error")
}

// ValidationError создает ошибку валидации
func ValidationError(domain, message string) *AppError {
	return New(CodeValidationFailed, domain, message)
}
