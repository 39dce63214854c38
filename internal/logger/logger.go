package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New строит логгер для указанного окружения.
// env: "development" или "production"
func New(env string) (*zap.Logger, error) {
	if env == "development" {
		// Development: читаемый консольный формат, уровень debug
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg.Build()
	}

	// Production: JSON формат для парсинга
	return zap.NewProduction()
}

// Must — как New, но паникует при ошибке. Для main.
func Must(env string) *zap.Logger {
	log, err := New(env)
	if err != nil {
		panic(err)
	}
	return log
}
