package validator

import (
	"log"
	"strings"

	"github.com/go-playground/validator/v10"
)

// registerCustomRules регистрирует все кастомные функции валидации в
// переданном экземпляре валидатора.
func registerCustomRules(v *validator.Validate) {
	mustRegister := func(tag string, fn validator.Func) {
		if err := v.RegisterValidation(tag, fn); err != nil {
			// Ошибка регистрации правила — ошибка времени запуска.
			log.Fatalf("failed to register custom validation tag '%s': %v", tag, err)
		}
	}

	// 'is-ws-url': адрес канала реального времени
	mustRegister("is-ws-url", validateWSURL)

	// 'is-mime-type': элементы upload.allowed_types
	mustRegister("is-mime-type", validateMimeType)
}

func validateWSURL(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true // пустые значения проверяет 'required'
	}
	return strings.HasPrefix(value, "ws://") || strings.HasPrefix(value, "wss://")
}

func validateMimeType(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	parts := strings.Split(value, "/")
	return len(parts) == 2 && parts[0] != "" && parts[1] != ""
}
