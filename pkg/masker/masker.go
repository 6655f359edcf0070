package masker

import (
	"errors"
	"net/url"
	"reflect"

	"go.uber.org/zap"
)

var ErrConfigNotPointer = errors.New("config must be a pointer to struct")

// LogConfigs логгирует структуры, в том числе вложенные.
// Тег masked:"true" маскирует значение целиком, masked:"uri" маскирует только пароль в URI.
// Каждая структура логируется отдельной строкой.
func LogConfigs(logger *zap.Logger, configs ...interface{}) error {
	for _, config := range configs {
		v := reflect.ValueOf(config)
		t := reflect.TypeOf(config)

		if v.Kind() != reflect.Ptr {
			return ErrConfigNotPointer
		}
		v = v.Elem()
		t = t.Elem()

		logger.Info("Config", zap.Any(t.Name(), maskStructFields(v, t)))
	}
	return nil
}

// maskStructFields маскирует поля структуры, если они отмечены тегом masked
func maskStructFields(v reflect.Value, t reflect.Type) map[string]interface{} {
	result := make(map[string]interface{})
	for i := 0; i < v.NumField(); i++ {
		field := v.Field(i)
		fieldType := t.Field(i)
		if !fieldType.IsExported() {
			continue
		}

		switch field.Kind() {
		case reflect.Struct:
			result[fieldType.Name] = maskStructFields(field, field.Type())

		case reflect.String:
			switch fieldType.Tag.Get("masked") {
			case "true":
				result[fieldType.Name] = maskSensitiveData(field.String())
			case "uri":
				result[fieldType.Name] = maskURI(field.String())
			default:
				result[fieldType.Name] = field.String()
			}

		default:
			result[fieldType.Name] = field.Interface()
		}
	}
	return result
}

// maskSensitiveData маскирует строку, оставляя только первый и последний символы.
// Если строка короче 3 символов, то возвращается "****".
func maskSensitiveData(data string) string {
	if len(data) <= 2 {
		return "****"
	}
	return string(data[0]) + "****" + string(data[len(data)-1])
}

// maskURI скрывает пароль в строке подключения, хост и база остаются видны.
// Нераспознанная строка маскируется целиком.
func maskURI(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" {
		return maskSensitiveData(raw)
	}
	return u.Redacted()
}
