// Package secret реализует подготовку секрета абонента к записи в check-строку.
//
// По умолчанию секрет хранится открытым текстом (Cleartext-Password), как
// того требует большинство методов аутентификации RADIUS. Для инсталляций,
// где AAA-сервер поддерживает crypt-хеши, доступен формат bcrypt:
// секрет хешируется и сохраняется в атрибуте Crypt-Password.
package secret

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Format формат хранения секрета.
type Format string

const (
	// FormatCleartext открытый текст, атрибут Cleartext-Password.
	FormatCleartext Format = "cleartext"
	// FormatBcrypt bcrypt-хеш, атрибут Crypt-Password.
	FormatBcrypt Format = "bcrypt"
)

// ParseFormat разбирает формат из конфига.
func ParseFormat(name string) (Format, error) {
	switch Format(name) {
	case FormatCleartext, "":
		return FormatCleartext, nil
	case FormatBcrypt:
		return FormatBcrypt, nil
	default:
		return FormatCleartext, fmt.Errorf("unknown secret format: %q", name)
	}
}

// Attribute возвращает имя check-атрибута для формата.
func (f Format) Attribute() string {
	if f == FormatBcrypt {
		return "Crypt-Password"
	}
	return "Cleartext-Password"
}

// Encode возвращает значение check-строки для секрета.
func (f Format) Encode(secret string) (string, error) {
	const op = "secret.Encode"
	if f != FormatBcrypt {
		return secret, nil
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return string(hashed), nil
}
