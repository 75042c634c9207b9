// Package models содержит доменные структуры, описывающие абонента RADIUS,
// а также вспомогательные типы для работы с данными из внешних источников (например, JSON-запросы).
package models

// Subscriber представляет собой каноническое описание абонента,
// восстановленное из строк radcheck/radreply.
// Поля Upload/Download хранят человекочитаемые токены скорости ("50M", "1G"),
// Plan — имя пула адресов (Framed-Pool), пустая строка означает отсутствие пула.
type Subscriber struct {
	Username string `json:"username"`       // Логин абонента
	Secret   string `json:"password"`       // Секрет аутентификации (значение check-строки)
	Upload   string `json:"bandwidth_up"`   // Скорость отдачи
	Download string `json:"bandwidth_down"` // Скорость загрузки
	Plan     string `json:"plan"`           // Пул адресов / тарифный план
}

// CreateSubscriberRequest используется для приёма данных из JSON-запроса
// на создание абонента. Все четыре обязательных поля проверяются валидатором
// до открытия транзакции.
type CreateSubscriberRequest struct {
	Username string `json:"username" validate:"required"`       // Логин
	Password string `json:"password" validate:"required"`       // Секрет
	Upload   string `json:"bandwidth_up" validate:"required"`   // Скорость отдачи
	Download string `json:"bandwidth_down" validate:"required"` // Скорость загрузки
	Plan     string `json:"plan"`                               // Пул адресов (опционально)
}

// UpdateSubscriberRequest используется для частичного обновления абонента.
// Отсутствующее поле (nil) оставляет сохранённое значение нетронутым;
// для Plan пустая строка отличается от отсутствия — она очищает пул.
type UpdateSubscriberRequest struct {
	Password *string `json:"password"`       // Новый секрет, nil — не менять
	Upload   *string `json:"bandwidth_up"`   // Скорость отдачи, применяется только в паре с Download
	Download *string `json:"bandwidth_down"` // Скорость загрузки
	Plan     *string `json:"plan"`           // Пул адресов, "" — очистить
}

// Pagination описывает параметры и итог постраничной выборки.
type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}
