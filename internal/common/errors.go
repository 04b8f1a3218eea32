// Package common — errors.go определяет ошибки, общие для всех модулей.
// Обработчики различают их через errors.Is и отвечают понятным сообщением.
package common

import "errors"

// Ошибки искр и баланса
var (
	// ErrInsufficientSparks — не хватает искр (с учётом резервов)
	ErrInsufficientSparks = errors.New("недостаточно искр")
	// ErrInvalidAmount — сумма или число минут не положительные
	ErrInvalidAmount = errors.New("сумма должна быть положительной")
	// ErrInvalidActivity — некорректные показатели активности
	ErrInvalidActivity = errors.New("некорректные показатели активности")
	// ErrNoActivity — за этот день активности нет
	ErrNoActivity = errors.New("активность за день не найдена")
)

// Ошибки участников
var (
	// ErrUserNotFound — пользователь не найден в базе
	ErrUserNotFound = errors.New("пользователь не найден")
	// ErrNotParent — действие доступно только родителю
	ErrNotParent = errors.New("действие доступно только родителю")
)

// Ошибки магазина и заявок
var (
	// ErrProductNotFound — товар не найден или снят с продажи
	ErrProductNotFound = errors.New("товар не найден")
	// ErrInvalidProduct — пустое название или неположительная цена
	ErrInvalidProduct = errors.New("некорректный товар")
	// ErrAlreadyPending — заявка на этот товар уже ждёт решения
	ErrAlreadyPending = errors.New("заявка на этот товар уже ждёт решения")
	// ErrRequestNotFound — заявка не найдена
	ErrRequestNotFound = errors.New("заявка не найдена")
	// ErrRequestDecided — по заявке уже принято решение
	ErrRequestDecided = errors.New("по заявке уже принято решение")
)

// Ошибки входа родителя
var (
	// ErrWrongPassword — неверный пароль
	ErrWrongPassword = errors.New("неверный пароль")
	// ErrTooManyAttempts — слишком много неудачных попыток входа
	ErrTooManyAttempts = errors.New("слишком много попыток, подождите 1 час")
	// ErrSessionExpired — сессии нет или она истекла
	ErrSessionExpired = errors.New("сессия истекла, авторизуйтесь заново: /login <пароль>")
)

// Ошибки отключённых функций
var (
	// ErrFeatureDisabled — функция отключена в настройках
	ErrFeatureDisabled = errors.New("функция временно отключена")
)
