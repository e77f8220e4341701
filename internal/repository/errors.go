package repository

import "errors"

var ErrNotFound = errors.New("запись не найдена")
var ErrVersionConflict = errors.New("конфликт версий")

// ErrAlreadySent возвращается условным обновлением флага напоминания,
// когда флаг уже выставлен параллельным сканом. Для вызывающего это
// не ошибка, а сигнал "окно уже занято".
var ErrAlreadySent = errors.New("напоминание уже отправлено")

var ErrDuplicate = errors.New("запись уже существует")
