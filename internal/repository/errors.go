package repository

import "errors"

var (
	ErrNotFound         = errors.New("запись не найдена")
	ErrTransport        = errors.New("хранилище недоступно")
	ErrInvalidReference = errors.New("ссылка на несуществующую категорию или подкатегорию")
	ErrUnknownField     = errors.New("неизвестное поле хранилища")
)
