// Package apperr описывает классы ошибок конвейера распознавания.
package apperr

import (
	stderrs "errors"
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// Kind класс ошибки
type Kind uint8

const (
	KindUnknown         Kind = iota
	KindInput                // некорректная или пустая ссылка на изображение
	KindRemoteService        // хранилище или детектор недоступны
	KindBackendContract      // детектор вернул данные не по контракту
	KindPersistence          // не удалось сохранить сводку
	KindNotFound             // детектор не создал файл меток
	KindMessageContent       // не удалось получить содержимое сообщения
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindRemoteService:
		return "remote_service"
	case KindBackendContract:
		return "backend_contract"
	case KindPersistence:
		return "persistence"
	case KindNotFound:
		return "not_found"
	case KindMessageContent:
		return "message_content"
	default:
		return "unknown"
	}
}

// Error ошибка с классом и необязательной причиной
type Error struct {
	kind Kind
	msg  string
	orig error
}

// New создаёт ошибку без причины.
func New(kind Kind, msg string) error {
	return &Error{kind: kind, msg: msg}
}

// Newf создаёт ошибку с форматированным сообщением.
func Newf(kind Kind, format string, args ...any) error {
	return &Error{kind: kind, msg: fmt.Sprintf(format, args...)}
}

// Wrap оборачивает причину и присваивает ей класс. Стек снимается один раз.
func Wrap(kind Kind, err error, msg string) error {
	if err == nil {
		return nil
	}
	if _, ok := As(err); !ok {
		err = errors.WithStack(err)
	}
	return &Error{kind: kind, msg: msg, orig: err}
}

// WrapDefault как Wrap, но сохраняет класс, если причина уже классифицирована.
func WrapDefault(kind Kind, err error, msg string) error {
	if e, ok := As(err); ok && e.kind != KindUnknown {
		kind = e.kind
	}
	return Wrap(kind, err, msg)
}

func (e *Error) Error() string {
	if e.orig != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.orig)
	}
	return e.msg
}

func (e *Error) Unwrap() error { return e.orig }

// Kind возвращает класс ошибки
func (e *Error) Kind() Kind { return e.kind }

// Message возвращает сообщение без причины
func (e *Error) Message() string { return e.msg }

// As возвращает ближайшую *Error в цепочке.
func As(err error) (*Error, bool) {
	var e *Error
	if stderrs.As(err, &e) {
		return e, true
	}
	return nil, false
}

// KindOf возвращает класс ошибки, KindUnknown для чужих ошибок.
func KindOf(err error) Kind {
	if e, ok := As(err); ok {
		return e.kind
	}
	return KindUnknown
}

// Is сообщает, относится ли err к классу kind.
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// HTTPStatus сопоставляет класс ошибки с HTTP-статусом.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindInput:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRemoteService, KindBackendContract:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
