package repository

import (
	"database/sql"
	"errors"
	"reflect"

	"taskmanagement/internal/adapter/database"
	"taskmanagement/internal/core/port"
	tel "taskmanagement/internal/core/telemetry"
)

// UnitOfWork scopes one persistence session and hands out at most one
// repository per entity type. It lives for a single request and is not
// safe for concurrent use.
type UnitOfWork struct {
	session      *database.Session
	telemetry    port.Telemetry
	repositories map[reflect.Type]any
}

func NewUnitOfWork(db *database.DB, telemetry port.Telemetry) *UnitOfWork {
	if telemetry == nil {
		telemetry = tel.NewNoOpProbe()
	}

	return &UnitOfWork{
		session:      database.NewSession(db),
		telemetry:    telemetry,
		repositories: make(map[reflect.Type]any),
	}
}

func (u *UnitOfWork) Session() *database.Session {
	return u.session
}

// Len reports how many repositories have been built so far.
func (u *UnitOfWork) Len() int {
	return len(u.repositories)
}

// GetRepository returns the repository for T, building and caching it on
// first use. Later calls on the same unit of work return that instance.
func GetRepository[T port.Entity](uow *UnitOfWork) port.Repository[T] {
	key := reflect.TypeFor[T]()

	if existing, ok := uow.repositories[key]; ok {
		return existing.(port.Repository[T])
	}

	repo := NewRepository[T](uow.session, uow.telemetry)
	uow.repositories[key] = repo

	return repo
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}
