package inmemory

import (
	"log/slog"
	"sync"

	"github.com/watchparty/server/internal/repository/connection"
)

type repo struct {
	conns  map[string]connection.Conn
	mu     sync.RWMutex
	logger *slog.Logger
}

func NewRepo(logger *slog.Logger) *repo {
	return &repo{
		conns:  make(map[string]connection.Conn),
		logger: logger,
	}
}

func (r *repo) Add(connId string, conn connection.Conn) error {
	funcName := "connection.inmemory.Add"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", connId)
	if _, ok := r.conns[connId]; ok {
		r.logger.Info(funcName, "error", connection.ErrAlreadyExists)
		return connection.ErrAlreadyExists
	}

	r.conns[connId] = conn

	return nil
}

func (r *repo) Remove(connId string) error {
	funcName := "connection.inmemory.Remove"
	r.mu.Lock()
	defer r.mu.Unlock()

	r.logger.Debug(funcName, "conn_id", connId)
	if _, ok := r.conns[connId]; !ok {
		r.logger.Info(funcName, "error", connection.ErrNotFound)
		return connection.ErrNotFound
	}

	delete(r.conns, connId)

	return nil
}

func (r *repo) Get(connId string) (connection.Conn, error) {
	funcName := "connection.inmemory.Get"
	r.mu.RLock()
	defer r.mu.RUnlock()

	conn, ok := r.conns[connId]
	if !ok {
		r.logger.Debug(funcName, "conn_id", connId, "error", connection.ErrNotFound)
		return nil, connection.ErrNotFound
	}

	return conn, nil
}

func (r *repo) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.conns)
}
