package sqlitestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/unkn0wn-root/spillcache"
	"github.com/unkn0wn-root/spillcache/codec"
)

// work runs on the worker goroutine with exclusive use of conn.
type work func(ctx context.Context, conn *sql.Conn) (any, error)

// reply is what a waiting caller receives; ok is false when the unit faulted.
type reply struct {
	v  any
	ok bool
}

// request is one queued unit of work. A nil fn is the close sentinel.
// done is nil for write-behind units.
type request struct {
	op   string
	id   uuid.UUID
	key  string
	fn   work
	done chan reply
}

// Store is the durable spillcache.Store backed by a SQLite file.
type Store struct {
	path  string
	codec codec.Codec[any]
	log   spillcache.Logger
	hooks spillcache.Hooks

	queue chan request

	// mu guards closed; enqueuers hold it shared so Close cannot slip the
	// sentinel in front of a send already in progress.
	mu     sync.RWMutex
	closed bool

	exited   chan struct{}
	closeErr error
}

var _ spillcache.Store = (*Store)(nil)

// Open starts the worker and waits until it has opened path and created the
// schema. An initialization failure is returned and no worker is left running.
func Open(opts Options) (*Store, error) {
	if err := opts.validate(); err != nil {
		return nil, err
	}
	if err := makeDirIfNeeded(cacheDir(opts.Path)); err != nil {
		return nil, err
	}

	s := &Store{
		path:   opts.Path,
		codec:  opts.Codec,
		log:    opts.Logger,
		hooks:  opts.Hooks,
		exited: make(chan struct{}),
	}
	if s.codec == nil {
		s.codec = codec.Default()
	}
	if s.log == nil {
		s.log = spillcache.NopLogger{}
	}
	if s.hooks == nil {
		s.hooks = spillcache.NopHooks{}
	}
	qlen := opts.QueueLen
	if qlen == 0 {
		qlen = defaultQueueLen
	}
	s.queue = make(chan request, qlen)

	started := make(chan error, 1)
	go s.run(opts.Synchronous, started)
	if err := <-started; err != nil {
		return nil, err
	}
	s.log.Info("cache store opened", spillcache.Fields{"path": s.path})
	return s, nil
}

func (s *Store) Path() string { return s.path }

func (s *Store) run(synchronous bool, started chan<- error) {
	defer close(s.exited)
	ctx := context.Background()

	db, conn, err := connect(ctx, s.path, synchronous)
	if err != nil {
		started <- fmt.Errorf("sqlitestore: open %s: %w", s.path, err)
		return
	}
	started <- nil

	for {
		req := <-s.queue
		if req.fn == nil {
			break
		}
		s.execute(ctx, conn, req)
	}

	s.closeErr = errors.Join(conn.Close(), db.Close())
}

func connect(ctx context.Context, path string, synchronous bool) (*sql.DB, *sql.Conn, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, nil, err
	}
	db.SetMaxOpenConns(1)
	conn, err := db.Conn(ctx)
	if err != nil {
		_ = db.Close()
		return nil, nil, err
	}
	init := []string{createTable}
	if !synchronous {
		init = append([]string{pragmaSyncOff}, init...)
	}
	for _, stmt := range init {
		if _, err := conn.ExecContext(ctx, stmt); err != nil {
			_ = conn.Close()
			_ = db.Close()
			return nil, nil, err
		}
	}
	return db, conn, nil
}

// execute runs one unit. A failing or panicking unit is reported and the
// waiting caller, if any, is still answered.
func (s *Store) execute(ctx context.Context, conn *sql.Conn, req request) {
	var rep reply
	defer func() {
		if r := recover(); r != nil {
			s.fault(req, fmt.Errorf("panic: %v", r))
		}
		if req.done != nil {
			req.done <- rep
		}
	}()
	v, err := req.fn(ctx, conn)
	if err != nil {
		s.fault(req, err)
		return
	}
	rep = reply{v: v, ok: true}
}

func (s *Store) fault(req request, err error) {
	oe := &spillcache.OpError{Op: req.op, ID: req.id, Key: req.key, Err: err}
	s.hooks.WorkerFault(req.op, oe)
	s.log.Error("cache store unit failed", spillcache.Fields{
		"op":  req.op,
		"id":  req.id.String(),
		"key": req.key,
		"err": err,
	})
}

// enqueue hands req to the worker; false when the store is closed.
func (s *Store) enqueue(req request) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		s.hooks.StoreClosed(req.op)
		s.log.Warn("call on closed store dropped", spillcache.Fields{"op": req.op, "key": req.key})
		return false
	}
	s.queue <- req
	return true
}

// call enqueues req and blocks until the worker answers it.
func (s *Store) call(req request) (any, bool) {
	req.done = make(chan reply, 1)
	if !s.enqueue(req) {
		return nil, false
	}
	rep := <-req.done
	return rep.v, rep.ok
}

func (s *Store) Set(id uuid.UUID, key string, value any, dirty bool) {
	blob, err := s.codec.Encode(value)
	if err != nil {
		s.fault(request{op: "set", id: id, key: key}, err)
		return
	}
	ident := id.String()
	s.enqueue(request{op: "set", id: id, key: key, fn: func(ctx context.Context, conn *sql.Conn) (any, error) {
		_, err := conn.ExecContext(ctx, upsertValue, ident, key, blob, boolToInt(dirty))
		return nil, err
	}})
}

func (s *Store) Get(id uuid.UUID, key string, def any) any {
	ident := id.String()
	v, ok := s.call(request{op: "get", id: id, key: key, fn: func(ctx context.Context, conn *sql.Conn) (any, error) {
		var blob []byte
		err := conn.QueryRowContext(ctx, selectValue, ident, key).Scan(&blob)
		if errors.Is(err, sql.ErrNoRows) {
			return def, nil
		}
		if err != nil {
			return nil, err
		}
		return s.codec.Decode(blob)
	}})
	if !ok {
		return def
	}
	return v
}

func (s *Store) Remove(id uuid.UUID, key string) {
	ident := id.String()
	s.enqueue(request{op: "remove", id: id, key: key, fn: func(ctx context.Context, conn *sql.Conn) (any, error) {
		_, err := conn.ExecContext(ctx, deleteValue, ident, key)
		return nil, err
	}})
}

func (s *Store) IsDirty(id uuid.UUID, key string) bool {
	ident := id.String()
	v, ok := s.call(request{op: "is_dirty", id: id, key: key, fn: func(ctx context.Context, conn *sql.Conn) (any, error) {
		var dirty int64
		err := conn.QueryRowContext(ctx, selectDirty, ident, key).Scan(&dirty)
		if errors.Is(err, sql.ErrNoRows) {
			return true, nil
		}
		if err != nil {
			return nil, err
		}
		return dirty != 0, nil
	}})
	if !ok {
		return true
	}
	return v.(bool)
}

func (s *Store) SetDirty(id uuid.UUID, key string, dirty bool) {
	ident := id.String()
	s.enqueue(request{op: "set_dirty", id: id, key: key, fn: func(ctx context.Context, conn *sql.Conn) (any, error) {
		_, err := conn.ExecContext(ctx, updateDirty, boolToInt(dirty), ident, key)
		return nil, err
	}})
}

// Flush blocks until every unit queued before it has been applied.
func (s *Store) Flush() {
	s.call(request{op: "flush", fn: func(context.Context, *sql.Conn) (any, error) {
		return nil, nil
	}})
}

// Close queues the sentinel, waits for the worker to drain everything queued
// before it, close the database and exit. The store is unusable afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return spillcache.ErrClosed
	}
	s.closed = true
	s.queue <- request{op: "close"}
	s.mu.Unlock()

	<-s.exited
	s.log.Debug("cache store closed", spillcache.Fields{"path": s.path})
	return s.closeErr
}
