// Package badgerdb implements the avalanchego database interface on top of
// badger.
package badgerdb

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/ava-labs/avalanchego/database"
	"github.com/ava-labs/avalanchego/utils/logging"
	"github.com/dgraph-io/badger/v3"
)

const Name = "badgerdb"

var (
	_ database.Database = (*Database)(nil)
	_ database.Batch    = (*batch)(nil)
	_ database.Iterator = (*iterator)(nil)
)

type Database struct {
	lock   sync.RWMutex
	db     *badger.DB
	closed bool
}

// New opens or creates a badger database in dir. An empty dir keeps the
// database in memory.
func New(dir string, log logging.Logger) (*Database, error) {
	opts := badger.DefaultOptions(dir).WithLogger(badgerLogger{log: log})
	if dir == "" {
		opts = opts.WithInMemory(true)
	}
	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("could not open badger at %q: %w", dir, err)
	}
	return &Database{db: db}, nil
}

func (d *Database) Has(key []byte) (bool, error) {
	_, err := d.Get(key)
	if errors.Is(err, database.ErrNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (d *Database) Get(key []byte) ([]byte, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.closed {
		return nil, database.ErrClosed
	}
	txn := d.db.NewTransaction(false)
	defer txn.Discard()

	item, err := txn.Get(key)
	if err == badger.ErrKeyNotFound {
		return nil, database.ErrNotFound
	} else if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func (d *Database) Put(key []byte, value []byte) error {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.closed {
		return database.ErrClosed
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Set(bytes.Clone(key), bytes.Clone(value))
	})
}

func (d *Database) Delete(key []byte) error {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.closed {
		return database.ErrClosed
	}
	return d.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(bytes.Clone(key))
	})
}

func (d *Database) NewBatch() database.Batch {
	return &batch{db: d}
}

func (d *Database) NewIterator() database.Iterator {
	return d.NewIteratorWithStartAndPrefix(nil, nil)
}

func (d *Database) NewIteratorWithStart(start []byte) database.Iterator {
	return d.NewIteratorWithStartAndPrefix(start, nil)
}

func (d *Database) NewIteratorWithPrefix(prefix []byte) database.Iterator {
	return d.NewIteratorWithStartAndPrefix(nil, prefix)
}

// NewIteratorWithStartAndPrefix iterates over a read snapshot taken when the
// iterator is created. Writes made afterwards are not observed.
func (d *Database) NewIteratorWithStartAndPrefix(start, prefix []byte) database.Iterator {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.closed {
		return &database.IteratorError{Err: database.ErrClosed}
	}
	txn := d.db.NewTransaction(false)
	opts := badger.DefaultIteratorOptions
	opts.Prefix = bytes.Clone(prefix)
	it := txn.NewIterator(opts)

	seek := start
	if bytes.Compare(seek, prefix) < 0 {
		seek = prefix
	}
	it.Seek(seek)
	return &iterator{db: d, txn: txn, it: it}
}

// Compact flattens the LSM tree. The range arguments are ignored since badger
// only compacts whole levels.
func (d *Database) Compact(_ []byte, _ []byte) error {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.closed {
		return database.ErrClosed
	}
	return d.db.Flatten(1)
}

func (d *Database) Close() error {
	d.lock.Lock()
	defer d.lock.Unlock()

	if d.closed {
		return database.ErrClosed
	}
	d.closed = true
	return d.db.Close()
}

func (d *Database) HealthCheck(context.Context) (interface{}, error) {
	d.lock.RLock()
	defer d.lock.RUnlock()

	if d.closed {
		return nil, database.ErrClosed
	}
	return nil, nil
}

func (d *Database) isClosed() bool {
	d.lock.RLock()
	defer d.lock.RUnlock()
	return d.closed
}

type batch struct {
	database.BatchOps

	db *Database
}

// Write applies every queued operation in one badger write batch.
func (b *batch) Write() error {
	b.db.lock.RLock()
	defer b.db.lock.RUnlock()

	if b.db.closed {
		return database.ErrClosed
	}
	wb := b.db.db.NewWriteBatch()
	for _, op := range b.Ops {
		var err error
		if op.Delete {
			err = wb.Delete(bytes.Clone(op.Key))
		} else {
			err = wb.Set(bytes.Clone(op.Key), bytes.Clone(op.Value))
		}
		if err != nil {
			wb.Cancel()
			return err
		}
	}
	return wb.Flush()
}

func (b *batch) Inner() database.Batch {
	return b
}

type iterator struct {
	db  *Database
	txn *badger.Txn
	it  *badger.Iterator

	started bool
	key     []byte
	value   []byte
	err     error
	done    bool
}

func (i *iterator) Next() bool {
	if i.done {
		return false
	}
	if i.db.isClosed() {
		i.err = database.ErrClosed
		i.release()
		return false
	}
	if i.started {
		i.it.Next()
	}
	i.started = true
	if !i.it.Valid() {
		i.release()
		return false
	}
	item := i.it.Item()
	i.key = item.KeyCopy(nil)
	i.value, i.err = item.ValueCopy(nil)
	if i.err != nil {
		i.release()
		return false
	}
	return true
}

func (i *iterator) Error() error {
	return i.err
}

func (i *iterator) Key() []byte {
	return i.key
}

func (i *iterator) Value() []byte {
	return i.value
}

func (i *iterator) Release() {
	i.release()
}

func (i *iterator) release() {
	if i.done {
		return
	}
	i.done = true
	i.key = nil
	i.value = nil
	i.it.Close()
	i.txn.Discard()
}

// badgerLogger routes badger's printf style logging into the node logger.
type badgerLogger struct {
	log logging.Logger
}

func (l badgerLogger) Errorf(format string, args ...interface{}) {
	l.log.Error(trimf(format, args...))
}

func (l badgerLogger) Warningf(format string, args ...interface{}) {
	l.log.Warn(trimf(format, args...))
}

func (l badgerLogger) Infof(format string, args ...interface{}) {
	l.log.Debug(trimf(format, args...))
}

func (l badgerLogger) Debugf(format string, args ...interface{}) {
	l.log.Verbo(trimf(format, args...))
}

func trimf(format string, args ...interface{}) string {
	return strings.TrimSpace(fmt.Sprintf(format, args...))
}
