package state

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/logger"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
)

const badgerKeyPrefix = "state:"

// BadgerPersistence 使用 badger 嵌入式 KV 保存状态
type BadgerPersistence struct {
	db *badger.DB
}

// OpenBadger dir 为空时使用内存模式
func OpenBadger(dir string) (*BadgerPersistence, error) {
	var opts badger.Options
	if dir == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(dir)
	}
	opts.Logger = logger.Log
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &BadgerPersistence{db: db}, nil
}

func badgerKey(id string) []byte {
	return []byte(badgerKeyPrefix + id)
}

func (b *BadgerPersistence) Save(_ context.Context, st *model.QueryState) error {
	data, err := encode(st)
	if err != nil {
		return err
	}
	return b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(badgerKey(st.ID), data)
	})
}

func (b *BadgerPersistence) Load(_ context.Context, id string) (*model.QueryState, error) {
	var data []byte
	err := b.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(badgerKey(id))
		if err != nil {
			return err
		}
		data, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decode(id, data)
}

func (b *BadgerPersistence) Exists(_ context.Context, id string) (bool, error) {
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(badgerKey(id))
		return err
	})
	if err == nil {
		return true, nil
	}
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	return false, err
}

func (b *BadgerPersistence) Close() error {
	return b.db.Close()
}
