// Package state 保存每次查询的状态，供后续追问使用。
//
// Store 在内存中缓存已见过的状态，持久化由 Persistence 负责（文件、badger 或 postgres）。
// 同一 ID 再次保存会覆盖旧值。
package state

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/logger"
	"github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
)

// ErrNotFound 内存和持久化中都找不到该状态
var ErrNotFound = errors.New("state not found")

// ErrInvalidID id 为空或包含路径成分
var ErrInvalidID = errors.New("invalid state id")

// ValidID id 会被用作文件名，不能为空，也不能含路径分隔符或 ".."
func ValidID(id string) bool {
	return id != "" &&
		!strings.ContainsAny(id, "/\\\x00") &&
		!strings.Contains(id, "..") &&
		filepath.Base(id) == id
}

// Persistence 状态持久化后端
type Persistence interface {
	Save(ctx context.Context, st *model.QueryState) error
	Load(ctx context.Context, id string) (*model.QueryState, error)
	Exists(ctx context.Context, id string) (bool, error)
	Close() error
}

// Store 内存表 + 持久化
type Store struct {
	mu      sync.RWMutex
	states  map[string]*model.QueryState
	persist Persistence
}

// NewStore 创建状态存储
func NewStore(persist Persistence) *Store {
	return &Store{
		states:  make(map[string]*model.QueryState),
		persist: persist,
	}
}

// Put 先写内存再持久化；持久化失败时内存中的状态仍然保留
func (s *Store) Put(ctx context.Context, st *model.QueryState) error {
	if !ValidID(st.ID) {
		return fmt.Errorf("%w: %q", ErrInvalidID, st.ID)
	}
	s.mu.Lock()
	s.states[st.ID] = st
	s.mu.Unlock()

	if err := s.persist.Save(ctx, st); err != nil {
		return fmt.Errorf("persist state %s: %w", st.ID, err)
	}
	logger.Log.Infof("State saved with ID: %s", st.ID)
	return nil
}

// Get 优先读内存，未命中时从持久化加载并缓存
func (s *Store) Get(ctx context.Context, id string) (*model.QueryState, error) {
	if !ValidID(id) {
		logger.Log.Errorf("Rejected state id: %q", id)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.mu.RLock()
	st, ok := s.states[id]
	s.mu.RUnlock()
	if ok {
		return st, nil
	}

	st, err := s.persist.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			logger.Log.Errorf("State not found: %s", id)
			return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return nil, err
	}

	s.mu.Lock()
	s.states[id] = st
	s.mu.Unlock()
	return st, nil
}

// Exists 判断状态是否存在
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if !ValidID(id) {
		return false, nil
	}
	s.mu.RLock()
	_, ok := s.states[id]
	s.mu.RUnlock()
	if ok {
		return true, nil
	}
	return s.persist.Exists(ctx, id)
}

// Close 关闭持久化后端
func (s *Store) Close() error {
	return s.persist.Close()
}
