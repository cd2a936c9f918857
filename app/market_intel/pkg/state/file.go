package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/iWorld-y/market_intel/app/market_intel/pkg/model"
)

// FilePersistence 每个状态一个 <dir>/<id>.json 文件
type FilePersistence struct {
	dir string
}

// NewFilePersistence 目录不存在时自动创建
func NewFilePersistence(dir string) (*FilePersistence, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create state dir: %w", err)
	}
	return &FilePersistence{dir: dir}, nil
}

func (f *FilePersistence) path(id string) (string, error) {
	if !ValidID(id) {
		return "", fmt.Errorf("%w: %q", ErrInvalidID, id)
	}
	return filepath.Join(f.dir, id+".json"), nil
}

// Save 先写临时文件再 rename，同名文件直接覆盖
func (f *FilePersistence) Save(_ context.Context, st *model.QueryState) error {
	path, err := f.path(st.ID)
	if err != nil {
		return err
	}
	data, err := encode(st)
	if err != nil {
		return err
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("rename state: %w", err)
	}
	return nil
}

func (f *FilePersistence) Load(_ context.Context, id string) (*model.QueryState, error) {
	path, err := f.path(id)
	if err != nil {
		return nil, ErrNotFound
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decode(id, data)
}

func (f *FilePersistence) Exists(_ context.Context, id string) (bool, error) {
	path, err := f.path(id)
	if err != nil {
		return false, nil
	}
	_, err = os.Stat(path)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	return false, err
}

func (f *FilePersistence) Close() error { return nil }

func encode(st *model.QueryState) ([]byte, error) {
	data, err := json.Marshal(st)
	if err != nil {
		return nil, fmt.Errorf("marshal state: %w", err)
	}
	return data, nil
}

// decode 解析状态 JSON，旧文件没有 state_id 字段时用 id 补齐
func decode(id string, data []byte) (*model.QueryState, error) {
	var st model.QueryState
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("decode state %s: %w", id, err)
	}
	if st.ID == "" {
		st.ID = id
	}
	if st.SearchResults == nil {
		st.SearchResults = []string{}
	}
	return &st, nil
}
