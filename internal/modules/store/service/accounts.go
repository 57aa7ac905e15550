package service

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"github.com/prokazin/telegram-trading/internal/models"
)

// Accounts — файловый стор аккаунтов и кэша рейтинга. Каждая мутация
// синхронно сбрасывается на диск (атомарно, через tmp+rename), поэтому
// завершённое закрытие сделки не теряется между тиками.
type Accounts struct {
	path string

	mu     sync.Mutex
	cache  map[int64]*models.Account
	board  []models.BoardRow // последний снапшот рейтинга
	loaded bool
}

func NewAccounts(path string) *Accounts {
	return &Accounts{
		path:  path,
		cache: make(map[int64]*models.Account),
	}
}

func (a *Accounts) Get(ctx context.Context, userID int64) (acc *models.Account, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "Accounts.Get")
		}
	}()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err = a.loadLocked(); err != nil {
		return nil, err
	}
	v, ok := a.cache[userID]
	if !ok {
		return nil, nil
	}
	return cloneAccount(v), nil
}

func (a *Accounts) Save(ctx context.Context, acc *models.Account) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "Accounts.Save")
		}
	}()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err = a.loadLocked(); err != nil {
		return err
	}
	a.cache[acc.UserID] = cloneAccount(acc)
	return a.saveLocked()
}

func (a *Accounts) List(ctx context.Context) (out []*models.Account, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "Accounts.List")
		}
	}()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err = a.loadLocked(); err != nil {
		return nil, err
	}
	out = make([]*models.Account, 0, len(a.cache))
	for _, v := range a.cache {
		out = append(out, cloneAccount(v))
	}
	return out, nil
}

// SaveBoard сохраняет снапшот рейтинга (локальный фолбэк на офлайн).
func (a *Accounts) SaveBoard(ctx context.Context, board []models.BoardRow) (err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "Accounts.SaveBoard")
		}
	}()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err = a.loadLocked(); err != nil {
		return err
	}
	a.board = append([]models.BoardRow(nil), board...)
	return a.saveLocked()
}

func (a *Accounts) Board(ctx context.Context) (out []models.BoardRow, err error) {
	defer func() {
		if err != nil {
			err = errors.Wrap(err, "Accounts.Board")
		}
	}()

	a.mu.Lock()
	defer a.mu.Unlock()

	if err = a.loadLocked(); err != nil {
		return nil, err
	}
	return append([]models.BoardRow(nil), a.board...), nil
}

// ---- storage format ----

type snapshot struct {
	UpdatedAt time.Time         `json:"updated_at"`
	Accounts  []*models.Account `json:"accounts"`
	Board     []models.BoardRow `json:"board,omitempty"`
}

func (a *Accounts) loadLocked() error {
	if a.loaded {
		return nil
	}

	b, err := os.ReadFile(a.path)
	if err != nil {
		if os.IsNotExist(err) {
			a.loaded = true
			return nil
		}
		return errors.Wrapf(err, "read %s", a.path)
	}

	var snap snapshot
	if err := sonic.Unmarshal(b, &snap); err != nil {
		return errors.Wrapf(err, "decode %s", a.path)
	}

	a.cache = make(map[int64]*models.Account, len(snap.Accounts))
	for _, acc := range snap.Accounts {
		if acc == nil {
			continue
		}
		a.cache[acc.UserID] = cloneAccount(acc)
	}
	a.board = snap.Board

	a.loaded = true
	return nil
}

func (a *Accounts) saveLocked() error {
	dir := filepath.Dir(a.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	accounts := make([]*models.Account, 0, len(a.cache))
	for _, v := range a.cache {
		accounts = append(accounts, cloneAccount(v))
	}

	snap := snapshot{
		UpdatedAt: time.Now(),
		Accounts:  accounts,
		Board:     a.board,
	}

	b, err := sonic.Marshal(&snap)
	if err != nil {
		return err
	}

	tmp := a.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, a.path) // атомарно
}

// clone чтобы никто извне не мутировал shared ptr
func cloneAccount(in *models.Account) *models.Account {
	if in == nil {
		return nil
	}
	b, _ := sonic.Marshal(in)
	var out models.Account
	_ = sonic.Unmarshal(b, &out)
	return &out
}
