package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/Freeeeeet/appointment_bot/internal/model"
	"go.uber.org/zap"
)

// FileStore хранит все записи в одном JSON-файле
type FileStore struct {
	path   string
	logger *zap.Logger

	mu sync.Mutex // сериализует циклы загрузка-изменение-сохранение
}

// NewFileStore создаёт файловое хранилище
func NewFileStore(path string, logger *zap.Logger) *FileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileStore{path: path, logger: logger}
}

// Path путь к файлу
func (s *FileStore) Path() string {
	return s.path
}

// Load читает файл. Отсутствующий, нечитаемый или повреждённый файл даёт пустое состояние.
// Нечитаемый файл при следующем Save будет перезаписан.
func (s *FileStore) Load(ctx context.Context) (model.Bookings, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.load()
}

// Save атомарно заменяет файл
func (s *FileStore) Save(ctx context.Context, bookings model.Bookings) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.save(bookings)
}

// Update перечитывает файл, применяет fn и сохраняет результат под одной блокировкой
func (s *FileStore) Update(ctx context.Context, fn UpdateFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bookings, err := s.load()
	if err != nil {
		return err
	}

	changed, err := fn(bookings)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	return s.save(bookings)
}

func (s *FileStore) load() (model.Bookings, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return model.Bookings{}, nil
		}
		s.logger.Warn("Bookings file is unreadable, starting from empty state",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return model.Bookings{}, nil
	}

	bookings := model.Bookings{}
	if err := json.Unmarshal(data, &bookings); err != nil {
		s.logger.Warn("Bookings file is malformed, starting from empty state",
			zap.String("path", s.path),
			zap.Error(err),
		)
		return model.Bookings{}, nil
	}

	// "null" и пустые значения по ключам
	if bookings == nil {
		bookings = model.Bookings{}
	}
	for id, b := range bookings {
		if b == nil {
			delete(bookings, id)
		}
	}

	return bookings, nil
}

func (s *FileStore) save(bookings model.Bookings) error {
	if bookings == nil {
		bookings = model.Bookings{}
	}

	data, err := json.MarshalIndent(bookings, "", "  ")
	if err != nil {
		return fmt.Errorf("encode bookings: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create bookings dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(s.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	// при любой ошибке временный файл не должен остаться рядом с основным
	ok := false
	defer func() {
		if !ok {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	if _, err := tmp.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replace bookings file: %w", err)
	}
	ok = true

	s.logger.Debug("Bookings saved", zap.String("path", s.path), zap.Int("records", len(bookings)))
	return nil
}
