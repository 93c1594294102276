package collab

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shaiso/Conveyor/internal/dispatch"
	"github.com/shaiso/Conveyor/internal/domain"
)

// FileDispatcher выполняет шаги типа file_operation: чтение, запись,
// добавление и удаление файлов внутри корневой директории.
//
// Пути за пределами корня отклоняются.
type FileDispatcher struct {
	root string
}

// NewFileDispatcher создаёт dispatcher с корнем root.
func NewFileDispatcher(root string) *FileDispatcher {
	return &FileDispatcher{root: root}
}

// Kind реализует dispatch.Dispatcher.
func (d *FileDispatcher) Kind() domain.StepKind { return domain.KindFileOperation }

// Dispatch выполняет операцию params["operation"] над params["path"].
// Операции: read, write, append, delete, list.
func (d *FileDispatcher) Dispatch(_ context.Context, params map[string]any) (any, error) {
	op, _ := params["operation"].(string)
	relPath, _ := params["path"].(string)
	if op == "" || relPath == "" {
		return nil, dispatch.Validation("file_operation", errors.New("missing operation or path parameter"))
	}

	path, err := d.resolve(relPath)
	if err != nil {
		return nil, err
	}

	switch op {
	case "read":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, classifyFSError(err)
		}
		return string(data), nil

	case "write", "append":
		content, _ := params["content"].(string)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, dispatch.Internal("file_operation", err)
		}
		flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
		if op == "append" {
			flags = os.O_CREATE | os.O_WRONLY | os.O_APPEND
		}
		f, err := os.OpenFile(path, flags, 0o644)
		if err != nil {
			return nil, classifyFSError(err)
		}
		defer f.Close()
		if _, err := f.WriteString(content); err != nil {
			return nil, dispatch.Internal("file_operation", err)
		}
		return map[string]any{"path": relPath, "bytes": len(content)}, nil

	case "delete":
		if err := os.Remove(path); err != nil {
			return nil, classifyFSError(err)
		}
		return map[string]any{"path": relPath, "deleted": true}, nil

	case "list":
		entries, err := os.ReadDir(path)
		if err != nil {
			return nil, classifyFSError(err)
		}
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		return names, nil

	default:
		return nil, dispatch.Validation("file_operation", fmt.Errorf("unknown operation %q", op))
	}
}

// resolve превращает относительный путь в абсолютный внутри корня.
func (d *FileDispatcher) resolve(relPath string) (string, error) {
	path := filepath.Join(d.root, filepath.Clean("/"+relPath))
	if !strings.HasPrefix(path, filepath.Clean(d.root)+string(os.PathSeparator)) && path != filepath.Clean(d.root) {
		return "", dispatch.Validation("file_operation", fmt.Errorf("path %q escapes root", relPath))
	}
	return path, nil
}

// classifyFSError: отсутствие файла — ошибка данных, не повторяемая.
func classifyFSError(err error) error {
	if errors.Is(err, os.ErrNotExist) || errors.Is(err, os.ErrPermission) {
		return dispatch.Validation("file_operation", err)
	}
	return dispatch.Internal("file_operation", err)
}
