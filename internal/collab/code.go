package collab

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/shaiso/Conveyor/internal/dispatch"
	"github.com/shaiso/Conveyor/internal/domain"
)

// defaultExecTimeout — ограничение времени выполнения кода.
const defaultExecTimeout = 60 * time.Second

// interpreters — поддерживаемые языки и их интерпретаторы.
var interpreters = map[string][]string{
	"python": {"python3", "-c"},
	"bash":   {"bash", "-c"},
	"sh":     {"sh", "-c"},
}

// CodeDispatcher выполняет шаги типа code_execution: запускает
// переданный фрагмент кода во внешнем интерпретаторе с таймаутом.
type CodeDispatcher struct {
	workDir string
	timeout time.Duration
}

// NewCodeDispatcher создаёт dispatcher с рабочей директорией workDir
// (пустая строка — временная директория процесса).
func NewCodeDispatcher(workDir string) *CodeDispatcher {
	if workDir == "" {
		workDir = filepath.Join(os.TempDir(), "conveyor-exec")
	}
	return &CodeDispatcher{
		workDir: workDir,
		timeout: defaultExecTimeout,
	}
}

// Kind реализует dispatch.Dispatcher.
func (d *CodeDispatcher) Kind() domain.StepKind { return domain.KindCodeExecution }

// Dispatch выполняет params["code"] интерпретатором params["language"]
// (default: python).
func (d *CodeDispatcher) Dispatch(ctx context.Context, params map[string]any) (any, error) {
	code, _ := params["code"].(string)
	if code == "" {
		return nil, dispatch.Validation("code_execution", errors.New("missing code parameter"))
	}

	language, _ := params["language"].(string)
	if language == "" {
		language = "python"
	}
	argv, ok := interpreters[language]
	if !ok {
		return nil, dispatch.Validation("code_execution", fmt.Errorf("unsupported language %q", language))
	}

	if err := os.MkdirAll(d.workDir, 0o755); err != nil {
		return nil, dispatch.Internal("code_execution", err)
	}

	execCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	cmd := exec.CommandContext(execCtx, argv[0], append(argv[1:], code)...)
	cmd.Dir = d.workDir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if execCtx.Err() == context.DeadlineExceeded {
		return nil, dispatch.Transient("code_execution", fmt.Errorf("execution timed out after %s", d.timeout))
	}
	if err != nil {
		return nil, dispatch.Internal("code_execution",
			fmt.Errorf("%w: %s", err, stderr.String()))
	}

	return map[string]any{
		"stdout": stdout.String(),
		"stderr": stderr.String(),
	}, nil
}
