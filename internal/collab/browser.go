package collab

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/go-shiori/go-readability"
	"github.com/microcosm-cc/bluemonday"

	"github.com/shaiso/Conveyor/internal/dispatch"
	"github.com/shaiso/Conveyor/internal/domain"
	"github.com/shaiso/Conveyor/internal/pool"
	"github.com/shaiso/Conveyor/internal/telemetry"
)

// Параметры пула браузерных сессий по умолчанию: максимум 3 сессии,
// не больше 10 использований на сессию, простой до 5 минут.
const (
	defaultBrowserPoolSize    = 3
	defaultBrowserMaxUses     = 10
	defaultBrowserMaxIdleTime = 5 * time.Minute
)

// BrowserSession — одна headless-сессия Chrome.
type BrowserSession struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	ctx         context.Context
	cancel      context.CancelFunc
}

// Close завершает сессию.
func (s *BrowserSession) Close() {
	if s.cancel != nil {
		s.cancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// BrowserFactory создаёт сессии для пула.
type BrowserFactory struct{}

// Create запускает headless Chrome.
func (BrowserFactory) Create(ctx context.Context) (*BrowserSession, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.Flag("no-first-run", true),
		chromedp.Flag("no-default-browser-check", true),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, cancel := chromedp.NewContext(allocCtx)

	s := &BrowserSession{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		ctx:         browserCtx,
		cancel:      cancel,
	}
	if err := chromedp.Run(browserCtx); err != nil {
		s.Close()
		return nil, fmt.Errorf("start browser: %w", err)
	}
	return s, nil
}

// Destroy закрывает сессию.
func (BrowserFactory) Destroy(_ context.Context, s *BrowserSession) error {
	s.Close()
	return nil
}

// Validate: сессия жива, пока её контекст не отменён.
func (BrowserFactory) Validate(s *BrowserSession) bool {
	return s.ctx.Err() == nil
}

// NewBrowserPool создаёт пул браузерных сессий. Нулевые значения cfg
// заменяются стандартными лимитами.
func NewBrowserPool(cfg pool.Config) (*pool.Pool[*BrowserSession], error) {
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = defaultBrowserPoolSize
	}
	if cfg.MaxUses <= 0 {
		cfg.MaxUses = defaultBrowserMaxUses
	}
	if cfg.MaxIdleTime <= 0 {
		cfg.MaxIdleTime = defaultBrowserMaxIdleTime
	}
	return pool.New[*BrowserSession](BrowserFactory{}, cfg)
}

// BrowserDispatcher выполняет шаги типа browser_automation: загружает
// страницу в пуловой сессии и извлекает основное содержимое.
type BrowserDispatcher struct {
	pool      *pool.Pool[*BrowserSession]
	sanitizer *bluemonday.Policy
}

// NewBrowserDispatcher создаёт dispatcher поверх пула сессий.
func NewBrowserDispatcher(p *pool.Pool[*BrowserSession]) *BrowserDispatcher {
	return &BrowserDispatcher{
		pool:      p,
		sanitizer: bluemonday.StrictPolicy(),
	}
}

// Kind реализует dispatch.Dispatcher.
func (d *BrowserDispatcher) Kind() domain.StepKind { return domain.KindBrowserAutomation }

// Dispatch открывает params["url"] и возвращает очищенный текст
// страницы.
func (d *BrowserDispatcher) Dispatch(ctx context.Context, params map[string]any) (any, error) {
	rawURL, _ := params["url"].(string)
	if rawURL == "" {
		return nil, dispatch.Validation("browser", errors.New("missing url parameter"))
	}
	pageURL, err := url.Parse(rawURL)
	if err != nil {
		return nil, dispatch.Validation("browser", fmt.Errorf("invalid url: %w", err))
	}

	var html string
	err = d.pool.WithResource(ctx, 0, func(s *BrowserSession) error {
		exportPoolStats(d.pool.Stats())
		tabCtx, cancel := context.WithTimeout(s.ctx, 60*time.Second)
		defer cancel()
		return chromedp.Run(tabCtx,
			chromedp.Navigate(rawURL),
			chromedp.OuterHTML("html", &html),
		)
	})
	if err != nil {
		if errors.Is(err, pool.ErrAcquireTimeout) || errors.Is(err, pool.ErrPoolClosed) {
			return nil, dispatch.ResourceExhausted("browser", err)
		}
		return nil, dispatch.Transient("browser", err)
	}

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return nil, dispatch.Transient("browser", fmt.Errorf("extract content: %w", err))
	}

	return map[string]any{
		"url":     rawURL,
		"title":   article.Title,
		"content": d.sanitizer.Sanitize(article.TextContent),
	}, nil
}

// exportPoolStats публикует снимок состояния пула в метрики.
func exportPoolStats(st pool.Stats) {
	telemetry.PoolResources.WithLabelValues("browser", "idle").Set(float64(st.Idle))
	telemetry.PoolResources.WithLabelValues("browser", "active").Set(float64(st.Active))
	telemetry.PoolResources.WithLabelValues("browser", "waiting").Set(float64(st.Waiters))
}
