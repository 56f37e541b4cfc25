package browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"

	"github.com/rentradar/scraper-api/internal/config"
)

// Selector that signals pricing content has rendered. Waited on with its own
// short timeout; absence is not fatal.
const contentSelector = `[class*="floorplan"], [class*="floor-plan"], [class*="pricing"], [class*="unit"]`

// Launcher owns the shared headless-chrome allocator. Each RenderPage call
// opens its own tab context and closes it on every exit path: browser
// sessions are a quota-limited resource and are never left to garbage
// collection.
type Launcher struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	cfg         config.BrowserConfig
}

// NewLauncher configures the chrome exec allocator
func NewLauncher(cfg config.BrowserConfig) *Launcher {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", cfg.Headless),
		chromedp.Flag("disable-gpu", false),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(cfg.UserAgent),
	)

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)

	return &Launcher{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		cfg:         cfg,
	}
}

// Close tears down the allocator and any remaining browser processes
func (l *Launcher) Close() {
	l.allocCancel()
}

// RenderPage navigates to the URL in a fresh tab, waits for dynamic content,
// and returns the rendered HTML. Implements scraper.Renderer.
func (l *Launcher) RenderPage(ctx context.Context, url string) (string, error) {
	tabCtx, tabCancel := chromedp.NewContext(l.allocCtx)
	defer tabCancel()

	navCtx, navCancel := context.WithTimeout(tabCtx, time.Duration(l.cfg.NavTimeoutSec)*time.Second)
	defer navCancel()

	// Honor caller cancellation without tying the tab's lifetime to it
	stop := context.AfterFunc(ctx, tabCancel)
	defer stop()

	tasks := chromedp.Tasks{
		chromedp.Navigate(url),
		chromedp.WaitReady("body"),
	}
	if l.cfg.Humanize {
		tasks = append(tasks, humanize()...)
	}
	tasks = append(tasks, chromedp.Sleep(time.Duration(l.cfg.SettleBufferMs)*time.Millisecond))

	if err := chromedp.Run(navCtx, tasks); err != nil {
		return "", fmt.Errorf("navigation failed for %s: %w", url, err)
	}

	// Wait for pricing markup with its own timeout. Many pages never match,
	// so a timeout here only means we extract from what rendered.
	selCtx, selCancel := context.WithTimeout(navCtx, time.Duration(l.cfg.SelectorWaitSec)*time.Second)
	_ = chromedp.Run(selCtx, chromedp.WaitVisible(contentSelector, chromedp.ByQuery))
	selCancel()

	var html string
	if err := chromedp.Run(navCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("failed to capture rendered page for %s: %w", url, err)
	}

	return html, nil
}
