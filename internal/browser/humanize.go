package browser

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"
)

// humanize returns navigation decoration that makes the session look less
// like automation: randomized dwell time, pointer drift, and a partial
// scroll. Basic timing randomization only; this is not a bot-detection
// defeat mechanism.
func humanize() chromedp.Tasks {
	return chromedp.Tasks{
		randomSleep(400, 1200),
		moveMouse(),
		randomSleep(200, 600),
		scrollPage(),
		randomSleep(300, 900),
		scrollPage(),
	}
}

func randomSleep(minMs, maxMs int) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		d := time.Duration(minMs+rand.Intn(maxMs-minMs)) * time.Millisecond
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(d):
			return nil
		}
	})
}

// moveMouse drifts the pointer to a random viewport position
func moveMouse() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		x := float64(100 + rand.Intn(900))
		y := float64(100 + rand.Intn(500))
		return input.DispatchMouseEvent(input.MouseMoved, x, y).Do(ctx)
	})
}

// scrollPage scrolls a random fraction of a viewport, the way a reader
// skims a listing page
func scrollPage() chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		px := 200 + rand.Intn(600)
		return chromedp.Evaluate(fmt.Sprintf("window.scrollBy(0, %d)", px), nil).Do(ctx)
	})
}
