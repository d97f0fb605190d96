package main

import (
	"fmt"

	"github.com/gosuri/uiprogress"
)

// progressUI renders one terminal bar per table during the data phase.
// A nil receiver disables rendering, so callers never branch on the
// progress setting themselves.
type progressUI struct {
	p *uiprogress.Progress
}

func newProgressUI(enabled bool) *progressUI {
	if !enabled {
		return nil
	}
	p := uiprogress.New()
	p.Start()
	return &progressUI{p: p}
}

// tableBar registers a bar for one table and returns an increment callback
// taking the number of rows just written.
func (u *progressUI) tableBar(name string, total int64) func(int) {
	if u == nil {
		return nil
	}

	// uiprogress requires a positive total
	barTotal := int(total)
	if barTotal <= 0 {
		barTotal = 1
	}
	bar := u.p.AddBar(barTotal).AppendCompleted().PrependElapsed()
	label := fmt.Sprintf("%-24s", name)
	bar.PrependFunc(func(b *uiprogress.Bar) string {
		return label
	})
	if total <= 0 {
		bar.Set(1)
	}

	return func(n int) {
		for i := 0; i < n; i++ {
			if !bar.Incr() {
				return
			}
		}
	}
}

func (u *progressUI) stop() {
	if u == nil {
		return
	}
	u.p.Stop()
}
