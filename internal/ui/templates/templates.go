// Package templates renders the dashboard page and the fragments patched in
// over SSE. Fragment root ids match the page so patches replace them in place.
//
// The components live in dashboard.templ; run `templ generate` after editing it.
package templates

import (
	"context"
	"strings"

	"github.com/a-h/templ"
)

const (
	BuyersID  = "buyers-content"
	MetricsID = "metrics-content"
	ChartsID  = "charts-content"
)

var stylesheet = `<style>
body { font-family: system-ui, sans-serif; margin: 0; display: flex; color: #222; }
aside { width: 280px; padding: 1rem; background: #f7f3ea; min-height: 100vh; }
main { flex: 1; padding: 1rem 2rem; }
fieldset { border: 1px solid #e0d5bd; margin-bottom: .75rem; }
label { display: block; font-size: .9rem; }
.charts { display: grid; grid-template-columns: repeat(3, 1fr); gap: 1.5rem; }
.bar-row { display: grid; grid-template-columns: 7rem 1fr 7rem; gap: .5rem; align-items: center; margin: .25rem 0; }
.bar { width: 100%; height: 1rem; }
.bar::-webkit-meter-bar { background: #eee; border: 0; border-radius: 0; }
.bar::-webkit-meter-optimum-value { background: ` + BrandColor + `; }
.bar::-moz-meter-bar { background: ` + BrandColor + `; }
.bar-value { text-align: right; font-variant-numeric: tabular-nums; }
.metric { display: flex; flex-direction: column; margin-bottom: .75rem; }
.metric-value { font-size: 1.5rem; font-weight: 600; }
.metric-error { color: #b00020; }
.modern-table { border-collapse: collapse; width: 100%; }
.modern-table th, .modern-table td { border-bottom: 1px solid #ddd; padding: .4rem; text-align: left; }
.empty, .caption { color: #777; }
</style>`

// RenderString renders c into a string, for SSE element patches.
func RenderString(ctx context.Context, c templ.Component) (string, error) {
	var b strings.Builder
	if err := c.Render(ctx, &b); err != nil {
		return "", err
	}
	return b.String(), nil
}
