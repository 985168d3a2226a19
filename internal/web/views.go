package web

// views.go holds the HTML partials returned to HTMX clients. They are
// plain templ components so they compose with any templ page that hosts
// the import form.

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/JonMunkholm/backoffice/internal/core"
	"github.com/a-h/templ"
)

// ErrorAlert renders an error banner with the support code.
func ErrorAlert(message, action, code string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		b.WriteString(`<div class="alert alert-error" role="alert">`)
		fmt.Fprintf(&b, `<p class="alert-message">%s</p>`, templ.EscapeString(message))
		if action != "" {
			fmt.Fprintf(&b, `<p class="alert-action">%s</p>`, templ.EscapeString(action))
		}
		if code != "" {
			fmt.Fprintf(&b, `<p class="alert-code">Code: %s</p>`, templ.EscapeString(code))
		}
		b.WriteString(`</div>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// ImportResultView renders the counts and failures of one batch.
func ImportResultView(res *core.ImportResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section class="import-result" data-entity="%s">`, templ.EscapeString(res.EntityKey))
		fmt.Fprintf(&b, `<h3>%s</h3>`, templ.EscapeString(res.EntityKey))
		writeCounts(&b, [][2]string{
			{"Total", fmt.Sprint(res.Total)},
			{"Imported", fmt.Sprint(res.SuccessCount)},
			{"Rejected", fmt.Sprint(res.RejectedCount)},
			{"Duplicates", fmt.Sprint(res.SkippedCount)},
			{"Malformed lines", fmt.Sprint(res.SkippedLines)},
		})
		if res.Cancelled {
			b.WriteString(`<p class="import-cancelled">Import was cancelled; the counts above are partial.</p>`)
		}
		writeFailures(&b, res.Failures)
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// PreviewView renders a dry-run summary with sample records.
func PreviewView(p *core.PreviewResponse) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder
		fmt.Fprintf(&b, `<section class="import-preview" data-entity="%s">`, templ.EscapeString(p.EntityKey))
		writeCounts(&b, [][2]string{
			{"Rows", fmt.Sprint(p.Summary.TotalRows)},
			{"New", fmt.Sprint(p.Summary.NewRows)},
			{"Errors", fmt.Sprint(p.Summary.ErrorRows)},
			{"Duplicates", fmt.Sprint(p.Summary.DuplicateRows)},
			{"Malformed lines", fmt.Sprint(p.Summary.SkippedLines)},
		})

		if len(p.NewRowSamples) > 0 {
			tpl, err := core.Template(p.EntityKey)
			if err != nil {
				return err
			}
			b.WriteString(`<table class="preview-samples"><thead><tr><th>Line</th>`)
			for _, f := range tpl.Fields {
				fmt.Fprintf(&b, `<th>%s</th>`, templ.EscapeString(f))
			}
			b.WriteString(`</tr></thead><tbody>`)
			for _, row := range p.NewRowSamples {
				fmt.Fprintf(&b, `<tr><td>%d</td>`, row.Position)
				for _, f := range tpl.Fields {
					v := ""
					if val, ok := row.Values[f]; ok && val != nil {
						v = fmt.Sprint(val)
					}
					fmt.Fprintf(&b, `<td>%s</td>`, templ.EscapeString(v))
				}
				b.WriteString(`</tr>`)
			}
			b.WriteString(`</tbody></table>`)
		}

		writeFailures(&b, p.Failures)
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

// RestoreView renders one ImportResultView per restored entity.
func RestoreView(res *core.RestoreResult) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<div class="restore-result">`); err != nil {
			return err
		}
		for _, r := range res.Results {
			if err := ImportResultView(r).Render(ctx, w); err != nil {
				return err
			}
		}
		if len(res.Ignored) > 0 {
			msg := "Ignored unknown data types: " + strings.Join(res.Ignored, ", ")
			if _, err := fmt.Fprintf(w, `<p class="restore-ignored">%s</p>`, templ.EscapeString(msg)); err != nil {
				return err
			}
		}
		_, err := io.WriteString(w, `</div>`)
		return err
	})
}

// DeleteSummary renders the per-entity counts of a bulk delete.
func DeleteSummary(counts []core.DeleteCount) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		rows := make([][2]string, 0, len(counts))
		for _, c := range counts {
			rows = append(rows, [2]string{c.EntityKey, fmt.Sprint(c.Deleted)})
		}
		var b strings.Builder
		b.WriteString(`<section class="delete-summary">`)
		writeCounts(&b, rows)
		b.WriteString(`</section>`)
		_, err := io.WriteString(w, b.String())
		return err
	})
}

func writeCounts(b *strings.Builder, rows [][2]string) {
	b.WriteString(`<dl class="counts">`)
	for _, r := range rows {
		fmt.Fprintf(b, `<dt>%s</dt><dd>%s</dd>`, templ.EscapeString(r[0]), templ.EscapeString(r[1]))
	}
	b.WriteString(`</dl>`)
}

func writeFailures(b *strings.Builder, failures []core.Failure) {
	if len(failures) == 0 {
		return
	}
	b.WriteString(`<table class="failures"><thead><tr><th>Line</th><th>Kind</th><th>Reason</th></tr></thead><tbody>`)
	for _, f := range failures {
		fmt.Fprintf(b, `<tr class="failure-%s"><td>%d</td><td>%s</td><td>%s</td></tr>`,
			templ.EscapeString(string(f.Kind)),
			f.Position,
			templ.EscapeString(string(f.Kind)),
			templ.EscapeString(f.Reason),
		)
	}
	b.WriteString(`</tbody></table>`)
}
