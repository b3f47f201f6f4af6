// Package resumd renders Markdown resumes into a paginated, print-ready
// preview using a pagination engine running in headless Chrome.
//
// # Quick Start
//
// Wire a converter, a realm and a scheduler into a session:
//
//	realm := resumd.NewRodRealm(resumd.RodRealmOptions{HostHTML: host})
//	sched := resumd.NewScheduler(realm)
//	sess := resumd.NewSession(resumd.NewConverter(), sched, resumd.NewZoom(resumd.ZoomOptions{}))
//	defer sess.Close()
//
//	sess.Start(ctx)
//	sess.Scheduler().Subscribe(func(f resumd.Frame) {
//	    fmt.Println("showing", f.Pages, "pages")
//	})
//	_, err := sess.Update(ctx, resumd.Document{Markdown: md, CSS: css})
//
// # Pipeline
//
// Every edit goes through the same stages:
//
//  1. Front-matter resolution (title, lang), keeping the previous metadata
//     while the header is half-typed
//  2. Markdown to HTML via Goldmark (GFM tables, footnotes, highlighting)
//  3. Pagination of the fragment into page boxes, in a hidden buffer
//  4. Buffer swap, only when the pass succeeded and is still the newest
//
// Render never blocks. At most one pass runs and at most one request waits;
// a newer edit replaces the waiting one.
//
// # Zoom
//
// Zoom is a handle shared by the preview and its controls. Shortcuts maps
// keyboard and wheel events onto it, and the session lowers it once so the
// first page fits the viewport.
//
// # Exports
//
// PrintDocument builds a standalone HTML document from the last converted
// edit; ExporterPool prints it to PDF. WriteZIP archives the sources.
//
// # Browser Requirements
//
// Preview and PDF export require Chrome/Chromium. The go-rod library
// automatically downloads a managed Chromium instance on first run
// (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package resumd
