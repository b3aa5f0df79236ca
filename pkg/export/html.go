package export

import (
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/offlinefirst/guidecast/pkg/geometry"
	"github.com/offlinefirst/guidecast/pkg/guide"
)

// htmlStep is the per-step view handed to the template. Crop is applied
// non-destructively: the original screenshot is scaled and translated
// inside a clipping viewport, and the click marker is remapped into the
// cropped frame.
type htmlStep struct {
	Number     int
	Text       string
	Note       string
	Screenshot string
	HasImage   bool
	Transform  template.CSS
	Marker     geometry.MarkerPosition
}

type htmlGuide struct {
	Title    string
	Recorded string
	Steps    []htmlStep
}

var htmlTemplate = template.Must(template.New("guide").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: -apple-system, sans-serif; max-width: 46rem; margin: 2rem auto; padding: 0 1rem; color: #1a1a1a; }
h1 { font-size: 1.6rem; }
.step { margin: 2.5rem 0; }
.step h2 { font-size: 1.1rem; }
.note { border-left: 3px solid #c9c9c9; padding-left: .75rem; color: #555; }
.viewport { position: relative; overflow: hidden; border: 1px solid #ddd; border-radius: 6px; }
.viewport img { display: block; width: 100%; transform-origin: 0 0; }
.marker { position: absolute; width: 18px; height: 18px; margin: -9px 0 0 -9px; border: 3px solid #e0362c; border-radius: 50%; background: rgba(224,54,44,.25); }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
<p>Recorded {{.Recorded}}.</p>
{{range .Steps}}
<section class="step">
<h2>Step {{.Number}}</h2>
{{if .Text}}<p>{{.Text}}</p>{{end}}
{{if .Note}}<p class="note">{{.Note}}</p>{{end}}
{{if .HasImage}}
<div class="viewport">
<img src="{{.Screenshot}}" alt="Step {{.Number}}" style="transform: {{.Transform}}">
{{if .Marker.Visible}}<div class="marker" style="left: {{printf "%.2f" .Marker.XPercent}}%; top: {{printf "%.2f" .Marker.YPercent}}%;"></div>{{end}}
</div>
{{end}}
</section>
{{end}}
</body>
</html>
`))

// WriteHTML renders the guide as a single self-contained HTML page and
// returns the written path.
func WriteHTML(doc guide.Document, layout guide.Layout) (string, error) {
	view := htmlGuide{
		Title:    doc.Title,
		Recorded: doc.StartedAt.Format("2006-01-02 15:04 MST"),
	}
	if view.Title == "" {
		view.Title = "Guide " + doc.SessionID
	}

	for i, step := range doc.Steps {
		styles := geometry.CroppedImageStyles(step.CropRegion)
		hs := htmlStep{
			Number:     i + 1,
			Text:       stepText(step),
			Screenshot: "../" + filepath.ToSlash(step.ScreenshotPath),
			HasImage:   step.ScreenshotPath != "",
			Transform:  template.CSS(styles.CSSTransform()),
			Marker:     step.MarkerPosition(),
		}
		if step.Note != "" && step.Action != guide.ActionNote {
			hs.Note = step.Note
		}
		// Marker is only drawn on click-style steps.
		if step.Action == guide.ActionShortcut || step.Action == guide.ActionNote {
			hs.Marker.Visible = false
		}
		view.Steps = append(view.Steps, hs)
	}

	path := filepath.Join(layout.ExportsDir, "guide.html")
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create html export: %w", err)
	}
	defer file.Close()

	if err := htmlTemplate.Execute(file, view); err != nil {
		return "", fmt.Errorf("render html export: %w", err)
	}
	return path, nil
}
