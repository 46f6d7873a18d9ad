// Package webui renders debugging pages for a workspace.
package webui

import "fgtools.fluvialgeomorph.org/internal/app"

type WebUI struct {
	*app.Application
}

func New(app *app.Application) *WebUI {
	return &WebUI{Application: app}
}
