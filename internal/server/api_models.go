package server

import (
	"github.com/raysh454/vulnx/internal/history"
	"github.com/raysh454/vulnx/internal/navigation"
	"github.com/raysh454/vulnx/internal/report"
	"github.com/raysh454/vulnx/internal/scan"
	"github.com/raysh454/vulnx/internal/view"
)

// StateResponse is the JSON snapshot of one session.
type StateResponse struct {
	Session   string          `json:"session"`
	Page      navigation.Page `json:"page"`
	Permitted bool            `json:"permitted"`
	View      view.View       `json:"view"`
	Scan      scan.State      `json:"scan"`
}

// DiffResponse compares a recorded scan with the previous scan of the same URL.
type DiffResponse struct {
	Current  *history.Entry         `json:"current"`
	Previous *history.Entry         `json:"previous,omitempty"`
	Changes  []report.FindingChange `json:"changes"`
}

// ErrorResponse is a uniform error payload returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// navLink is one entry of the navigation bar.
type navLink struct {
	Page   navigation.Page
	Title  string
	Active bool
}

// pageData is what the page templates render.
type pageData struct {
	Title string
	Nav   []navLink
	View  view.View
}
