// Package navigation holds the per-session page state machine.
//
// The machine has no terminal state and no error case: every Page is a valid
// target. Gating of the scan page happens at render time (see package view),
// not here.
package navigation

import (
	"errors"
	"fmt"
	"strings"
	"sync"
)

// Page identifies one of the console's pages.
type Page string

const (
	PageHome  Page = "home"
	PageScan  Page = "scan"
	PageTips  Page = "tips"
	PageAbout Page = "about"
)

var ErrUnknownPage = errors.New("unknown page")

// Pages returns every page in navigation bar order.
func Pages() []Page {
	return []Page{PageHome, PageScan, PageTips, PageAbout}
}

// Valid reports whether p is one of the known pages.
func (p Page) Valid() bool {
	switch p {
	case PageHome, PageScan, PageTips, PageAbout:
		return true
	}
	return false
}

// Title is the label shown in the navigation bar.
func (p Page) Title() string {
	if p == "" {
		return ""
	}
	s := string(p)
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParsePage converts untrusted input into a Page.
func ParsePage(s string) (Page, error) {
	p := Page(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownPage, s)
	}
	return p, nil
}

// Navigator stores the active page. The zero value is not usable; use New.
type Navigator struct {
	mu      sync.RWMutex
	current Page
}

// New returns a Navigator positioned on the home page.
func New() *Navigator {
	return &Navigator{current: PageHome}
}

// Navigate makes target the active page. It always succeeds for a valid page;
// invalid pages are ignored so the state never leaves the closed set.
func (n *Navigator) Navigate(target Page) {
	if !target.Valid() {
		return
	}
	n.mu.Lock()
	n.current = target
	n.mu.Unlock()
}

// Current returns the active page.
func (n *Navigator) Current() Page {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return n.current
}
