package navigation_test

import (
	"errors"
	"testing"

	"github.com/raysh454/vulnx/internal/navigation"
)

func TestNavigator_StartsOnHome(t *testing.T) {
	n := navigation.New()
	if got := n.Current(); got != navigation.PageHome {
		t.Fatalf("expected initial page home, got %q", got)
	}
}

func TestNavigator_NavigateIsUnconditional(t *testing.T) {
	n := navigation.New()
	for _, p := range []navigation.Page{navigation.PageTips, navigation.PageAbout, navigation.PageHome, navigation.PageScan} {
		n.Navigate(p)
		if got := n.Current(); got != p {
			t.Errorf("Navigate(%q): current = %q", p, got)
		}
	}
}

func TestNavigator_IgnoresInvalidPage(t *testing.T) {
	n := navigation.New()
	n.Navigate(navigation.PageTips)
	n.Navigate(navigation.Page("admin"))
	if got := n.Current(); got != navigation.PageTips {
		t.Errorf("expected page to stay tips, got %q", got)
	}
}

func TestParsePage(t *testing.T) {
	tests := []struct {
		in      string
		want    navigation.Page
		wantErr bool
	}{
		{"home", navigation.PageHome, false},
		{" Scan ", navigation.PageScan, false},
		{"TIPS", navigation.PageTips, false},
		{"about", navigation.PageAbout, false},
		{"", "", true},
		{"login", "", true},
	}
	for _, tt := range tests {
		got, err := navigation.ParsePage(tt.in)
		if tt.wantErr {
			if !errors.Is(err, navigation.ErrUnknownPage) {
				t.Errorf("ParsePage(%q): expected ErrUnknownPage, got %v", tt.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePage(%q): unexpected error %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePage(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPage_Title(t *testing.T) {
	if got := navigation.PageAbout.Title(); got != "About" {
		t.Errorf("expected About, got %q", got)
	}
	if len(navigation.Pages()) != 4 {
		t.Errorf("expected 4 pages, got %d", len(navigation.Pages()))
	}
}
