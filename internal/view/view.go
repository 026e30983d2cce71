// Package view renders the portal's role-specific dashboards and owns
// their local state: each view holds its own ephemeral copy of fetched
// data, never a cache shared with another view.
package view

import (
	"io"
	"strings"
	"time"

	"healthcare-portal/internal/model"
)

// View is anything the router can put on screen.
type View interface {
	Name() string
	Render(w io.Writer)
}

func formatDate(t time.Time) string {
	return t.Format("Mon, Jan 2, 2006, 3:04 PM")
}

func displayStatus(s model.Status) string {
	str := string(s)
	if str == "" {
		return str
	}
	return strings.ToUpper(str[:1]) + str[1:]
}
