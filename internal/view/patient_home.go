package view

import (
	"fmt"
	"io"

	"healthcare-portal/internal/model"
)

type infoCard struct {
	Title       string
	Description string
}

var healthInfo = []infoCard{
	{
		Title:       "COVID-19 Updates",
		Description: "Stay informed about the latest COVID-19 guidelines and vaccination information.",
	},
	{
		Title:       "Seasonal Flu Prevention",
		Description: "Learn about steps you can take to prevent the seasonal flu and when to get vaccinated.",
	},
	{
		Title:       "Mental Health Awareness",
		Description: "Explore resources and support options for maintaining good mental health.",
	},
}

// PatientHomeView is the patient landing screen: navigation plus the
// static health-information cards.
type PatientHomeView struct {
	Principal model.Principal
}

func (v *PatientHomeView) Name() string { return "home" }

func (v *PatientHomeView) Render(w io.Writer) {
	fmt.Fprintln(w, "== Healthcare Portal ==")
	fmt.Fprintf(w, "Signed in as %s\n", v.Principal.Email)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Latest Health Information")
	for _, card := range healthInfo {
		fmt.Fprintf(w, "  * %s\n    %s\n", card.Title, card.Description)
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands: book | appointments | logout")
}
