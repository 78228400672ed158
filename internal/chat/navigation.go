package chat

import "context"

var navTriggers = []string{
	"where do i", "where can i", "how do i", "how can i", "how to", "where is the",
	"where to", "saan ko", "paano ako", "paano mag", "paano",
}

// navAreas maps app screens to words that name them, checked in order.
var navAreas = []struct {
	area     string
	keywords []string
	hint     string
}{
	{"documents", []string{"document", "documents", "certificate", "clearance", "indigency", "permit", "issue"},
		"Open Documents from the sidebar. Pick the document type, fill in the required fields and press Issue."},
	{"residents", []string{"resident", "residents", "household", "households", "register", "profile"},
		"Open Residents from the sidebar. Use Add Resident to register someone or search by name to edit a profile."},
	{"blotter", []string{"blotter", "incident", "incidents", "complaint", "case", "reklamo"},
		"Open Blotter from the sidebar and press New Report. Add complainants and respondents before saving."},
	{"map", []string{"map", "evacuation", "zone", "zones", "route", "routes", "hazard", "flood"},
		"Open Risk Map from the sidebar. Use the drawing tools to add zones, evacuation centers and routes."},
	{"announcements", []string{"announcement", "announcements", "post", "event", "events"},
		"Open Community from the sidebar to post announcements and events."},
	{"activity", []string{"activity", "log", "logs", "audit", "history"},
		"Open Activity Log from the sidebar. Filter by user, action or date."},
	{"settings", []string{"password", "account", "settings", "logout", "log out"},
		"Open your profile menu in the top right for account settings and password changes."},
}

// NavigationStage points users to the screen that does what they ask.
type NavigationStage struct{}

func (NavigationStage) Name() string { return "navigation" }

func (NavigationStage) Handle(_ context.Context, q Query) (*Reply, error) {
	triggered := false
	for _, t := range navTriggers {
		if containsPhrase(q.Normalized, t) {
			triggered = true
			break
		}
	}
	if !triggered {
		return nil, nil
	}
	for _, a := range navAreas {
		for _, k := range a.keywords {
			if containsPhrase(q.Normalized, k) {
				return &Reply{Message: a.hint, Source: SourceNavigation, Category: a.area}, nil
			}
		}
	}
	return nil, nil
}
