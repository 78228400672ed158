package chat

import "strings"

// Intents recognised in questions.
const (
	IntentRequest      = "request"
	IntentSchedule     = "schedule"
	IntentContact      = "contact"
	IntentRequirements = "requirements"
	IntentFee          = "fee"
	IntentLocation     = "location"
	IntentStatus       = "status"
	IntentComplaint    = "complaint"
)

// intentCues are checked in order; the first intent with a cue wins.
var intentCues = []struct {
	intent string
	cues   []string
}{
	{IntentRequirements, []string{"requirements", "requirement", "needed", "need to bring", "what to bring", "kailangan", "dadalhin"}},
	{IntentFee, []string{"fee", "fees", "cost", "how much", "price", "bayad", "magkano"}},
	{IntentStatus, []string{"status", "ready", "released", "update on", "follow up", "na ba"}},
	{IntentComplaint, []string{"complaint", "complain", "report", "blotter", "reklamo", "sumbong"}},
	{IntentSchedule, []string{"when", "schedule", "time", "hours", "open", "date", "kailan", "oras"}},
	{IntentLocation, []string{"where", "location", "address", "located", "saan", "nasaan"}},
	{IntentContact, []string{"contact", "phone", "number", "call", "email", "hotline", "tawagan"}},
	{IntentRequest, []string{"request", "apply", "get", "obtain", "issue", "kumuha", "humingi"}},
}

// ExtractIntent returns the intent of a normalized question, or "".
func ExtractIntent(normalized string) string {
	for _, ic := range intentCues {
		for _, c := range ic.cues {
			if containsPhrase(normalized, c) {
				return ic.intent
			}
		}
	}
	return ""
}

// synonyms maps words to a shared root for the similarity score.
var synonyms = map[string]string{
	"certificate": "certificate", "certification": "certificate", "cert": "certificate", "sertipiko": "certificate",
	"clearance": "clearance", "clearances": "clearance",
	"id": "id", "identification": "id",
	"fee": "fee", "fees": "fee", "cost": "fee", "price": "fee", "bayad": "fee", "payment": "fee",
	"request": "request", "apply": "request", "application": "request", "obtain": "request", "kumuha": "request",
	"requirements": "requirement", "requirement": "requirement", "needed": "requirement", "kailangan": "requirement",
	"office": "office", "hall": "office", "opisina": "office", "munisipyo": "office",
	"hours": "time", "time": "time", "schedule": "time", "oras": "time",
	"complaint": "complaint", "complain": "complaint", "reklamo": "complaint", "blotter": "complaint",
	"resident": "resident", "residents": "resident", "residente": "resident", "people": "resident",
	"house": "household", "household": "household", "households": "household", "bahay": "household",
	"emergency": "emergency", "hotline": "emergency", "rescue": "emergency",
	"flood": "flood", "baha": "flood", "typhoon": "storm", "bagyo": "storm", "storm": "storm",
	"evacuation": "evacuation", "evacuate": "evacuation", "lumikas": "evacuation",
	"permit": "permit", "permits": "permit", "business": "business", "negosyo": "business",
	"indigency": "indigency", "indigent": "indigency", "poor": "indigency",
	"residency": "residency", "residence": "residency",
}

func root(w string) string {
	if r, ok := synonyms[w]; ok {
		return r
	}
	return strings.TrimSuffix(w, "s")
}

// Similarity is the Jaccard index of the synonym roots of two word lists.
func Similarity(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	sa := map[string]bool{}
	for _, w := range a {
		sa[root(w)] = true
	}
	sb := map[string]bool{}
	for _, w := range b {
		sb[root(w)] = true
	}
	inter := 0
	for w := range sa {
		if sb[w] {
			inter++
		}
	}
	union := len(sa) + len(sb) - inter
	return float64(inter) / float64(union)
}
