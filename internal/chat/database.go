package chat

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"time"

	"github.com/EmpoweredVote/Barangay-Backend/internal/incidents"
	"github.com/EmpoweredVote/Barangay-Backend/internal/residents"
	"github.com/apex/log"
)

const (
	maxResidentMatches = 5
	maxListed          = 5
	residentFetchLimit = 50
)

// DatabaseStage answers from barangay records. Each keyword block runs
// independently and their answers are joined.
type DatabaseStage struct {
	store Store
	now   func() time.Time
}

func NewDatabaseStage(store Store) *DatabaseStage {
	return &DatabaseStage{store: store, now: time.Now}
}

func (s *DatabaseStage) Name() string { return "database" }

type dbBlock struct {
	category string
	// private blocks read resident or blotter records and only run for
	// token-verified barangays.
	private bool
	match   func(q Query) bool
	answer  func(s *DatabaseStage, ctx context.Context, q Query) (string, error)
}

func mentions(words ...string) func(q Query) bool {
	return func(q Query) bool {
		for _, w := range words {
			if containsPhrase(q.Normalized, w) {
				return true
			}
		}
		return false
	}
}

var dbBlocks = []dbBlock{
	{"residents", true, mentions("how many residents", "number of residents", "population", "ilan ang residente", "total residents", "resident count",
		"how many voters", "how many seniors", "senior citizens", "pwd", "4ps", "indigent"), (*DatabaseStage).residentCount},
	{"residents", true, isNameSearch, (*DatabaseStage).residentSearch},
	{"households", true, mentions("household", "households", "how many families", "families", "pamilya"), (*DatabaseStage).households},
	{"events", false, mentions("event", "events", "activities", "upcoming", "schedule of", "kaganapan"), (*DatabaseStage).events},
	{"announcements", false, mentions("announcement", "announcements", "news", "update", "updates", "balita", "anunsyo"), (*DatabaseStage).announcements},
	{"officials", false, mentions("official", "officials", "captain", "kapitan", "kagawad", "councilor", "chairman", "punong barangay", "sk"), (*DatabaseStage).officials},
	{"incidents", true, mentions("incident", "incidents", "blotter", "cases", "complaints", "reklamo"), (*DatabaseStage).incidentSummary},
	{"documents", false, mentions("document", "documents", "certificate", "clearance", "certification", "permit", "fee", "fees", "magkano"), (*DatabaseStage).documentTypes},
	{"emergency", false, mentions("emergency", "hotline", "hotlines", "police", "fire", "ambulance", "rescue", "mdrrmo", "bfp", "pnp"), (*DatabaseStage).emergencyContacts},
}

func isNameSearch(q Query) bool {
	if !mentions("resident", "residents", "residente", "named", "who is", "find", "search", "hanapin", "sino si")(q) {
		return false
	}
	return len(ExtractNames(q.Text)) > 0
}

func (s *DatabaseStage) Handle(ctx context.Context, q Query) (*Reply, error) {
	if q.BarangayID == "" {
		return nil, nil
	}

	var parts []string
	var categories []string
	var firstErr error
	for _, b := range dbBlocks {
		if b.private && !q.Verified {
			continue
		}
		if !b.match(q) {
			continue
		}
		text, err := b.answer(s, ctx, q)
		if err != nil {
			log.WithError(err).WithField("block", b.category).Warn("[chat] database block failed")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if text != "" {
			parts = append(parts, text)
			categories = append(categories, b.category)
		}
	}

	if len(parts) == 0 {
		return nil, firstErr
	}
	category := categories[0]
	if len(parts) > 1 {
		category = "records"
	}
	return &Reply{Message: strings.Join(parts, "\n\n"), Source: SourceDatabase, Category: category}, nil
}

func (s *DatabaseStage) residentCount(ctx context.Context, q Query) (string, error) {
	c, err := s.store.CountResidents(ctx, q.BarangayID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	fmt.Fprintf(&b, "There are %d registered residents in your barangay.", c.Total)
	if c.Total > 0 {
		fmt.Fprintf(&b, " Registered voters: %d. Senior citizens: %d. PWD: %d. Indigent: %d. 4Ps beneficiaries: %d.",
			c.Voters, c.Seniors, c.PWD, c.Indigent, c.FourPs)
	}
	return b.String(), nil
}

func (s *DatabaseStage) residentSearch(ctx context.Context, q Query) (string, error) {
	names := ExtractNames(q.Text)
	found, err := s.findResidents(ctx, q.BarangayID, names)
	if err != nil {
		return "", err
	}
	if len(found) == 0 {
		return fmt.Sprintf("I couldn't find a resident matching %q.", strings.Join(names, " ")), nil
	}
	ranked := RankResidents(found, names)
	if len(ranked) > maxResidentMatches {
		ranked = ranked[:maxResidentMatches]
	}

	var b strings.Builder
	if len(ranked) == 1 {
		b.WriteString("I found 1 matching resident:")
	} else {
		fmt.Fprintf(&b, "I found %d matching residents:", len(ranked))
	}
	now := s.now()
	for _, r := range ranked {
		fmt.Fprintf(&b, "\n- %s", r.FullName())
		if r.Purok != "" {
			fmt.Fprintf(&b, ", Purok %s", r.Purok)
		}
		if age := r.Age(now); age >= 0 {
			fmt.Fprintf(&b, ", %d years old", age)
		}
	}
	return b.String(), nil
}

// findResidents tries each strategy in turn until one returns rows.
func (s *DatabaseStage) findResidents(ctx context.Context, barangayID string, names []string) ([]residents.Resident, error) {
	for _, strategy := range []NameStrategy{FullNameAND, FirstLastOR, AnyTokenOR} {
		if strategy == FirstLastOR && len(names) < 2 {
			continue
		}
		rows, err := s.store.SearchResidents(ctx, barangayID, strategy, names, residentFetchLimit)
		if err != nil {
			return nil, err
		}
		if len(rows) > 0 {
			return rows, nil
		}
	}
	return nil, nil
}

func (s *DatabaseStage) households(ctx context.Context, q Query) (string, error) {
	n, err := s.store.CountHouseholds(ctx, q.BarangayID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("There are %d registered households in your barangay.", n), nil
}

func (s *DatabaseStage) events(ctx context.Context, q Query) (string, error) {
	evs, err := s.store.UpcomingEvents(ctx, q.BarangayID, s.now(), maxListed)
	if err != nil {
		return "", err
	}
	if len(evs) == 0 {
		return "There are no upcoming barangay events scheduled.", nil
	}
	var b strings.Builder
	b.WriteString("Upcoming events:")
	for _, e := range evs {
		fmt.Fprintf(&b, "\n- %s on %s", e.Title, e.StartsAt.Format("Jan 2, 2006 3:04 PM"))
		if e.Location != "" {
			fmt.Fprintf(&b, " at %s", e.Location)
		}
	}
	return b.String(), nil
}

func (s *DatabaseStage) announcements(ctx context.Context, q Query) (string, error) {
	as, err := s.store.RecentAnnouncements(ctx, q.BarangayID, maxListed)
	if err != nil {
		return "", err
	}
	if len(as) == 0 {
		return "There are no announcements at the moment.", nil
	}
	var b strings.Builder
	b.WriteString("Latest announcements:")
	for _, a := range as {
		fmt.Fprintf(&b, "\n- %s", a.Title)
		if a.PublishedAt != nil {
			fmt.Fprintf(&b, " (%s)", a.PublishedAt.Format("Jan 2"))
		}
	}
	return b.String(), nil
}

func (s *DatabaseStage) officials(ctx context.Context, q Query) (string, error) {
	offs, err := s.store.CurrentOfficials(ctx, q.BarangayID, s.now())
	if err != nil {
		return "", err
	}
	if len(offs) == 0 {
		return "No barangay officials are on record yet.", nil
	}
	var b strings.Builder
	b.WriteString("Barangay officials:")
	for _, o := range offs {
		fmt.Fprintf(&b, "\n- %s, %s", o.Name, o.Position)
		if o.Committee != "" {
			fmt.Fprintf(&b, " (%s)", o.Committee)
		}
	}
	return b.String(), nil
}

func (s *DatabaseStage) incidentSummary(ctx context.Context, q Query) (string, error) {
	counts, err := s.store.IncidentCounts(ctx, q.BarangayID)
	if err != nil {
		return "", err
	}
	var total int64
	for _, n := range counts {
		total += n
	}
	if total == 0 {
		return "There are no blotter reports on record.", nil
	}

	statuses := incidents.Statuses()
	var parts []string
	for _, st := range statuses {
		if n := counts[st]; n > 0 {
			parts = append(parts, fmt.Sprintf("%s %d", strings.ReplaceAll(st, "_", " "), n))
		}
	}
	// Statuses outside the known set still count toward the total.
	var extra []string
	for st := range counts {
		if !slices.Contains(statuses, st) {
			extra = append(extra, st)
		}
	}
	sort.Strings(extra)
	for _, st := range extra {
		parts = append(parts, fmt.Sprintf("%s %d", st, counts[st]))
	}
	return fmt.Sprintf("There are %d blotter reports: %s.", total, strings.Join(parts, ", ")), nil
}

func (s *DatabaseStage) documentTypes(ctx context.Context, q Query) (string, error) {
	types, err := s.store.ActiveDocumentTypes(ctx, q.BarangayID)
	if err != nil {
		return "", err
	}
	if len(types) == 0 {
		return "No document types are set up for your barangay yet.", nil
	}
	var b strings.Builder
	b.WriteString("Documents the barangay issues:")
	for _, t := range types {
		if t.Fee.IsZero() {
			fmt.Fprintf(&b, "\n- %s (free)", t.Name)
		} else {
			fmt.Fprintf(&b, "\n- %s (PHP %s)", t.Name, t.Fee.StringFixed(2))
		}
	}
	return b.String(), nil
}

func (s *DatabaseStage) emergencyContacts(ctx context.Context, q Query) (string, error) {
	cs, err := s.store.EmergencyContacts(ctx, q.BarangayID)
	if err != nil {
		return "", err
	}
	if len(cs) == 0 {
		return "", nil
	}
	var b strings.Builder
	b.WriteString("Emergency hotlines:")
	for _, c := range cs {
		fmt.Fprintf(&b, "\n- %s: %s", c.Agency, c.Phone)
	}
	return b.String(), nil
}
