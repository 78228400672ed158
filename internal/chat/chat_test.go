package chat

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/EmpoweredVote/Barangay-Backend/internal/community"
	"github.com/EmpoweredVote/Barangay-Backend/internal/db"
	"github.com/EmpoweredVote/Barangay-Backend/internal/documents"
	"github.com/EmpoweredVote/Barangay-Backend/internal/residents"
	"github.com/EmpoweredVote/Barangay-Backend/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore serves canned rows and records which strategies were tried.
type fakeStore struct {
	faqs       []FAQ
	faqCalls   int
	counts     ResidentCounts
	byStrategy map[NameStrategy][]residents.Resident
	tried      []NameStrategy
	households int64
	contacts   []community.EmergencyContact
	err        error
}

func (f *fakeStore) ListFAQs(context.Context, string) ([]FAQ, error) {
	f.faqCalls++
	return f.faqs, f.err
}

func (f *fakeStore) CountResidents(context.Context, string) (ResidentCounts, error) {
	return f.counts, f.err
}

func (f *fakeStore) SearchResidents(_ context.Context, _ string, s NameStrategy, _ []string, _ int) ([]residents.Resident, error) {
	f.tried = append(f.tried, s)
	return f.byStrategy[s], f.err
}

func (f *fakeStore) CountHouseholds(context.Context, string) (int64, error) {
	return f.households, f.err
}

func (f *fakeStore) UpcomingEvents(context.Context, string, time.Time, int) ([]community.Event, error) {
	return nil, f.err
}

func (f *fakeStore) RecentAnnouncements(context.Context, string, int) ([]community.Announcement, error) {
	return nil, f.err
}

func (f *fakeStore) CurrentOfficials(context.Context, string, time.Time) ([]community.Official, error) {
	return nil, f.err
}

func (f *fakeStore) IncidentCounts(context.Context, string) (map[string]int64, error) {
	return map[string]int64{}, f.err
}

func (f *fakeStore) ActiveDocumentTypes(context.Context, string) ([]documents.DocumentType, error) {
	return nil, f.err
}

func (f *fakeStore) EmergencyContacts(context.Context, string) ([]community.EmergencyContact, error) {
	return f.contacts, f.err
}

func query(text string) Query {
	return Query{Text: text, Normalized: Normalize(text), BarangayID: "brgy-1", Verified: true, Online: true}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"Niño's  Clearance!!":          "nino s clearance",
		"  Magkano   ang\tCEDULA? ":    "magkano ang cedula",
		"ＡＢＣ":                          "abc",
		"Barangay-clearance/indigency": "barangay clearance indigency",
		"":                             "",
		"?!...":                        "",
	}
	for in, want := range cases {
		assert.Equal(t, want, Normalize(in), "input %q", in)
	}
}

func TestSignificantWords(t *testing.T) {
	assert.Equal(t, []string{"barangay", "clearance"}, SignificantWords("how do i get a barangay clearance"))
	assert.Empty(t, SignificantWords("paano po ba"))
}

func TestExtractIntent(t *testing.T) {
	cases := map[string]string{
		"magkano ang clearance":                   IntentFee,
		"saan ang barangay hall":                  IntentLocation,
		"what are the requirements for clearance": IntentRequirements,
		"what time is the office open":            IntentSchedule,
		"i want to file a reklamo":                IntentComplaint,
		"thanks":                                  "",
	}
	for in, want := range cases {
		assert.Equal(t, want, ExtractIntent(in), "input %q", in)
	}
}

func TestFAQStage_NilForShortQueries(t *testing.T) {
	store := &fakeStore{faqs: []FAQ{{Question: "What is the fee?", Answer: "PHP 50", Keywords: []string{"fee"}}}}
	stage := NewFAQStage(store)

	for _, text := range []string{"clearance", "fee?", "what is the fee", "paano po ba ito", "hello hello", "дом мир", "Pañó ñiño"} {
		q := query(text)
		require.True(t, tooShortForFAQ(q.Normalized), "query %q", text)
		r, err := stage.Handle(context.Background(), q)
		assert.NoError(t, err)
		assert.Nil(t, r, "query %q", text)
	}
	assert.Zero(t, store.faqCalls, "short queries never reach the store")
}

func TestFAQStage_ScoresBestFAQ(t *testing.T) {
	store := &fakeStore{faqs: []FAQ{
		{Question: "When is the barangay assembly?", Answer: "Every last Saturday.", Keywords: []string{"assembly"}, Category: "events"},
		{Question: "How much is the barangay clearance fee?", Answer: "PHP 50.", Keywords: []string{"barangay clearance", "clearance fee", "fee"}, Category: "documents"},
	}}
	stage := NewFAQStage(store)

	r, err := stage.Handle(context.Background(), query("How much is the barangay clearance fee?"))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "PHP 50.", r.Message)
	assert.Equal(t, SourceFAQ, r.Source)
	assert.Equal(t, "documents", r.Category)

	assert.InDelta(t, 1.0, ScoreFAQ(Normalize("How much is the barangay clearance fee?"), store.faqs[1]), 1e-9)

	r, err = stage.Handle(context.Background(), query("where is the evacuation center"))
	require.NoError(t, err)
	assert.Nil(t, r)
}

func TestFAQStage_StoreError(t *testing.T) {
	stage := NewFAQStage(&fakeStore{err: errors.New("db down")})
	r, err := stage.Handle(context.Background(), query("how much is the clearance fee"))
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestOfflineStage_Embedded(t *testing.T) {
	stage, err := LoadOffline("")
	require.NoError(t, err)

	q := query("Barangay clearance po")
	q.Online = false
	r, err := stage.Handle(context.Background(), q)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, SourceOffline, r.Source)
	assert.Equal(t, "documents", r.Category)
	assert.Contains(t, r.Message, "barangay clearance")
}

func TestOfflineStage_OnlineNeedsCoverage(t *testing.T) {
	stage, err := ParseOffline([]byte(`
entries:
  - category: emergency
    keywords: [fire]
    answer: "Call 911."
`))
	require.NoError(t, err)

	long := query("can you list the residents who were affected by the fire last week in purok three")
	r, err := stage.Handle(context.Background(), long)
	require.NoError(t, err)
	assert.Nil(t, r, "a passing keyword in a long online question is left to later stages")

	long.Online = false
	r, err = stage.Handle(context.Background(), long)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "Call 911.", r.Message)

	r, err = stage.Handle(context.Background(), query("Fire!"))
	require.NoError(t, err)
	require.NotNil(t, r)
}

func TestNavigationStage(t *testing.T) {
	r, err := NavigationStage{}.Handle(context.Background(), query("How do I issue a barangay clearance?"))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, SourceNavigation, r.Source)
	assert.Equal(t, "documents", r.Category)

	r, err = NavigationStage{}.Handle(context.Background(), query("Where can I draw an evacuation route?"))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "map", r.Category)

	r, err = NavigationStage{}.Handle(context.Background(), query("barangay clearance"))
	require.NoError(t, err)
	assert.Nil(t, r, "no navigation phrase")
}

func TestExtractNames(t *testing.T) {
	assert.Equal(t, []string{"juan", "dela", "cruz"}, ExtractNames("Is there a resident named Juan Dela Cruz?"))
	assert.Equal(t, []string{"maria", "santos"}, ExtractNames("find Maria Santos in purok 3"))
	assert.Equal(t, []string{"jose", "rizal"}, ExtractNames("Do we have Jose Rizal on record"))
	assert.Empty(t, ExtractNames("how many residents are there"))
}

func TestRankResidents_Example(t *testing.T) {
	cands := []residents.Resident{
		{FirstName: "Juana", LastName: "Cruz"},
		{FirstName: "Pedro", LastName: "Reyes"},
		{FirstName: "Juan", LastName: "Santos"},
	}
	ranked := RankResidents(cands, []string{"juan", "santos"})
	assert.Equal(t, "Juan Santos", ranked[0].FullName())
	assert.Equal(t, "Juana Cruz", ranked[1].FullName())
	assert.Equal(t, "Pedro Reyes", ranked[2].FullName())
}

func TestRankResidents_HigherOverlapNeverBelowLower(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	firsts := []string{"Juan", "Juana", "Jose", "Maria", "Mario", "Ana", "Anna", "Pedro"}
	lasts := []string{"Santos", "Santiago", "Cruz", "De la Cruz", "Reyes", "Reyes-Ramos", "Garcia"}

	for round := 0; round < 200; round++ {
		cands := make([]residents.Resident, rng.Intn(12))
		for i := range cands {
			cands[i] = residents.Resident{
				FirstName:  firsts[rng.Intn(len(firsts))],
				MiddleName: []string{"", "Lopez"}[rng.Intn(2)],
				LastName:   lasts[rng.Intn(len(lasts))],
				Purok:      string(rune('A' + i)),
			}
		}
		names := []string{Normalize(firsts[rng.Intn(len(firsts))]), Normalize(lasts[rng.Intn(len(lasts))])}

		ranked := RankResidents(cands, names)
		require.Len(t, ranked, len(cands))
		for i := 1; i < len(ranked); i++ {
			prev, cur := nameOverlap(ranked[i-1], names), nameOverlap(ranked[i], names)
			require.GreaterOrEqual(t, prev, cur, "round %d position %d", round, i)
			if prev == cur {
				// Purok encodes input order; ties keep it.
				require.Less(t, ranked[i-1].Purok, ranked[i].Purok)
			}
		}
	}
}

func TestLongestCommonSubstring(t *testing.T) {
	assert.Equal(t, 0, longestCommonSubstring("", "abc"))
	assert.Equal(t, 4, longestCommonSubstring("juana cruz", "juan"))
	assert.Equal(t, 6, longestCommonSubstring("juan santos", "santos"))
	assert.Equal(t, 2, longestCommonSubstring("juana cruz", "santos"))
}

func TestDatabaseStage_ResidentCount(t *testing.T) {
	store := &fakeStore{counts: ResidentCounts{Total: 120, Voters: 80, Seniors: 15, PWD: 4, Indigent: 9, FourPs: 6}}
	r, err := NewDatabaseStage(store).Handle(context.Background(), query("How many residents are there?"))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, SourceDatabase, r.Source)
	assert.Equal(t, "residents", r.Category)
	assert.Contains(t, r.Message, "There are 120 registered residents")
	assert.Contains(t, r.Message, "Registered voters: 80")
	assert.Empty(t, store.tried, "no name in the question")
}

func TestDatabaseStage_NameSearchFallsThroughStrategies(t *testing.T) {
	store := &fakeStore{byStrategy: map[NameStrategy][]residents.Resident{
		FirstLastOR: {
			{FirstName: "Juana", LastName: "Cruz", Purok: "1"},
			{FirstName: "Juan", LastName: "Santos", Purok: "2"},
		},
	}}
	r, err := NewDatabaseStage(store).Handle(context.Background(), query("find Juan Santos"))
	require.NoError(t, err)
	require.NotNil(t, r)

	assert.Equal(t, []NameStrategy{FullNameAND, FirstLastOR}, store.tried)
	assert.Contains(t, r.Message, "I found 2 matching residents")
	assert.Less(t, strings.Index(r.Message, "Juan Santos"), strings.Index(r.Message, "Juana Cruz"))
}

func TestDatabaseStage_JoinsBlocks(t *testing.T) {
	store := &fakeStore{counts: ResidentCounts{Total: 3}, households: 2}
	r, err := NewDatabaseStage(store).Handle(context.Background(), query("how many residents and households do we have"))
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "records", r.Category)
	assert.Contains(t, r.Message, "3 registered residents")
	assert.Contains(t, r.Message, "2 registered households")
}

func TestDatabaseStage_SkipsWithoutBarangay(t *testing.T) {
	q := query("how many residents are there")
	q.BarangayID = ""
	r, err := NewDatabaseStage(&fakeStore{}).Handle(context.Background(), q)
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestDatabaseStage_UnverifiedBarangayGetsPublicDataOnly(t *testing.T) {
	store := &fakeStore{
		counts:     ResidentCounts{Total: 120},
		households: 40,
		byStrategy: map[NameStrategy][]residents.Resident{
			FullNameAND: {{FirstName: "Maria", LastName: "Santos", Purok: "4"}},
		},
		contacts: []community.EmergencyContact{{Agency: "BFP", Phone: "160"}},
	}
	stage := NewDatabaseStage(store)

	for _, text := range []string{"find resident Maria Santos", "how many residents are there", "how many households", "any blotter cases"} {
		q := query(text)
		q.Verified = false
		r, err := stage.Handle(context.Background(), q)
		assert.NoError(t, err)
		assert.Nil(t, r, "query %q", text)
	}
	assert.Empty(t, store.tried, "resident search never runs for a claimed barangay")

	q := query("what are the emergency hotlines")
	q.Verified = false
	r, err := stage.Handle(context.Background(), q)
	require.NoError(t, err)
	require.NotNil(t, r)
	assert.Equal(t, "emergency", r.Category)
}

func TestDatabaseStage_ErrorFallsThrough(t *testing.T) {
	r, err := NewDatabaseStage(&fakeStore{err: errors.New("db down")}).Handle(context.Background(), query("how many households"))
	assert.Error(t, err)
	assert.Nil(t, r)
}

// stub is a scripted stage.
type stub struct {
	name  string
	reply *Reply
	err   error
	panic bool
	calls *[]string
	seen  *Query
}

func (s stub) Name() string { return s.name }

func (s stub) Handle(_ context.Context, q Query) (*Reply, error) {
	if s.calls != nil {
		*s.calls = append(*s.calls, s.name)
	}
	if s.seen != nil {
		*s.seen = q
	}
	if s.panic {
		panic("boom")
	}
	return s.reply, s.err
}

func TestDispatcher_OrderAndFallThrough(t *testing.T) {
	var calls []string
	want := &Reply{Message: "from db", Source: SourceDatabase, Category: "residents"}
	d := NewDispatcher(
		stub{name: "offline", calls: &calls},
		stub{name: "faq", err: errors.New("faq store down"), calls: &calls},
		stub{name: "navigation", panic: true, calls: &calls},
		stub{name: "database", reply: want, calls: &calls},
		stub{name: "llm", reply: &Reply{Message: "never"}, calls: &calls},
	)

	got := d.Answer(context.Background(), Query{Text: "how many residents", Online: true})
	assert.Equal(t, *want, got)
	assert.Equal(t, []string{"offline", "faq", "navigation", "database"}, calls)
}

func TestDispatcher_FallbackApology(t *testing.T) {
	d := NewDispatcher(stub{name: "offline"}, stub{name: "faq"}, stub{name: "llm", err: errors.New("timeout")})
	got := d.Answer(context.Background(), Query{Text: "something obscure", Online: true})
	assert.Equal(t, Apology, got.Message)
	assert.Equal(t, SourceFallback, got.Source)
}

func TestDispatcher_OfflineModeOnlyRunsOffline(t *testing.T) {
	var calls []string
	d := NewDispatcher(
		stub{name: "offline", calls: &calls},
		stub{name: "faq", reply: &Reply{Message: "online answer"}, calls: &calls},
	)
	got := d.Answer(context.Background(), Query{Text: "how many residents", Online: false})
	assert.Equal(t, OfflineDefault, got.Message)
	assert.Equal(t, SourceOffline, got.Source)
	assert.Equal(t, []string{"offline"}, calls)
}

func TestDispatcher_NormalizesBeforeStages(t *testing.T) {
	var seen Query
	d := NewDispatcher(stub{name: "offline", seen: &seen, reply: &Reply{Message: "ok"}})
	d.Answer(context.Background(), Query{Text: "Niño's CLEARANCE?", Online: true})
	assert.Equal(t, "nino s clearance", seen.Normalized)
}

func TestLLMClient_SendsHistoryAndParses(t *testing.T) {
	var got completionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		assert.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{"choices":[{"message":{"role":"assistant","content":"  Open 8 to 5.  "}}]}`)
	}))
	defer srv.Close()

	var history []Message
	for i := 0; i < 12; i++ {
		role := "user"
		if i%2 == 1 {
			role = "assistant"
		}
		history = append(history, Message{Role: role, Content: "turn"})
	}
	history = append(history, Message{Role: "system", Content: "ignored"})

	c := NewLLMClient(Config{APIKey: "test-key", Model: "m", Endpoint: srv.URL, Timeout: time.Second})
	text, err := c.Complete(context.Background(), history, "When is the hall open?")
	require.NoError(t, err)
	assert.Equal(t, "Open 8 to 5.", text)

	assert.Equal(t, "m", got.Model)
	require.Len(t, got.Messages, 1+historyTurns+1)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, Message{Role: "user", Content: "When is the hall open?"}, got.Messages[len(got.Messages)-1])
}

func TestLLMClient_Errors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/empty" {
			io.WriteString(w, `{"choices":[]}`)
			return
		}
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := NewLLMClient(Config{APIKey: "k", Endpoint: srv.URL, Timeout: time.Second})
	_, err := c.Complete(context.Background(), nil, "hi")
	assert.ErrorContains(t, err, "status 429")

	c = NewLLMClient(Config{APIKey: "k", Endpoint: srv.URL + "/empty", Timeout: time.Second})
	_, err = c.Complete(context.Background(), nil, "hi")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestLLMStage_DisabledWithoutClient(t *testing.T) {
	r, err := NewLLMStage(nil).Handle(context.Background(), query("tell me something"))
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func postChat(t *testing.T, e *Endpoint, body string) Reply {
	t.Helper()
	rec := httptest.NewRecorder()
	e.Chat(rec, httptest.NewRequest(http.MethodPost, "/chat", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	var out Reply
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestChat_BadJSONStillAnswers(t *testing.T) {
	e := NewEndpoint(NewDispatcher(stub{name: "offline"}), nil)
	got := postChat(t, e, `{"messages": [`)
	assert.Equal(t, Reply{Message: Apology, Source: SourceFallback, Category: "general"}, got)
}

func TestChat_ResolvesBarangayFromToken(t *testing.T) {
	var seen Query
	d := NewDispatcher(stub{name: "offline"}, stub{name: "db", seen: &seen, reply: &Reply{Message: "ok", Source: SourceDatabase, Category: "residents"}})
	resolve := func(token string) (utils.SessionData, bool) {
		return utils.SessionData{BarangayID: "brgy-from-token"}, token == "tok"
	}
	e := NewEndpoint(d, resolve)

	got := postChat(t, e, `{
		"messages": [{"role":"user","content":"hello"},{"role":"assistant","content":"hi"},{"role":"user","content":"How many residents?"}],
		"authToken": "Bearer tok",
		"userBrgyId": "brgy-claimed",
		"isOnlineMode": true
	}`)
	assert.Equal(t, "ok", got.Message)
	assert.Equal(t, "How many residents?", seen.Text)
	assert.Equal(t, "brgy-from-token", seen.BarangayID)
	assert.True(t, seen.Verified)
	assert.Len(t, seen.History, 2)

	postChat(t, e, `{"messages":[{"role":"user","content":"How many residents?"}],"authToken":"bad","userBrgyId":"brgy-claimed"}`)
	assert.Equal(t, "brgy-claimed", seen.BarangayID)
	assert.False(t, seen.Verified, "a claimed barangay is not verified")
	assert.True(t, seen.Online, "online is the default")
}

func TestChat_OfflineMode(t *testing.T) {
	var calls []string
	e := NewEndpoint(NewDispatcher(stub{name: "offline", calls: &calls}, stub{name: "faq", calls: &calls}), nil)
	got := postChat(t, e, `{"messages":[{"role":"user","content":"how many residents"}],"isOnlineMode":false}`)
	assert.Equal(t, SourceOffline, got.Source)
	assert.Equal(t, OfflineDefault, got.Message)
	assert.Equal(t, []string{"offline"}, calls)
}

func TestConfig(t *testing.T) {
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_ENDPOINT", "")
	t.Setenv("LLM_TIMEOUT_SECONDS", "")
	c := LoadFromEnv()
	assert.Equal(t, DefaultModel, c.Model)
	assert.Equal(t, DefaultTimeout, c.Timeout)
	assert.False(t, c.LLMEnabled())
	assert.NoError(t, c.Validate())

	t.Setenv("LLM_API_KEY", "k")
	t.Setenv("LLM_ENDPOINT", "not a url")
	c = LoadFromEnv()
	assert.True(t, c.LLMEnabled())
	assert.ErrorIs(t, c.Validate(), ErrInvalidEndpoint)
}

func TestGormStore_CountHouseholds(t *testing.T) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer sqlDB.Close()
	gdb, err := db.OpenWithConn(sqlDB)
	require.NoError(t, err)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "barangay"."households" WHERE barangay_id = $1`)).
		WithArgs("brgy-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	n, err := NewGormStore(gdb).CountHouseholds(context.Background(), "brgy-1")
	require.NoError(t, err)
	assert.EqualValues(t, 42, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}
