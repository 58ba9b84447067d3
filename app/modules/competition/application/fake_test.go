package competitionservice

import (
	"context"
	"encoding/json"
	"slices"
	"sort"
	"sync"
	"time"

	competitiondb "github.com/Black-And-White-Club/comp-rounds/app/modules/competition/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// Fake Competition Repo
// ------------------------

// FakeCompetitionRepo keeps state in memory. Any XxxFunc that is set replaces
// the in-memory behavior of that method.
type FakeCompetitionRepo struct {
	mu    sync.Mutex
	trace []string

	users        map[string]*competitiondb.User
	competitions map[uuid.UUID]*competitiondb.Competition
	rounds       map[uuid.UUID]*competitiondb.Round
	results      map[uuid.UUID]*competitiondb.Result
	groups       map[uuid.UUID]*competitiondb.Group
	seq          int

	GetUserFunc             func(ctx context.Context, db bun.IDB, userID string) (*competitiondb.User, error)
	GetCompetitionByRefFunc func(ctx context.Context, db bun.IDB, ref string) (*competitiondb.Competition, error)
	CreateCompetitionFunc   func(ctx context.Context, db bun.IDB, competition *competitiondb.Competition) error
	LockEventFunc           func(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) error
	ListEventRoundsFunc     func(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) ([]*competitiondb.Round, error)
	InsertRoundFunc         func(ctx context.Context, db bun.IDB, round *competitiondb.Round) error
	InsertResultsFunc       func(ctx context.Context, db bun.IDB, results []*competitiondb.Result) error
	DeleteResultsFunc       func(ctx context.Context, db bun.IDB, roundID uuid.UUID, userIDs []string) error
}

func NewFakeCompetitionRepo() *FakeCompetitionRepo {
	return &FakeCompetitionRepo{
		trace:        []string{},
		users:        map[string]*competitiondb.User{},
		competitions: map[uuid.UUID]*competitiondb.Competition{},
		rounds:       map[uuid.UUID]*competitiondb.Round{},
		results:      map[uuid.UUID]*competitiondb.Result{},
		groups:       map[uuid.UUID]*competitiondb.Group{},
	}
}

func (f *FakeCompetitionRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// tick yields strictly increasing timestamps so insertion order is observable.
func (f *FakeCompetitionRepo) tick() time.Time {
	f.seq++
	return time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.seq) * time.Millisecond)
}

// --- Seeding helpers ---

func (f *FakeCompetitionRepo) AddUser(u *competitiondb.User) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.users[u.ID] = u
}

func (f *FakeCompetitionRepo) AddCompetition(c *competitiondb.Competition) *competitiondb.Competition {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	f.competitions[c.ID] = c
	return c
}

func (f *FakeCompetitionRepo) AddRoundRow(r *competitiondb.Round) *competitiondb.Round {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = f.tick()
	f.rounds[r.ID] = r
	return r
}

func (f *FakeCompetitionRepo) AddResultRow(r *competitiondb.Result) *competitiondb.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	r.CreatedAt = f.tick()
	f.results[r.ID] = r
	return r
}

// --- Repository Interface Implementation ---

func (f *FakeCompetitionRepo) GetUser(ctx context.Context, db bun.IDB, userID string) (*competitiondb.User, error) {
	f.mu.Lock()
	f.record("GetUser")
	fn := f.GetUserFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, userID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[userID]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) GetCompetition(ctx context.Context, db bun.IDB, competitionID uuid.UUID) (*competitiondb.Competition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetCompetition")
	if c, ok := f.competitions[competitionID]; ok {
		cp := *c
		return &cp, nil
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) GetCompetitionByRef(ctx context.Context, db bun.IDB, ref string) (*competitiondb.Competition, error) {
	f.mu.Lock()
	f.record("GetCompetitionByRef")
	fn := f.GetCompetitionByRefFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, ref)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.competitions {
		if c.ID.String() == ref || (c.WCACompetitionID != nil && *c.WCACompetitionID == ref) {
			cp := *c
			return &cp, nil
		}
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) CreateCompetition(ctx context.Context, db bun.IDB, competition *competitiondb.Competition) error {
	f.mu.Lock()
	f.record("CreateCompetition")
	fn := f.CreateCompetitionFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, competition)
	}
	f.AddCompetition(competition)
	return nil
}

func (f *FakeCompetitionRepo) UpdateCompetitionFields(ctx context.Context, db bun.IDB, competitionID uuid.UUID, columns map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateCompetitionFields")
	c, ok := f.competitions[competitionID]
	if !ok {
		return competitiondb.ErrNotFound
	}
	for column, value := range columns {
		switch column {
		case "competition_name":
			c.CompetitionName = value.(string)
		case "organizers":
			c.Organizers = value.([]string)
		case "staff":
			c.Staff = value.([]string)
		case "start_date":
			if value == nil {
				c.StartDate = time.Time{}
			} else {
				c.StartDate = value.(time.Time)
			}
		case "number_of_days":
			c.NumberOfDays = value.(int)
		case "calendar_start_minutes":
			c.CalendarStartMinutes = value.(int)
		case "calendar_end_minutes":
			c.CalendarEndMinutes = value.(int)
		case "listed":
			c.Listed = value.(bool)
		case "wca_competition_id":
			c.WCACompetitionID = value.(*string)
		}
	}
	return nil
}

func (f *FakeCompetitionRepo) DeleteCompetition(ctx context.Context, db bun.IDB, competitionID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteCompetition")
	if _, ok := f.competitions[competitionID]; !ok {
		return competitiondb.ErrNotFound
	}
	for id, g := range f.groups {
		if g.CompetitionID == competitionID {
			delete(f.groups, id)
		}
	}
	for id, r := range f.results {
		if r.CompetitionID == competitionID {
			delete(f.results, id)
		}
	}
	for id, r := range f.rounds {
		if r.CompetitionID == competitionID {
			delete(f.rounds, id)
		}
	}
	delete(f.competitions, competitionID)
	return nil
}

func (f *FakeCompetitionRepo) LockEvent(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) error {
	f.mu.Lock()
	f.record("LockEvent")
	fn := f.LockEventFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, competitionID, eventCode)
	}
	return nil
}

func (f *FakeCompetitionRepo) GetRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) (*competitiondb.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetRound")
	if r, ok := f.rounds[roundID]; ok {
		cp := *r
		return &cp, nil
	}
	return nil, competitiondb.ErrNotFound
}

// eventRounds returns copies sorted like the SQL repository does.
func (f *FakeCompetitionRepo) eventRounds(competitionID uuid.UUID, eventCode string) []*competitiondb.Round {
	var out []*competitiondb.Round
	for _, r := range f.rounds {
		if r.CompetitionID == competitionID && r.Event() == eventCode && r.IsEventRound() {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.NthRound != b.NthRound {
			return a.NthRound < b.NthRound
		}
		if a.HasSoftCutoff() != b.HasSoftCutoff() {
			return !a.HasSoftCutoff()
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

func (f *FakeCompetitionRepo) ListEventRounds(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) ([]*competitiondb.Round, error) {
	f.mu.Lock()
	f.record("ListEventRounds")
	fn := f.ListEventRoundsFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, competitionID, eventCode)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventRounds(competitionID, eventCode), nil
}

func (f *FakeCompetitionRepo) ListCompetitionRounds(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]*competitiondb.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListCompetitionRounds")
	var out []*competitiondb.Round
	for _, r := range f.rounds {
		if r.CompetitionID == competitionID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Event() != out[j].Event() {
			return out[i].Event() < out[j].Event()
		}
		return out[i].NthRound < out[j].NthRound
	})
	return out, nil
}

func (f *FakeCompetitionRepo) CountEventRounds(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CountEventRounds")
	return len(f.eventRounds(competitionID, eventCode)), nil
}

func (f *FakeCompetitionRepo) GetNthRound(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string, nthRound int) (*competitiondb.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetNthRound")
	for _, r := range f.eventRounds(competitionID, eventCode) {
		if r.NthRound == nthRound {
			return r, nil
		}
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) GetLastEventRound(ctx context.Context, db bun.IDB, competitionID uuid.UUID, eventCode string) (*competitiondb.Round, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetLastEventRound")
	rounds := f.eventRounds(competitionID, eventCode)
	if len(rounds) == 0 {
		return nil, competitiondb.ErrNotFound
	}
	return rounds[len(rounds)-1], nil
}

func (f *FakeCompetitionRepo) InsertRound(ctx context.Context, db bun.IDB, round *competitiondb.Round) error {
	f.mu.Lock()
	f.record("InsertRound")
	fn := f.InsertRoundFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, round)
	}
	cp := *round
	f.AddRoundRow(&cp)
	round.ID = cp.ID
	round.CreatedAt = cp.CreatedAt
	return nil
}

func (f *FakeCompetitionRepo) UpdateRoundPosition(ctx context.Context, db bun.IDB, roundID uuid.UUID, nthRound int, roundCode string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateRoundPosition")
	r, ok := f.rounds[roundID]
	if !ok {
		return competitiondb.ErrNotFound
	}
	r.NthRound = nthRound
	r.RoundCode = roundCode
	return nil
}

func (f *FakeCompetitionRepo) UpdateRoundFields(ctx context.Context, db bun.IDB, roundID uuid.UUID, columns map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("UpdateRoundFields")
	r, ok := f.rounds[roundID]
	if !ok {
		return competitiondb.ErrNotFound
	}
	for column, value := range columns {
		switch column {
		case "format_code":
			r.FormatCode = value.(string)
		case "title":
			r.Title = value.(string)
		case "nth_day":
			r.NthDay = value.(int)
		case "start_minutes":
			r.StartMinutes = value.(int)
		case "duration_minutes":
			r.DurationMinutes = value.(int)
		case "soft_cutoff":
			if value == nil {
				r.SoftCutoff = nil
			} else {
				cutoff := &competitiondb.SoftCutoff{}
				if err := json.Unmarshal([]byte(value.(string)), cutoff); err != nil {
					return err
				}
				r.SoftCutoff = cutoff
			}
		}
	}
	return nil
}

func (f *FakeCompetitionRepo) DeleteRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteRound")
	if _, ok := f.rounds[roundID]; !ok {
		return competitiondb.ErrNotFound
	}
	delete(f.rounds, roundID)
	return nil
}

func (f *FakeCompetitionRepo) CountResults(ctx context.Context, db bun.IDB, roundID uuid.UUID) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("CountResults")
	n := 0
	for _, r := range f.results {
		if r.RoundID == roundID {
			n++
		}
	}
	return n, nil
}

func (f *FakeCompetitionRepo) roundResults(roundID uuid.UUID) []*competitiondb.Result {
	var out []*competitiondb.Result
	for _, r := range f.results {
		if r.RoundID == roundID {
			cp := *r
			out = append(out, &cp)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Position != nil && b.Position != nil && *a.Position != *b.Position:
			return *a.Position < *b.Position
		case a.Position != nil && b.Position == nil:
			return true
		case a.Position == nil && b.Position != nil:
			return false
		}
		return a.CreatedAt.Before(b.CreatedAt)
	})
	return out
}

func (f *FakeCompetitionRepo) ListResults(ctx context.Context, db bun.IDB, roundID uuid.UUID) ([]*competitiondb.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ListResults")
	return f.roundResults(roundID), nil
}

func (f *FakeCompetitionRepo) DeleteResults(ctx context.Context, db bun.IDB, roundID uuid.UUID, userIDs []string) error {
	f.mu.Lock()
	f.record("DeleteResults")
	fn := f.DeleteResultsFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, roundID, userIDs)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, r := range f.results {
		if r.RoundID == roundID && slices.Contains(userIDs, r.UserID) {
			delete(f.results, id)
		}
	}
	return nil
}

func (f *FakeCompetitionRepo) InsertResults(ctx context.Context, db bun.IDB, results []*competitiondb.Result) error {
	f.mu.Lock()
	f.record("InsertResults")
	fn := f.InsertResultsFunc
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, db, results)
	}
	for _, r := range results {
		cp := *r
		f.AddResultRow(&cp)
		r.ID = cp.ID
	}
	return nil
}

func (f *FakeCompetitionRepo) GetGroup(ctx context.Context, db bun.IDB, roundID uuid.UUID, label string) (*competitiondb.Group, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetGroup")
	for _, g := range f.groups {
		if g.RoundID == roundID && g.Label == label {
			cp := *g
			return &cp, nil
		}
	}
	return nil, competitiondb.ErrNotFound
}

func (f *FakeCompetitionRepo) InsertGroup(ctx context.Context, db bun.IDB, group *competitiondb.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("InsertGroup")
	if group.ID == uuid.Nil {
		group.ID = uuid.New()
	}
	cp := *group
	f.groups[group.ID] = &cp
	return nil
}

func (f *FakeCompetitionRepo) ReplaceGroup(ctx context.Context, db bun.IDB, group *competitiondb.Group) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("ReplaceGroup")
	if _, ok := f.groups[group.ID]; !ok {
		return competitiondb.ErrNotFound
	}
	cp := *group
	f.groups[group.ID] = &cp
	return nil
}

func (f *FakeCompetitionRepo) DeleteGroupsByRound(ctx context.Context, db bun.IDB, roundID uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("DeleteGroupsByRound")
	for id, g := range f.groups {
		if g.RoundID == roundID {
			delete(f.groups, id)
		}
	}
	return nil
}

// --- Accessors for assertions ---

func (f *FakeCompetitionRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeCompetitionRepo) ResetTrace() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = f.trace[:0]
}

// Writes returns the mutating calls recorded in the trace.
func (f *FakeCompetitionRepo) Writes() []string {
	var out []string
	for _, step := range f.Trace() {
		switch step {
		case "CreateCompetition", "UpdateCompetitionFields", "DeleteCompetition",
			"InsertRound", "UpdateRoundPosition", "UpdateRoundFields", "DeleteRound",
			"DeleteResults", "InsertResults", "InsertGroup", "ReplaceGroup", "DeleteGroupsByRound":
			out = append(out, step)
		}
	}
	return out
}

// RoundUsers returns the user ids holding a result in roundID, sorted.
func (f *FakeCompetitionRepo) RoundUsers(roundID uuid.UUID) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, r := range f.results {
		if r.RoundID == roundID {
			out = append(out, r.UserID)
		}
	}
	sort.Strings(out)
	return out
}

func (f *FakeCompetitionRepo) Result(roundID uuid.UUID, userID string) *competitiondb.Result {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.results {
		if r.RoundID == roundID && r.UserID == userID {
			cp := *r
			return &cp
		}
	}
	return nil
}

func (f *FakeCompetitionRepo) EventRounds(competitionID uuid.UUID, eventCode string) []*competitiondb.Round {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.eventRounds(competitionID, eventCode)
}

func (f *FakeCompetitionRepo) GroupCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.groups)
}

// Ensure the fake actually satisfies the interface
var _ competitiondb.Repository = (*FakeCompetitionRepo)(nil)
