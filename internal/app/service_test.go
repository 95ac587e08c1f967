package app

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"missiontrack/api/internal/authpw"
	"missiontrack/api/internal/config"
	"missiontrack/api/internal/export"
	"missiontrack/api/internal/filter"
	"missiontrack/api/internal/mission"
	"missiontrack/api/internal/search"
	"missiontrack/api/internal/session"
	"missiontrack/api/internal/store"
)

type fakeStore struct {
	listMissionsFn    func(context.Context, string) ([]mission.Record, error)
	setFlagStatusFn   func(context.Context, string, string, string, string) (int64, error)
	filterOptionsFn   func(context.Context, string) ([]filter.Option, error)
	getUserByEmailFn  func(context.Context, string) (store.User, error)
	insertDocumentFn  func(context.Context, store.Document) error
	getDocumentFn     func(context.Context, string) (store.Document, error)
	deleteDocumentFn  func(context.Context, string) error
	listDocumentsFn   func(context.Context, string, string, string) ([]store.Document, error)
}

func (f *fakeStore) GetUserByEmail(ctx context.Context, email string) (store.User, error) {
	if f.getUserByEmailFn != nil {
		return f.getUserByEmailFn(ctx, email)
	}
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) GetUserByID(context.Context, string) (store.User, error) {
	return store.User{}, sql.ErrNoRows
}
func (f *fakeStore) ListMissions(ctx context.Context, profileID string) ([]mission.Record, error) {
	if f.listMissionsFn != nil {
		return f.listMissionsFn(ctx, profileID)
	}
	return nil, nil
}
func (f *fakeStore) SetFlagStatus(ctx context.Context, level, targetID, field, value string) (int64, error) {
	if f.setFlagStatusFn != nil {
		return f.setFlagStatusFn(ctx, level, targetID, field, value)
	}
	return 1, nil
}
func (f *fakeStore) FilterOptions(ctx context.Context, dimension string) ([]filter.Option, error) {
	if f.filterOptionsFn != nil {
		return f.filterOptionsFn(ctx, dimension)
	}
	return nil, nil
}
func (f *fakeStore) InsertDocument(ctx context.Context, doc store.Document) error {
	if f.insertDocumentFn != nil {
		return f.insertDocumentFn(ctx, doc)
	}
	return nil
}
func (f *fakeStore) GetDocument(ctx context.Context, id string) (store.Document, error) {
	if f.getDocumentFn != nil {
		return f.getDocumentFn(ctx, id)
	}
	return store.Document{}, sql.ErrNoRows
}
func (f *fakeStore) DeleteDocument(ctx context.Context, id string) error {
	if f.deleteDocumentFn != nil {
		return f.deleteDocumentFn(ctx, id)
	}
	return nil
}
func (f *fakeStore) ListDocuments(ctx context.Context, level, targetID, field string) ([]store.Document, error) {
	if f.listDocumentsFn != nil {
		return f.listDocumentsFn(ctx, level, targetID, field)
	}
	return nil, nil
}
func (f *fakeStore) Ping(context.Context) error { return nil }

type fakeSessions struct {
	refresh map[string]store.User
	views   map[string]session.ViewState
}

func newFakeSessions() *fakeSessions {
	return &fakeSessions{
		refresh: make(map[string]store.User),
		views:   make(map[string]session.ViewState),
	}
}

func (f *fakeSessions) SaveRefreshSession(_ context.Context, tokenHash string, user store.User, _ time.Time) error {
	f.refresh[tokenHash] = user
	return nil
}
func (f *fakeSessions) LookupRefreshSession(_ context.Context, tokenHash string) (store.User, error) {
	user, ok := f.refresh[tokenHash]
	if !ok {
		return store.User{}, errors.New("token not found or expired")
	}
	return user, nil
}
func (f *fakeSessions) RevokeRefreshSession(_ context.Context, tokenHash string) error {
	delete(f.refresh, tokenHash)
	return nil
}
func (f *fakeSessions) SaveViewState(_ context.Context, userID string, state session.ViewState) error {
	f.views[userID] = state
	return nil
}
func (f *fakeSessions) LoadViewState(_ context.Context, userID string) (session.ViewState, bool, error) {
	state, ok := f.views[userID]
	return state, ok, nil
}
func (f *fakeSessions) Ping(context.Context) error { return nil }

type fakeObjects struct {
	objects map[string][]byte
	putErr  error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: make(map[string][]byte)}
}

func (f *fakeObjects) Put(_ context.Context, key string, r io.Reader, _ int64, _ string) error {
	if f.putErr != nil {
		return f.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}
func (f *fakeObjects) Get(_ context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("object not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
func (f *fakeObjects) Remove(_ context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

type fakeSearch struct {
	searchFn func(search.Query) search.Response
}

func (f *fakeSearch) Search(q search.Query) search.Response {
	if f.searchFn != nil {
		return f.searchFn(q)
	}
	return search.Response{Results: []search.Result{}, Query: q.Text}
}

func mkMission(groupID, clientID, missionID string) mission.Record {
	r := mission.Record{
		GroupID:     groupID,
		GroupName:   "Groupe " + groupID,
		ClientID:    clientID,
		ClientName:  "Dossier " + clientID,
		MissionID:   missionID,
		Code:        "AC-" + missionID,
		Label:       "Audit " + missionID,
		Millesime:   "2025",
		EtatDossier: "ouvert",
		Bureau:      "Paris",
	}
	for _, field := range mission.Fields() {
		flag := mission.FlagRef(&r, field)
		flag.Value = mission.StatusNo
		flag.Access = "edit"
	}
	return r
}

// threeGroups builds 21 missions: 3 groups of 7 (one client with 4, one with
// 3), so page one at size 10 splits the second group.
func threeGroups() []mission.Record {
	var out []mission.Record
	for g := 1; g <= 3; g++ {
		groupID := fmt.Sprintf("g%d", g)
		n := 0
		for c := 1; c <= 2; c++ {
			clientID := fmt.Sprintf("%sc%d", groupID, c)
			count := 4
			if c == 2 {
				count = 3
			}
			for m := 0; m < count; m++ {
				n++
				out = append(out, mkMission(groupID, clientID, fmt.Sprintf("%sm%d", groupID, n)))
			}
		}
	}
	return out
}

func newTestService(missions []mission.Record) (*Service, *fakeStore, *fakeSessions, *fakeObjects) {
	fs := &fakeStore{
		listMissionsFn: func(context.Context, string) ([]mission.Record, error) {
			out := make([]mission.Record, len(missions))
			copy(out, missions)
			return out, nil
		},
	}
	sessions := newFakeSessions()
	objects := newFakeObjects()
	svc := &Service{
		cfg: config.Config{
			JWTSecret:  "test-secret",
			AccessTTL:  time.Hour,
			RefreshTTL: 24 * time.Hour,
		},
		store:    fs,
		sessions: sessions,
		docs:     objects,
		search:   &fakeSearch{},
		exporter: export.NewService(),
		authpw:   authpw.NewService(fs),
		log:      zerolog.Nop(),
		states:   make(map[string]*dashboardState),
	}
	return svc, fs, sessions, objects
}

func testSession() Session {
	return Session{UserID: "user-1", UserName: "Anna Martin", ProfileID: "manager"}
}

func TestDashboardPaging(t *testing.T) {
	svc, _, _, _ := newTestService(threeGroups())
	ctx := context.Background()
	sess := testSession()

	payload, err := svc.Dashboard(ctx, sess, 0)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	if payload.Pager.Current != 1 {
		t.Errorf("expected page 1, got %d", payload.Pager.Current)
	}
	if payload.TotalPages != 3 {
		t.Errorf("expected 3 pages for 21 missions, got %d", payload.TotalPages)
	}
	if got := payload.VisiblePages; len(got) != 3 || got[0] != "1" || got[2] != "3" {
		t.Errorf("unexpected visible pages %v", got)
	}
	if len(payload.Groups) != 2 {
		t.Fatalf("expected 2 groups on page 1, got %d", len(payload.Groups))
	}

	// g2 is split across the page boundary: only 3 of its missions are in
	// the window, but the counts come from the complete tree.
	g2 := payload.Groups[1]
	if g2.GroupID != "g2" {
		t.Fatalf("expected g2 second, got %s", g2.GroupID)
	}
	if g2.MissionCount != 7 {
		t.Errorf("expected full mission count 7 for split group, got %d", g2.MissionCount)
	}
	if g2.ClientCount != 2 {
		t.Errorf("expected client count 2, got %d", g2.ClientCount)
	}

	// Last page holds the remaining mission.
	payload, err = svc.Dashboard(ctx, sess, 3)
	if err != nil {
		t.Fatalf("Dashboard page 3 failed: %v", err)
	}
	if payload.Pager.Current != 3 {
		t.Errorf("expected page 3, got %d", payload.Pager.Current)
	}

	// Out-of-range page is ignored and the pager stays put.
	payload, err = svc.Dashboard(ctx, sess, 9)
	if err != nil {
		t.Fatalf("Dashboard page 9 failed: %v", err)
	}
	if payload.Pager.Current != 3 {
		t.Errorf("expected pager unchanged on out-of-range page, got %d", payload.Pager.Current)
	}
}

func TestSetFiltersResetsPageAndIgnoresUnknown(t *testing.T) {
	missions := threeGroups()
	// Make g3 the only closed group.
	for i := range missions {
		if missions[i].GroupID == "g3" {
			missions[i].EtatDossier = "cloture"
		}
	}
	svc, _, sessions, _ := newTestService(missions)
	ctx := context.Background()
	sess := testSession()

	if _, err := svc.Dashboard(ctx, sess, 2); err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	payload, err := svc.SetFilters(ctx, sess, map[string][]string{
		"etat_dossier": {"cloture"},
		"warp_drive":   {"on"},
		"bureau":       {},
	})
	if err != nil {
		t.Fatalf("SetFilters failed: %v", err)
	}

	if payload.Pager.Current != 1 {
		t.Errorf("expected filter change to reset to page 1, got %d", payload.Pager.Current)
	}
	if payload.Pager.TotalItems != 7 {
		t.Errorf("expected 7 filtered missions, got %d", payload.Pager.TotalItems)
	}
	if len(payload.Groups) != 1 || payload.Groups[0].GroupID != "g3" {
		t.Errorf("expected only g3 after filter, got %+v", payload.Groups)
	}
	if _, ok := payload.Filters["warp_drive"]; ok {
		t.Error("unknown dimension should be dropped")
	}
	if _, ok := payload.Filters["bureau"]; ok {
		t.Error("empty value list should be dropped")
	}

	// Filters are persisted for the next login.
	saved := sessions.views[sess.UserID]
	if got := saved.Filters["etat_dossier"]; len(got) != 1 || got[0] != "cloture" {
		t.Errorf("expected persisted filter, got %v", saved.Filters)
	}
}

func TestToggleExpandSurvivesPageChange(t *testing.T) {
	svc, _, _, _ := newTestService(threeGroups())
	ctx := context.Background()
	sess := testSession()

	if _, err := svc.Dashboard(ctx, sess, 0); err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}

	payload, err := svc.ToggleExpand(ctx, sess, "group", "g1", "")
	if err != nil {
		t.Fatalf("ToggleExpand failed: %v", err)
	}
	if payload.Groups[0].Expanded {
		t.Error("expected g1 collapsed")
	}
	if len(payload.Groups[0].Clients) != 0 {
		t.Error("collapsed group should not render clients")
	}

	// Leave and come back: the collapse is remembered on the complete tree.
	if _, err := svc.Dashboard(ctx, sess, 3); err != nil {
		t.Fatalf("Dashboard page 3 failed: %v", err)
	}
	payload, err = svc.Dashboard(ctx, sess, 1)
	if err != nil {
		t.Fatalf("Dashboard page 1 failed: %v", err)
	}
	if payload.Groups[0].Expanded {
		t.Error("expected g1 still collapsed after page round trip")
	}

	// Client toggle.
	payload, err = svc.ToggleExpand(ctx, sess, "client", "g2", "g2c1")
	if err != nil {
		t.Fatalf("ToggleExpand client failed: %v", err)
	}
	for _, g := range payload.Groups {
		if g.GroupID != "g2" {
			continue
		}
		for _, c := range g.Clients {
			if c.ClientID == "g2c1" && c.Expanded {
				t.Error("expected g2c1 collapsed")
			}
		}
	}

	// Unknown node.
	if _, err := svc.ToggleExpand(ctx, sess, "group", "nope", ""); err == nil {
		t.Error("expected error for unknown group")
	}
	if _, err := svc.ToggleExpand(ctx, sess, "floor", "g1", ""); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestExpandAllToggles(t *testing.T) {
	svc, _, _, _ := newTestService(threeGroups())
	ctx := context.Background()
	sess := testSession()

	payload, err := svc.Dashboard(ctx, sess, 0)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if !payload.AllExpanded {
		t.Fatal("expected everything expanded initially")
	}

	payload, err = svc.ExpandAll(ctx, sess, nil)
	if err != nil {
		t.Fatalf("ExpandAll failed: %v", err)
	}
	if payload.AllExpanded {
		t.Error("expected collapse-all")
	}
	for _, g := range payload.Groups {
		if g.Expanded {
			t.Errorf("group %s should be collapsed", g.GroupID)
		}
	}

	payload, err = svc.ExpandAll(ctx, sess, nil)
	if err != nil {
		t.Fatalf("ExpandAll failed: %v", err)
	}
	if !payload.AllExpanded {
		t.Error("expected expand-all on second toggle")
	}
}

func TestExpandAllExplicitValue(t *testing.T) {
	svc, _, _, _ := newTestService(threeGroups())
	ctx := context.Background()
	sess := testSession()

	// Asking an already-expanded tree to expand must not collapse it.
	expand := true
	payload, err := svc.ExpandAll(ctx, sess, &expand)
	if err != nil {
		t.Fatalf("ExpandAll failed: %v", err)
	}
	if !payload.AllExpanded {
		t.Error("expected tree to stay expanded")
	}

	expand = false
	payload, err = svc.ExpandAll(ctx, sess, &expand)
	if err != nil {
		t.Fatalf("ExpandAll failed: %v", err)
	}
	if payload.AllExpanded {
		t.Error("expected collapse")
	}

	// Repeating the same explicit value is idempotent.
	payload, err = svc.ExpandAll(ctx, sess, &expand)
	if err != nil {
		t.Fatalf("ExpandAll failed: %v", err)
	}
	if payload.AllExpanded {
		t.Error("expected tree to stay collapsed")
	}
}

func TestSetStatusMissionLevel(t *testing.T) {
	missions := threeGroups()
	var gotLevel, gotTarget, gotField, gotValue string
	svc, fs, _, _ := newTestService(missions)
	fs.setFlagStatusFn = func(_ context.Context, level, targetID, field, value string) (int64, error) {
		gotLevel, gotTarget, gotField, gotValue = level, targetID, field, value
		return 1, nil
	}
	ctx := context.Background()
	sess := testSession()

	payload, err := svc.SetStatus(ctx, sess, StatusInput{
		Level: "mission", TargetID: "g1m1", Field: mission.FieldQAM, Value: mission.StatusYes,
	})
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}
	if gotLevel != "mission" || gotTarget != "g1m1" || gotField != "qam" || gotValue != "yes" {
		t.Errorf("unexpected store call %s/%s/%s/%s", gotLevel, gotTarget, gotField, gotValue)
	}

	// The patched mission's before-phase now has 1 of 2 mission-level flags
	// done.
	found := false
	for _, g := range payload.Groups {
		for _, c := range g.Clients {
			for _, m := range c.Missions {
				if m.MissionID == "g1m1" {
					found = true
					if m.Completion.Before.Done != 1 || m.Completion.Before.Total != 2 {
						t.Errorf("expected before 1/2, got %d/%d", m.Completion.Before.Done, m.Completion.Before.Total)
					}
					if m.Completion.Before.Percent != 50 {
						t.Errorf("expected 50%%, got %d", m.Completion.Before.Percent)
					}
				}
			}
		}
	}
	if !found {
		t.Fatal("patched mission not in payload")
	}
	if payload.Generation == 0 {
		t.Error("expected generation bump")
	}
}

func TestSetStatusClientPropagation(t *testing.T) {
	svc, _, _, _ := newTestService(threeGroups())
	ctx := context.Background()
	sess := testSession()

	payload, err := svc.SetStatus(ctx, sess, StatusInput{
		Level: "client", TargetID: "g1c1", Field: mission.FieldConflictCheck, Value: mission.StatusYes,
	})
	if err != nil {
		t.Fatalf("SetStatus failed: %v", err)
	}

	// Client-level before completion gains the conflictCheck flag: the
	// client has 4 missions, so before = 2*4 + 2 client flags = 10 slots.
	for _, g := range payload.Groups {
		if g.GroupID != "g1" {
			continue
		}
		for _, c := range g.Clients {
			if c.ClientID != "g1c1" {
				continue
			}
			if c.Completion.Before.Done != 1 || c.Completion.Before.Total != 10 {
				t.Errorf("expected client before 1/10, got %d/%d", c.Completion.Before.Done, c.Completion.Before.Total)
			}
		}
	}
}

func TestSetStatusValidation(t *testing.T) {
	svc, fs, _, _ := newTestService(threeGroups())
	ctx := context.Background()
	sess := testSession()

	var domainErr *DomainError

	// Field scope must match the level.
	_, err := svc.SetStatus(ctx, sess, StatusInput{Level: "group", TargetID: "g1", Field: mission.FieldQAM, Value: "yes"})
	if !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Errorf("expected 422 for scope mismatch, got %v", err)
	}

	// NOG-only value on a regular flag.
	_, err = svc.SetStatus(ctx, sess, StatusInput{Level: "mission", TargetID: "g1m1", Field: mission.FieldQAM, Value: mission.StatusAssocie})
	if !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Errorf("expected 422 for invalid value, got %v", err)
	}

	// NOG accepts its extended statuses.
	if _, err := svc.SetStatus(ctx, sess, StatusInput{Level: "mission", TargetID: "g1m1", Field: mission.FieldNOG, Value: mission.StatusAssocie}); err != nil {
		t.Errorf("expected NOG associe to be accepted: %v", err)
	}

	// Unknown field.
	_, err = svc.SetStatus(ctx, sess, StatusInput{Level: "mission", TargetID: "g1m1", Field: "sparkle", Value: "yes"})
	if !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Errorf("expected 422 for unknown field, got %v", err)
	}

	// Store reports no matching row.
	fs.setFlagStatusFn = func(context.Context, string, string, string, string) (int64, error) {
		return 0, nil
	}
	_, err = svc.SetStatus(ctx, sess, StatusInput{Level: "mission", TargetID: "gone", Field: mission.FieldQAM, Value: "yes"})
	if !errors.As(err, &domainErr) || domainErr.Status != 404 {
		t.Errorf("expected 404 for missing target, got %v", err)
	}
}

func TestSetStatusAccessDenied(t *testing.T) {
	missions := threeGroups()
	for i := range missions {
		missions[i].Before.QAM.Access = "view"
	}
	svc, _, _, _ := newTestService(missions)

	var domainErr *DomainError
	_, err := svc.SetStatus(context.Background(), testSession(), StatusInput{
		Level: "mission", TargetID: "g1m1", Field: mission.FieldQAM, Value: "yes",
	})
	if !errors.As(err, &domainErr) || domainErr.Status != 403 {
		t.Errorf("expected 403 for view-only flag, got %v", err)
	}
}

func TestFilterOptions(t *testing.T) {
	svc, fs, _, _ := newTestService(nil)
	fs.filterOptionsFn = func(_ context.Context, dimension string) ([]filter.Option, error) {
		return []filter.Option{{Value: "Paris", Label: "Paris"}}, nil
	}
	ctx := context.Background()

	options, err := svc.FilterOptions(ctx, "mois_cloture")
	if err != nil {
		t.Fatalf("FilterOptions failed: %v", err)
	}
	if len(options) != 12 {
		t.Errorf("expected 12 closing months, got %d", len(options))
	}

	options, err = svc.FilterOptions(ctx, "bureau")
	if err != nil {
		t.Fatalf("FilterOptions bureau failed: %v", err)
	}
	if len(options) != 1 || options[0].Value != "Paris" {
		t.Errorf("unexpected options %v", options)
	}

	var domainErr *DomainError
	if _, err := svc.FilterOptions(ctx, "nonsense"); !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Errorf("expected 422 for unknown dimension, got %v", err)
	}
}

func TestRecapFlag(t *testing.T) {
	missions := threeGroups()
	// Mark qam done on every g1 mission (7 of 21).
	for i := range missions {
		if missions[i].GroupID == "g1" {
			missions[i].Before.QAM.Value = mission.StatusYes
		}
	}
	svc, _, _, _ := newTestService(missions)
	ctx := context.Background()
	sess := testSession()

	payload, err := svc.RecapFlag(ctx, sess, mission.FieldQAM)
	if err != nil {
		t.Fatalf("RecapFlag failed: %v", err)
	}
	if payload.Done != 7 || payload.Total != 21 {
		t.Errorf("expected 7/21, got %d/%d", payload.Done, payload.Total)
	}
	if payload.Literal != "7 / 21" {
		t.Errorf("expected literal, got %q", payload.Literal)
	}
	if payload.Complete {
		t.Error("should not be complete")
	}
	if len(payload.Groups) != 3 {
		t.Fatalf("expected 3 group rows, got %d", len(payload.Groups))
	}
	g1 := payload.Groups[0]
	if g1.GroupID != "g1" || g1.Done != 7 || g1.Total != 7 || !g1.Complete {
		t.Errorf("unexpected g1 row %+v", g1)
	}

	var domainErr *DomainError
	if _, err := svc.RecapFlag(ctx, sess, "sparkle"); !errors.As(err, &domainErr) || domainErr.Status != 422 {
		t.Errorf("expected 422 for unknown flag, got %v", err)
	}
}

func TestRecapSections(t *testing.T) {
	svc, _, _, _ := newTestService(threeGroups())
	data, err := svc.Recap(context.Background(), testSession())
	if err != nil {
		t.Fatalf("Recap failed: %v", err)
	}
	if len(data.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(data.Sections))
	}
	if data.GeneratedBy != "Anna Martin" {
		t.Errorf("expected generator name, got %q", data.GeneratedBy)
	}
}

func TestSessionLifecycle(t *testing.T) {
	hash, err := authpw.HashPassword("hunter2hunter2")
	if err != nil {
		t.Fatal(err)
	}
	svc, fs, sessions, _ := newTestService(threeGroups())
	fs.getUserByEmailFn = func(_ context.Context, email string) (store.User, error) {
		if email == "anna@example.com" {
			return store.User{ID: "user-1", DisplayName: "Anna Martin", Email: email, PasswordHash: hash, ProfileID: "manager"}, nil
		}
		return store.User{}, sql.ErrNoRows
	}
	ctx := context.Background()

	sess, err := svc.SignIn(ctx, "anna@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}
	if sess.Token == "" || sess.RefreshToken == "" {
		t.Fatal("expected tokens")
	}
	if sess.ProfileID != "manager" {
		t.Errorf("expected profile, got %q", sess.ProfileID)
	}

	parsed, err := svc.SessionFromToken(ctx, sess.Token)
	if err != nil {
		t.Fatalf("SessionFromToken failed: %v", err)
	}
	if parsed.UserID != "user-1" || parsed.UserName != "Anna Martin" {
		t.Errorf("unexpected parsed session %+v", parsed)
	}

	// Refresh rotates the refresh token.
	refreshed, err := svc.Refresh(ctx, sess.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if refreshed.RefreshToken == sess.RefreshToken {
		t.Error("expected new refresh token")
	}
	if _, err := svc.Refresh(ctx, sess.RefreshToken); err == nil {
		t.Error("expected old refresh token to be revoked")
	}

	// Logout drops the cached projection and the refresh session.
	if _, err := svc.Dashboard(ctx, refreshed, 0); err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if err := svc.Logout(ctx, refreshed, refreshed.RefreshToken); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if len(sessions.refresh) != 0 {
		t.Error("expected refresh sessions revoked")
	}
	svc.mu.Lock()
	_, cached := svc.states[refreshed.UserID]
	svc.mu.Unlock()
	if cached {
		t.Error("expected projection dropped on logout")
	}

	if _, err := svc.SignIn(ctx, "anna@example.com", "wrong"); !errors.Is(err, authpw.ErrInvalidCredentials) {
		t.Errorf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestDashboardRestoresPersistedViewState(t *testing.T) {
	svc, _, sessions, _ := newTestService(threeGroups())
	sess := testSession()
	sessions.views[sess.UserID] = session.ViewState{
		Filters:  map[string][]string{"etat_dossier": {"ouvert"}},
		Page:     2,
		Expanded: map[string]bool{"g:g1": false},
	}

	payload, err := svc.Dashboard(context.Background(), sess, 0)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	if payload.Pager.Current != 2 {
		t.Errorf("expected restored page 2, got %d", payload.Pager.Current)
	}
	if got := payload.Filters["etat_dossier"]; len(got) != 1 || got[0] != "ouvert" {
		t.Errorf("expected restored filters, got %v", payload.Filters)
	}
	if payload.AllExpanded {
		t.Error("expected g1 restored collapsed")
	}
}

func TestRestoreDefaultsUnsavedNodesToExpandAll(t *testing.T) {
	svc, _, sessions, _ := newTestService(threeGroups())
	sess := testSession()
	// A collapsed-all session that only ever saw g1: g2 and g3 are absent
	// from the key set and must come back collapsed, not expanded.
	sessions.views[sess.UserID] = session.ViewState{
		ExpandAll: false,
		Expanded:  map[string]bool{"g:g1": true},
	}

	payload, err := svc.Dashboard(context.Background(), sess, 0)
	if err != nil {
		t.Fatalf("Dashboard failed: %v", err)
	}
	for _, g := range payload.Groups {
		switch g.GroupID {
		case "g1":
			if !g.Expanded {
				t.Error("expected g1 restored expanded")
			}
		default:
			if g.Expanded {
				t.Errorf("expected %s collapsed by the expand-all default", g.GroupID)
			}
		}
	}
}

func TestDocumentLifecycle(t *testing.T) {
	docs := make(map[string]store.Document)
	svc, fs, _, objects := newTestService(threeGroups())
	fs.insertDocumentFn = func(_ context.Context, doc store.Document) error {
		docs[doc.ID] = doc
		return nil
	}
	fs.getDocumentFn = func(_ context.Context, id string) (store.Document, error) {
		doc, ok := docs[id]
		if !ok {
			return store.Document{}, sql.ErrNoRows
		}
		return doc, nil
	}
	fs.deleteDocumentFn = func(_ context.Context, id string) error {
		delete(docs, id)
		return nil
	}
	ctx := context.Background()
	sess := testSession()

	doc, err := svc.UploadDocument(ctx, sess, UploadInput{
		MissionID:   "g1m1",
		Level:       "mission",
		Field:       mission.FieldQAM,
		Filename:    "qam-2025.pdf",
		ContentType: "application/pdf",
		Size:        4,
		Body:        bytes.NewReader([]byte("%PDF")),
	})
	if err != nil {
		t.Fatalf("UploadDocument failed: %v", err)
	}
	if doc.TargetID != "g1m1" {
		t.Errorf("expected target defaulted to mission, got %q", doc.TargetID)
	}
	if doc.UploadedBy != sess.UserID {
		t.Errorf("expected uploader, got %q", doc.UploadedBy)
	}
	if _, ok := objects.objects[doc.ObjectKey]; !ok {
		t.Fatal("expected object stored")
	}

	got, body, err := svc.DownloadDocument(ctx, sess, doc.ID)
	if err != nil {
		t.Fatalf("DownloadDocument failed: %v", err)
	}
	data, _ := io.ReadAll(body)
	body.Close()
	if string(data) != "%PDF" {
		t.Errorf("unexpected body %q", data)
	}
	if got.Filename != "qam-2025.pdf" {
		t.Errorf("unexpected filename %q", got.Filename)
	}

	if err := svc.DeleteDocument(ctx, sess, doc.ID); err != nil {
		t.Fatalf("DeleteDocument failed: %v", err)
	}
	if _, ok := objects.objects[doc.ObjectKey]; ok {
		t.Error("expected object removed")
	}
	if _, _, err := svc.DownloadDocument(ctx, sess, doc.ID); err == nil {
		t.Error("expected error after delete")
	}
}

func TestUploadDocumentAccessDenied(t *testing.T) {
	missions := threeGroups()
	for i := range missions {
		missions[i].Before.QAM.Access = "noaccess"
	}
	svc, _, _, _ := newTestService(missions)

	var domainErr *DomainError
	_, err := svc.UploadDocument(context.Background(), testSession(), UploadInput{
		MissionID: "g1m1",
		Level:     "mission",
		Field:     mission.FieldQAM,
		Filename:  "x.pdf",
		Body:      bytes.NewReader(nil),
	})
	if !errors.As(err, &domainErr) || domainErr.Status != 403 {
		t.Errorf("expected 403, got %v", err)
	}
}

func TestUploadRollsBackObjectOnInsertFailure(t *testing.T) {
	svc, fs, _, objects := newTestService(threeGroups())
	fs.insertDocumentFn = func(context.Context, store.Document) error {
		return errors.New("insert failed")
	}

	_, err := svc.UploadDocument(context.Background(), testSession(), UploadInput{
		MissionID: "g1m1",
		Level:     "mission",
		Field:     mission.FieldQAM,
		Filename:  "x.pdf",
		Body:      bytes.NewReader([]byte("data")),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(objects.objects) != 0 {
		t.Error("expected uploaded object removed after insert failure")
	}
}
