package app

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"missiontrack/api/internal/access"
	"missiontrack/api/internal/auth"
	"missiontrack/api/internal/authpw"
	"missiontrack/api/internal/config"
	"missiontrack/api/internal/docstore"
	"missiontrack/api/internal/export"
	"missiontrack/api/internal/filter"
	"missiontrack/api/internal/mission"
	"missiontrack/api/internal/paging"
	"missiontrack/api/internal/search"
	"missiontrack/api/internal/session"
	"missiontrack/api/internal/store"
	"missiontrack/api/internal/util"
	"missiontrack/api/internal/view"
)

type Session struct {
	Token        string
	RefreshToken string
	UserID       string
	UserName     string
	ProfileID    string
	JTI          string
	ExpiresAt    time.Time
}

type dataStore interface {
	GetUserByEmail(ctx context.Context, email string) (store.User, error)
	GetUserByID(ctx context.Context, id string) (store.User, error)
	ListMissions(ctx context.Context, profileID string) ([]mission.Record, error)
	SetFlagStatus(ctx context.Context, level, targetID, field, value string) (int64, error)
	FilterOptions(ctx context.Context, dimension string) ([]filter.Option, error)
	InsertDocument(ctx context.Context, doc store.Document) error
	GetDocument(ctx context.Context, id string) (store.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	ListDocuments(ctx context.Context, level, targetID, field string) ([]store.Document, error)
	Ping(ctx context.Context) error
}

type sessionStore interface {
	SaveRefreshSession(ctx context.Context, tokenHash string, user store.User, expiresAt time.Time) error
	LookupRefreshSession(ctx context.Context, tokenHash string) (store.User, error)
	RevokeRefreshSession(ctx context.Context, tokenHash string) error
	SaveViewState(ctx context.Context, userID string, state session.ViewState) error
	LoadViewState(ctx context.Context, userID string) (session.ViewState, bool, error)
	Ping(ctx context.Context) error
}

type objectStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Remove(ctx context.Context, key string) error
}

type searchService interface {
	Search(q search.Query) search.Response
}

// dashboardState is the per-user server-side projection of the dashboard.
// The complete tree spans the whole filtered list and owns expand state; the
// paginated tree is rebuilt from the current page window and mirrors it.
type dashboardState struct {
	all        []mission.Record
	filters    filter.Active
	filtered   []mission.Record
	pager      paging.Pager
	complete   *view.Tree
	paginated  *view.Tree
	generation int
	loadedAt   time.Time
}

type Service struct {
	cfg      config.Config
	store    dataStore
	sessions sessionStore
	docs     objectStore
	search   searchService
	exporter *export.Service
	authpw   *authpw.Service
	log      zerolog.Logger

	mu     sync.Mutex
	states map[string]*dashboardState
}

func New(cfg config.Config, dataStore *store.PostgresStore, sessions *session.RedisStore, docs *docstore.Store, searchSvc *search.Service, log zerolog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		store:    dataStore,
		sessions: sessions,
		docs:     docs,
		search:   searchSvc,
		exporter: export.NewService(),
		authpw:   authpw.NewService(dataStore),
		log:      log.With().Str("component", "app").Logger(),
		states:   make(map[string]*dashboardState),
	}
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func (s *Service) PingSessions(ctx context.Context) error {
	return s.sessions.Ping(ctx)
}

// --- sessions ---

func (s *Service) SignIn(ctx context.Context, email, password string) (Session, error) {
	user, err := s.authpw.SignIn(ctx, authpw.SignInRequest{Email: email, Password: password})
	if err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	tokenHash := auth.HashToken(refreshToken)
	user, err := s.sessions.LookupRefreshSession(ctx, tokenHash)
	if err != nil {
		return Session{}, auth.ErrInvalidToken
	}
	if err := s.sessions.RevokeRefreshSession(ctx, tokenHash); err != nil {
		return Session{}, err
	}
	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user store.User) (Session, error) {
	now := time.Now()
	expiresAt := now.Add(s.cfg.AccessTTL)
	jti := util.NewID("jti")

	token, err := auth.IssueToken([]byte(s.cfg.JWTSecret), auth.Claims{
		Sub:     user.ID,
		Name:    user.DisplayName,
		Profile: user.ProfileID,
		JTI:     jti,
		Exp:     expiresAt.Unix(),
	})
	if err != nil {
		return Session{}, err
	}

	refresh := util.NewID("rft") + util.NewID("")
	refreshExpires := now.Add(s.cfg.RefreshTTL)
	if err := s.sessions.SaveRefreshSession(ctx, auth.HashToken(refresh), user, refreshExpires); err != nil {
		return Session{}, err
	}

	return Session{
		Token:        token,
		RefreshToken: refresh,
		UserID:       user.ID,
		UserName:     user.DisplayName,
		ProfileID:    user.ProfileID,
		JTI:          jti,
		ExpiresAt:    expiresAt,
	}, nil
}

func (s *Service) SessionFromToken(_ context.Context, token string) (Session, error) {
	claims, err := auth.ParseToken([]byte(s.cfg.JWTSecret), token)
	if err != nil {
		return Session{}, err
	}
	return Session{
		Token:     token,
		UserID:    claims.Sub,
		UserName:  claims.Name,
		ProfileID: claims.Profile,
		JTI:       claims.JTI,
		ExpiresAt: time.Unix(claims.Exp, 0),
	}, nil
}

func (s *Service) Logout(ctx context.Context, sess Session, refreshToken string) error {
	if refreshToken != "" {
		_ = s.sessions.RevokeRefreshSession(ctx, auth.HashToken(refreshToken))
	}
	s.mu.Lock()
	delete(s.states, sess.UserID)
	s.mu.Unlock()
	return nil
}

// --- dashboard projection ---

func newDashboardState(missions []mission.Record) *dashboardState {
	st := &dashboardState{
		all:      missions,
		filters:  filter.Active{},
		loadedAt: time.Now(),
	}
	st.refilter()
	st.pager = paging.New(len(st.filtered))
	st.rebuildPage()
	return st
}

// refilter recomputes the filtered list and rebuilds the complete tree,
// carrying expand state over to nodes that survived the filter change.
func (st *dashboardState) refilter() {
	st.filtered = filter.Apply(st.all, st.filters)
	var keys map[string]bool
	if st.complete != nil {
		keys = st.complete.ExpandedKeys()
	}
	st.complete = view.Build(st.filtered, true)
	st.complete.RestoreExpanded(keys)
}

// rebuildPage rebuilds the paginated tree from the current page window and
// mirrors expand flags from the complete tree.
func (st *dashboardState) rebuildPage() {
	start, end := st.pager.Bounds()
	st.paginated = view.Build(st.filtered[start:end], true)
	st.paginated.SyncFrom(st.complete)
}

func (s *Service) stateFor(ctx context.Context, sess Session) (*dashboardState, error) {
	s.mu.Lock()
	if st, ok := s.states[sess.UserID]; ok {
		s.mu.Unlock()
		return st, nil
	}
	s.mu.Unlock()

	missions, err := s.store.ListMissions(ctx, sess.ProfileID)
	if err != nil {
		return nil, err
	}

	st := newDashboardState(missions)

	saved, hasSaved, err := s.sessions.LoadViewState(ctx, sess.UserID)
	if err != nil {
		s.log.Warn().Err(err).Str("user", sess.UserID).Msg("load view state")
		hasSaved = false
	}
	if hasSaved {
		st.filters = knownFilters(saved.Filters)
		st.refilter()
		// Nodes missing from the saved key set (missions added since the
		// state was written) default to the saved expand-all state.
		view.SetAll(st.complete, st.paginated, saved.ExpandAll)
		st.complete.RestoreExpanded(saved.Expanded)
		st.pager.Reset(len(st.filtered))
		st.pager.GoTo(saved.Page)
		st.rebuildPage()
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.states[sess.UserID]; ok {
		return existing, nil
	}
	s.states[sess.UserID] = st
	return st, nil
}

// knownFilters drops unknown dimensions and empty value lists.
func knownFilters(raw map[string][]string) filter.Active {
	active := filter.Active{}
	for dim, values := range raw {
		if !filter.Known(dim) || len(values) == 0 {
			continue
		}
		active[dim] = values
	}
	return active
}

func (s *Service) persistView(ctx context.Context, userID string, st *dashboardState) {
	state := session.ViewState{
		Filters:   st.filters,
		Page:      st.pager.Current,
		Expanded:  st.complete.ExpandedKeys(),
		ExpandAll: st.complete.AllExpanded(),
	}
	if err := s.sessions.SaveViewState(ctx, userID, state); err != nil {
		s.log.Warn().Err(err).Str("user", userID).Msg("persist view state")
	}
}

func (s *Service) Dashboard(ctx context.Context, sess Session, page int) (DashboardPayload, error) {
	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return DashboardPayload{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if page > 0 && st.pager.GoTo(page) {
		st.rebuildPage()
		s.persistView(ctx, sess.UserID, st)
	}
	return buildPayload(st), nil
}

func (s *Service) SetFilters(ctx context.Context, sess Session, raw map[string][]string) (DashboardPayload, error) {
	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return DashboardPayload{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	st.filters = knownFilters(raw)
	st.refilter()
	st.pager.Reset(len(st.filtered))
	st.rebuildPage()
	st.generation++
	s.persistView(ctx, sess.UserID, st)
	return buildPayload(st), nil
}

// moisClotureOptions is the fixed closing-month dimension, the only one not
// derived from the data.
var moisClotureOptions = []filter.Option{
	{Value: "1", Label: "Janvier"}, {Value: "2", Label: "Fevrier"},
	{Value: "3", Label: "Mars"}, {Value: "4", Label: "Avril"},
	{Value: "5", Label: "Mai"}, {Value: "6", Label: "Juin"},
	{Value: "7", Label: "Juillet"}, {Value: "8", Label: "Aout"},
	{Value: "9", Label: "Septembre"}, {Value: "10", Label: "Octobre"},
	{Value: "11", Label: "Novembre"}, {Value: "12", Label: "Decembre"},
}

func (s *Service) FilterOptions(ctx context.Context, dimension string) ([]filter.Option, error) {
	if !filter.Known(dimension) {
		return nil, domainError(http.StatusUnprocessableEntity, "UNKNOWN_DIMENSION", fmt.Sprintf("unknown filter dimension %q", dimension), nil)
	}
	if dimension == filter.DimMoisCloture {
		return moisClotureOptions, nil
	}
	options, err := s.store.FilterOptions(ctx, dimension)
	if err != nil {
		return nil, err
	}
	return options, nil
}

func (s *Service) ToggleExpand(ctx context.Context, sess Session, level, groupID, clientID string) (DashboardPayload, error) {
	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return DashboardPayload{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var ok bool
	switch level {
	case "group":
		ok = view.ToggleGroup(st.paginated, st.complete, groupID)
	case "client":
		ok = view.ToggleClient(st.paginated, st.complete, groupID, clientID)
	default:
		return DashboardPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "level must be group or client", nil)
	}
	if !ok {
		return DashboardPayload{}, domainError(http.StatusNotFound, "NOT_FOUND", "node not found", nil)
	}
	s.persistView(ctx, sess.UserID, st)
	return buildPayload(st), nil
}

// ExpandAll sets every node to the requested state. A nil request flips to
// the opposite of the current all-expanded state, so one button can serve as
// both expand-all and collapse-all.
func (s *Service) ExpandAll(ctx context.Context, sess Session, expand *bool) (DashboardPayload, error) {
	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return DashboardPayload{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	target := !st.complete.AllExpanded()
	if expand != nil {
		target = *expand
	}
	view.SetAll(st.complete, st.paginated, target)
	s.persistView(ctx, sess.UserID, st)
	return buildPayload(st), nil
}

// --- status changes ---

var allowedStatuses = map[string]struct{}{
	mission.StatusYes:        {},
	mission.StatusInProgress: {},
	mission.StatusNo:         {},
}

var allowedNOGStatuses = map[string]struct{}{
	mission.StatusYes:           {},
	mission.StatusInProgress:    {},
	mission.StatusNo:            {},
	mission.StatusCollaborateur: {},
	mission.StatusAssocie:       {},
	mission.StatusRedaction:     {},
}

func validStatus(field, value string) bool {
	if field == mission.FieldNOG {
		_, ok := allowedNOGStatuses[value]
		return ok
	}
	_, ok := allowedStatuses[value]
	return ok
}

func levelKey(level view.Level) string {
	switch level {
	case view.LevelGroup:
		return "group"
	case view.LevelClient:
		return "client"
	default:
		return "mission"
	}
}

func scopeLevel(scope mission.Scope) view.Level {
	switch scope {
	case mission.ScopeGroup:
		return view.LevelGroup
	case mission.ScopeClient:
		return view.LevelClient
	default:
		return view.LevelMission
	}
}

type StatusInput struct {
	Level    string `json:"level"`
	TargetID string `json:"targetId"`
	Field    string `json:"field"`
	Value    string `json:"value"`
}

func (s *Service) SetStatus(ctx context.Context, sess Session, input StatusInput) (DashboardPayload, error) {
	level, ok := view.ParseLevel(input.Level)
	if !ok {
		return DashboardPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown level %q", input.Level), nil)
	}
	scope, ok := mission.FieldScope(input.Field)
	if !ok {
		return DashboardPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown field %q", input.Field), nil)
	}
	if scopeLevel(scope) != level {
		return DashboardPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("field %q cannot be set at level %q", input.Field, input.Level), nil)
	}
	if !validStatus(input.Field, input.Value) {
		return DashboardPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("invalid status value %q", input.Value), nil)
	}
	if strings.TrimSpace(input.TargetID) == "" {
		return DashboardPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "targetId is required", nil)
	}

	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return DashboardPayload{}, err
	}

	patch := view.StatusPatch{Level: level, TargetID: input.TargetID, Field: input.Field, Value: input.Value}

	s.mu.Lock()
	acc := flagAccess(st.all, patch)
	s.mu.Unlock()
	if !access.CanEdit(acc) {
		return DashboardPayload{}, domainError(http.StatusForbidden, "ACCESS_DENIED", "no edit access on this flag", nil)
	}

	rows, err := s.store.SetFlagStatus(ctx, levelKey(level), input.TargetID, input.Field, input.Value)
	if err != nil {
		return DashboardPayload{}, err
	}
	if rows == 0 {
		return DashboardPayload{}, domainError(http.StatusNotFound, "NOT_FOUND", "status target not found", nil)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	view.ApplyStatusFlat(st.all, patch)
	view.ApplyStatusFlat(st.filtered, patch)
	st.complete.ApplyStatus(patch)
	st.paginated.ApplyStatus(patch)
	st.generation++
	return buildPayload(st), nil
}

// flagAccess returns the access level on the patched flag as seen from the
// first record matching the patch target, or "" when no record matches.
func flagAccess(missions []mission.Record, patch view.StatusPatch) string {
	for i := range missions {
		r := &missions[i]
		switch patch.Level {
		case view.LevelGroup:
			if r.GroupID != patch.TargetID {
				continue
			}
		case view.LevelClient:
			if r.ClientID != patch.TargetID {
				continue
			}
		default:
			if r.MissionID != patch.TargetID {
				continue
			}
		}
		if f := mission.FlagRef(r, patch.Field); f != nil {
			return f.Access
		}
		return ""
	}
	return ""
}

// --- recap ---

type RecapFlagPayload struct {
	Field    string          `json:"field"`
	Done     int             `json:"done"`
	Total    int             `json:"total"`
	Percent  int             `json:"percent"`
	Literal  string          `json:"literal"`
	Complete bool            `json:"complete"`
	Groups   []RecapGroupRow `json:"groups"`
}

// RecapGroupRow is the per-group breakdown behind a summary cell.
type RecapGroupRow struct {
	GroupID   string `json:"groupId"`
	GroupName string `json:"groupName"`
	Done      int    `json:"done"`
	Total     int    `json:"total"`
	Literal   string `json:"literal"`
	Complete  bool   `json:"complete"`
}

func (s *Service) Recap(ctx context.Context, sess Session) (export.RecapData, error) {
	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return export.RecapData{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.exporter.BuildRecap(st.filtered, "Recap missions", sess.UserName), nil
}

func (s *Service) RecapFlag(ctx context.Context, sess Session, field string) (RecapFlagPayload, error) {
	if !mission.KnownField(field) {
		return RecapFlagPayload{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown field %q", field), nil)
	}
	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return RecapFlagPayload{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	count := mission.Recap(st.filtered, field)
	c := mission.Completion{Done: count.Done, Total: count.Total}

	rows := make([]RecapGroupRow, 0, len(st.complete.Groups))
	for _, g := range st.complete.Groups {
		gc := mission.Recap(g.GroupMissions(), field)
		rows = append(rows, RecapGroupRow{
			GroupID:   g.GroupID,
			GroupName: g.GroupName,
			Done:      gc.Done,
			Total:     gc.Total,
			Literal:   mission.Completion{Done: gc.Done, Total: gc.Total}.Literal(),
			Complete:  gc.Complete,
		})
	}

	return RecapFlagPayload{
		Field:    field,
		Done:     count.Done,
		Total:    count.Total,
		Percent:  c.Percent(),
		Literal:  c.Literal(),
		Complete: count.Complete,
		Groups:   rows,
	}, nil
}

func (s *Service) ExportRecap(ctx context.Context, sess Session, format export.Format) (*export.Result, error) {
	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	data := s.exporter.BuildRecap(st.filtered, "Recap missions", sess.UserName)
	s.mu.Unlock()
	return s.exporter.Export(data, export.Request{Format: format})
}

// --- documents ---

type UploadInput struct {
	MissionID   string
	Level       string
	TargetID    string
	Field       string
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

func (s *Service) UploadDocument(ctx context.Context, sess Session, in UploadInput) (store.Document, error) {
	level, ok := view.ParseLevel(in.Level)
	if !ok {
		return store.Document{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown level %q", in.Level), nil)
	}
	if !mission.KnownField(in.Field) {
		return store.Document{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown field %q", in.Field), nil)
	}
	if strings.TrimSpace(in.Filename) == "" {
		return store.Document{}, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", "filename is required", nil)
	}

	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return store.Document{}, err
	}
	targetID := in.TargetID
	if targetID == "" {
		targetID = in.MissionID
	}
	s.mu.Lock()
	acc := flagAccess(st.all, view.StatusPatch{Level: level, TargetID: targetID, Field: in.Field})
	s.mu.Unlock()
	if !access.CanEdit(acc) {
		return store.Document{}, domainError(http.StatusForbidden, "ACCESS_DENIED", "no edit access on this flag", nil)
	}

	contentType := in.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	doc := store.Document{
		ID:          util.NewID("doc"),
		MissionID:   in.MissionID,
		Level:       levelKey(level),
		TargetID:    targetID,
		Field:       in.Field,
		Filename:    in.Filename,
		ContentType: contentType,
		SizeBytes:   in.Size,
		ObjectKey:   "missions/" + in.MissionID + "/" + util.NewID("obj"),
		UploadedBy:  sess.UserID,
		UploadedAt:  time.Now(),
	}

	if err := s.docs.Put(ctx, doc.ObjectKey, in.Body, in.Size, contentType); err != nil {
		return store.Document{}, err
	}
	if err := s.store.InsertDocument(ctx, doc); err != nil {
		if removeErr := s.docs.Remove(ctx, doc.ObjectKey); removeErr != nil {
			s.log.Warn().Err(removeErr).Str("key", doc.ObjectKey).Msg("orphan object cleanup failed")
		}
		return store.Document{}, err
	}
	return doc, nil
}

func (s *Service) ListDocuments(ctx context.Context, sess Session, level, targetID, field string) ([]store.Document, error) {
	parsed, ok := view.ParseLevel(level)
	if !ok {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown level %q", level), nil)
	}
	if !mission.KnownField(field) {
		return nil, domainError(http.StatusUnprocessableEntity, "VALIDATION_ERROR", fmt.Sprintf("unknown field %q", field), nil)
	}

	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	acc := flagAccess(st.all, view.StatusPatch{Level: parsed, TargetID: targetID, Field: field})
	s.mu.Unlock()
	if !access.CanView(acc) {
		return nil, domainError(http.StatusForbidden, "ACCESS_DENIED", "no access on this flag", nil)
	}

	return s.store.ListDocuments(ctx, levelKey(parsed), targetID, field)
}

func (s *Service) DownloadDocument(ctx context.Context, sess Session, docID string) (store.Document, io.ReadCloser, error) {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return store.Document{}, nil, err
	}

	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return store.Document{}, nil, err
	}
	level, _ := view.ParseLevel(doc.Level)
	s.mu.Lock()
	acc := flagAccess(st.all, view.StatusPatch{Level: level, TargetID: doc.TargetID, Field: doc.Field})
	s.mu.Unlock()
	if !access.CanView(acc) {
		return store.Document{}, nil, domainError(http.StatusForbidden, "ACCESS_DENIED", "no access on this flag", nil)
	}

	body, err := s.docs.Get(ctx, doc.ObjectKey)
	if err != nil {
		return store.Document{}, nil, err
	}
	return doc, body, nil
}

func (s *Service) DeleteDocument(ctx context.Context, sess Session, docID string) error {
	doc, err := s.store.GetDocument(ctx, docID)
	if err != nil {
		return err
	}

	st, err := s.stateFor(ctx, sess)
	if err != nil {
		return err
	}
	level, _ := view.ParseLevel(doc.Level)
	s.mu.Lock()
	acc := flagAccess(st.all, view.StatusPatch{Level: level, TargetID: doc.TargetID, Field: doc.Field})
	s.mu.Unlock()
	if !access.CanEdit(acc) {
		return domainError(http.StatusForbidden, "ACCESS_DENIED", "no edit access on this flag", nil)
	}

	if err := s.store.DeleteDocument(ctx, docID); err != nil {
		return err
	}
	if err := s.docs.Remove(ctx, doc.ObjectKey); err != nil {
		s.log.Warn().Err(err).Str("key", doc.ObjectKey).Msg("remove object")
	}
	return nil
}

// --- search ---

func (s *Service) Search(_ context.Context, text string, limit, offset int) search.Response {
	return s.search.Search(search.Query{Text: text, Limit: limit, Offset: offset})
}
