package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/jengzang/profileviewer-go/internal/crossfilter"
	"github.com/jengzang/profileviewer-go/internal/dashboard"
	"github.com/jengzang/profileviewer-go/internal/models"
	"github.com/jengzang/profileviewer-go/internal/source"
	"github.com/jengzang/profileviewer-go/internal/spatial"
	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"
)

// ErrSessionNotFound is returned for unknown, closed or expired sessions
var ErrSessionNotFound = errors.New("session not found")

// Sessions opened concurrently by one batch request
const batchConcurrency = 4

// DashboardOptions configure new sessions
type DashboardOptions struct {
	Regions      []spatial.Region
	TopK         int
	MaxZoom      int
	IconBase     string
	FetchTimeout time.Duration
	MapWidth     int
	MapHeight    int
}

// ViewData is one view as served to clients
type ViewData struct {
	View    dashboard.ViewKind `json:"view"`
	Name    string             `json:"name"`
	Focused bool               `json:"focused"`
	Filter  []crossfilter.Key  `json:"filter,omitempty"` // selected keys, or [from, to) bounds when Range
	Range   bool               `json:"range,omitempty"`
	Rows    []crossfilter.Row  `json:"rows"`
	Others  int                `json:"others,omitempty"`
}

type liveSession struct {
	mu        sync.Mutex
	id        string
	subject   string
	expiresAt time.Time
	dash      *dashboard.Session
	viewport  *spatial.Viewport
	feeds     map[*Feed]func()
}

// DashboardService owns every open dashboard session. Each session is
// used by one request at a time.
type DashboardService struct {
	src    source.Source
	tokens *TokenIssuer
	opts   DashboardOptions
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*liveSession
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(src source.Source, tokens *TokenIssuer, opts DashboardOptions) *DashboardService {
	if opts.MapWidth <= 0 {
		opts.MapWidth = 1024
	}
	if opts.MapHeight <= 0 {
		opts.MapHeight = 768
	}
	return &DashboardService{
		src:      src,
		tokens:   tokens,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*liveSession),
	}
}

// Open fetches a subject's check-ins and starts a session over them
func (s *DashboardService) Open(ctx context.Context, subject string) (*models.SessionInfo, error) {
	if s.opts.FetchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.FetchTimeout)
		defer cancel()
	}

	raw, err := s.src.Fetch(ctx, subject)
	if err != nil {
		return nil, err
	}
	records, err := dashboard.Build(raw)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", subject, err)
	}

	vp := spatial.NewViewport(s.opts.MapWidth, s.opts.MapHeight)
	dash, err := dashboard.NewSession(records, dashboard.Options{
		Regions:  s.opts.Regions,
		TopK:     s.opts.TopK,
		MaxZoom:  s.opts.MaxZoom,
		IconBase: s.opts.IconBase,
		Overlay:  vp,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start session for %s: %w", subject, err)
	}

	token, id, expiresAt, err := s.tokens.Issue(subject)
	if err != nil {
		dash.Close()
		return nil, err
	}

	s.mu.Lock()
	s.sessions[id] = &liveSession{
		id:        id,
		subject:   subject,
		expiresAt: expiresAt,
		dash:      dash,
		viewport:  vp,
		feeds:     make(map[*Feed]func()),
	}
	s.mu.Unlock()

	log.Printf("Opened session %s for %s with %d check-ins", id, subject, len(records))
	return &models.SessionInfo{
		Token:     token,
		Subject:   subject,
		ExpiresAt: expiresAt,
		Records:   len(records),
	}, nil
}

// OpenBatch opens one session per subject concurrently. If any subject
// fails, the sessions already opened by the batch are closed again.
func (s *DashboardService) OpenBatch(ctx context.Context, subjects []string) ([]models.SessionInfo, error) {
	infos := make([]*models.SessionInfo, len(subjects))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchConcurrency)
	for i, subject := range subjects {
		g.Go(func() error {
			info, err := s.Open(gctx, subject)
			if err != nil {
				return err
			}
			infos[i] = info
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		for _, info := range infos {
			if info != nil {
				_ = s.Close(info.Token)
			}
		}
		return nil, err
	}

	return lo.Map(infos, func(info *models.SessionInfo, _ int) models.SessionInfo {
		return *info
	}), nil
}

// Views returns every view. A positive limit caps each view to its limit
// highest rows plus its selected keys, with the rest summed into Others.
func (s *DashboardService) Views(token string, limit int) ([]ViewData, error) {
	var out []ViewData
	err := s.with(token, func(ls *liveSession) error {
		for _, snap := range ls.dash.Snapshots() {
			out = append(out, NewViewData(snap, limit))
		}
		return nil
	})
	return out, err
}

// View returns one view, see Views
func (s *DashboardService) View(token, view string, limit int) (*ViewData, error) {
	kind, err := dashboard.ParseViewKind(view)
	if err != nil {
		return nil, err
	}
	var out ViewData
	err = s.with(token, func(ls *liveSession) error {
		snap, err := ls.dash.Snapshot(kind)
		if err != nil {
			return err
		}
		out = NewViewData(snap, limit)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// SetFilter replaces the filter of one view
func (s *DashboardService) SetFilter(token string, req models.FilterRequest) error {
	kind, err := dashboard.ParseViewKind(req.View)
	if err != nil {
		return err
	}
	sel, err := selectorFor(kind, req)
	if err != nil {
		return err
	}
	return s.with(token, func(ls *liveSession) error {
		return ls.dash.SetFilter(kind, sel)
	})
}

// Focus filters a view to a single topic
func (s *DashboardService) Focus(token, topic, view string) error {
	kind, err := dashboard.ParseViewKind(view)
	if err != nil {
		return err
	}
	return s.with(token, func(ls *liveSession) error {
		return ls.dash.FocusTopic(topic, kind)
	})
}

// Unfocus clears the named views, or all of them
func (s *DashboardService) Unfocus(token string, views []string) error {
	kinds := make([]dashboard.ViewKind, 0, len(views))
	for _, v := range views {
		k, err := dashboard.ParseViewKind(v)
		if err != nil {
			return err
		}
		kinds = append(kinds, k)
	}
	return s.with(token, func(ls *liveSession) error {
		return ls.dash.Unfocus(kinds...)
	})
}

// Markers returns the map overlay as last rendered
func (s *DashboardService) Markers(token string) (*spatial.ViewportState, error) {
	var st spatial.ViewportState
	err := s.with(token, func(ls *liveSession) error {
		st = ls.viewport.State()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}

// Summary describes the check-ins visible under the current filters
func (s *DashboardService) Summary(token string) (*models.Summary, error) {
	var sum models.Summary
	err := s.with(token, func(ls *liveSession) error {
		sum = ls.dash.Summary()
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &sum, nil
}

// Subscribe returns a feed that receives every view's snapshot after each
// filter change, primed with the current snapshots. Call the returned
// func to unsubscribe.
func (s *DashboardService) Subscribe(token string) (*Feed, func(), error) {
	feed := newFeed()
	var cancel func()
	err := s.with(token, func(ls *liveSession) error {
		var stops []func()
		for _, k := range dashboard.AllViews {
			stop, err := ls.dash.OnFilterChanged(k, feed.publish)
			if err != nil {
				for _, st := range stops {
					st()
				}
				return err
			}
			stops = append(stops, stop)
		}
		for _, snap := range ls.dash.Snapshots() {
			feed.publish(snap)
		}

		ls.feeds[feed] = func() {
			for _, st := range stops {
				st()
			}
			feed.close()
		}
		cancel = func() {
			ls.mu.Lock()
			defer ls.mu.Unlock()
			if stop, ok := ls.feeds[feed]; ok {
				delete(ls.feeds, feed)
				stop()
			}
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return feed, cancel, nil
}

// Close ends a session and its event streams
func (s *DashboardService) Close(token string) error {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}
	s.mu.Lock()
	ls, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mu.Unlock()
	if !ok {
		return ErrSessionNotFound
	}
	ls.close()
	log.Printf("Closed session %s", id)
	return nil
}

// Len returns the number of open sessions
func (s *DashboardService) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Reap closes every session expired at now and returns how many it closed
func (s *DashboardService) Reap(now time.Time) int {
	var expired []*liveSession
	s.mu.Lock()
	for id, ls := range s.sessions {
		if !now.Before(ls.expiresAt) {
			expired = append(expired, ls)
			delete(s.sessions, id)
		}
	}
	s.mu.Unlock()

	for _, ls := range expired {
		ls.close()
	}
	return len(expired)
}

// RunReaper reaps expired sessions every interval until ctx is done, then
// closes the remaining sessions
func (s *DashboardService) RunReaper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.closeAll()
			return
		case <-ticker.C:
			if n := s.Reap(s.now()); n > 0 {
				log.Printf("Reaped %d expired sessions", n)
			}
		}
	}
}

func (s *DashboardService) closeAll() {
	s.mu.Lock()
	all := s.sessions
	s.sessions = make(map[string]*liveSession)
	s.mu.Unlock()

	for _, ls := range all {
		ls.close()
	}
}

// with runs fn on the session named by token while holding its lock
func (s *DashboardService) with(token string, fn func(*liveSession) error) error {
	id, err := s.tokens.Parse(token)
	if err != nil {
		return err
	}

	s.mu.RLock()
	ls, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return ErrSessionNotFound
	}
	if !s.now().Before(ls.expiresAt) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		ls.close()
		return ErrSessionNotFound
	}

	ls.mu.Lock()
	defer ls.mu.Unlock()
	if ls.dash == nil {
		return ErrSessionNotFound
	}
	return fn(ls)
}

func (ls *liveSession) close() {
	ls.mu.Lock()
	defer ls.mu.Unlock()
	for feed, stop := range ls.feeds {
		stop()
		delete(ls.feeds, feed)
	}
	if ls.dash != nil {
		ls.dash.Close()
		ls.dash = nil
	}
}

// NewViewData renders a snapshot, see Views
func NewViewData(snap dashboard.Snapshot, limit int) ViewData {
	v := ViewData{
		View:    snap.View,
		Name:    snap.View.String(),
		Focused: !snap.Filter.IsAll(),
		Filter:  snap.Filter.Keys(),
		Range:   snap.Filter.IsRange(),
		Rows:    snap.Rows,
	}
	if limit > 0 {
		var pinned []crossfilter.Key
		if !v.Range {
			pinned = v.Filter
		}
		v.Rows, v.Others = crossfilter.Cap(snap.Rows, limit, pinned)
	}
	return v
}

// selectorFor turns a filter request into a selector for kind. Keys take
// precedence over From/To; an empty request selects everything.
func selectorFor(kind dashboard.ViewKind, req models.FilterRequest) (crossfilter.Selector, error) {
	if len(req.Keys) > 0 {
		keys := make([]crossfilter.Key, 0, len(req.Keys))
		for _, raw := range req.Keys {
			k, err := keyFor(kind, raw, true)
			if err != nil {
				return crossfilter.Selector{}, err
			}
			keys = append(keys, k)
		}
		return crossfilter.OneOf(keys...), nil
	}

	if req.From == "" && req.To == "" {
		return crossfilter.All(), nil
	}

	var lo, hi *crossfilter.Key
	if req.From != "" {
		k, err := keyFor(kind, req.From, true)
		if err != nil {
			return crossfilter.Selector{}, err
		}
		lo = &k
	}
	if req.To != "" {
		k, err := keyFor(kind, req.To, false)
		if err != nil {
			return crossfilter.Selector{}, err
		}
		hi = &k
	}
	if lo != nil && hi != nil {
		return crossfilter.Between(*lo, *hi), nil
	}

	want := crossfilter.KindString
	if kind == dashboard.ViewTimeline {
		want = crossfilter.KindTime
	}
	return crossfilter.Where(want, func(k crossfilter.Key) bool {
		if lo != nil && k.Compare(*lo) < 0 {
			return false
		}
		if hi != nil && k.Compare(*hi) >= 0 {
			return false
		}
		return true
	}), nil
}

// keyFor parses a request value. Timeline values are dates; a lower bound
// or selected key is moved to the start of its week.
func keyFor(kind dashboard.ViewKind, raw string, weekAligned bool) (crossfilter.Key, error) {
	if kind != dashboard.ViewTimeline {
		return crossfilter.StringKey(raw), nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, raw); err == nil {
			if weekAligned {
				t = dashboard.WeekStart(t)
			}
			return crossfilter.TimeKey(t), nil
		}
	}
	return crossfilter.Key{}, &crossfilter.TypeMismatchError{
		Dimension: kind.String(),
		Want:      crossfilter.KindTime,
		Got:       crossfilter.KindString,
	}
}
