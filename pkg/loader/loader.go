package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/vanderheijden86/depview/internal/datasource"
	"github.com/vanderheijden86/depview/pkg/debug"
	"github.com/vanderheijden86/depview/pkg/metrics"
	"github.com/vanderheijden86/depview/pkg/model"

	json "github.com/goccy/go-json"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

// ErrMalformedPayload marks a response whose nodes field is missing or not
// a list of node objects.
var ErrMalformedPayload = errors.New("malformed dependency graph payload")

// FetchError is returned for transport failures and non-2xx responses.
type FetchError = datasource.FetchError

// ParseOptions configures payload normalization.
type ParseOptions struct {
	// WarningHandler receives recoverable problems (dropped nodes and edges).
	// Defaults to debug.Log.
	WarningHandler func(msg string)
}

// Loader turns a repository identifier into a validated Snapshot.
type Loader struct {
	source datasource.Source
	opts   ParseOptions
	group  singleflight.Group

	mu      sync.Mutex
	flights map[string]*flight
}

// flight is the shared fetch for one repo. Its context belongs to the
// loader, not to any caller, and is cancelled when the last waiting caller
// gives up.
type flight struct {
	ctx     context.Context
	cancel  context.CancelFunc
	waiters int
}

// New returns a loader reading from source.
func New(source datasource.Source, opts ParseOptions) *Loader {
	return &Loader{source: source, opts: opts, flights: make(map[string]*flight)}
}

func (l *Loader) join(ctx context.Context, repo string) *flight {
	l.mu.Lock()
	defer l.mu.Unlock()
	f, ok := l.flights[repo]
	if !ok {
		fctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		f = &flight{ctx: fctx, cancel: cancel}
		l.flights[repo] = f
	}
	f.waiters++
	return f
}

// leave drops one waiter. The last one out cancels the fetch and forgets
// it, so a later Load for the same repo starts a fresh one instead of
// joining an abandoned fetch.
func (l *Loader) leave(repo string, f *flight) {
	l.mu.Lock()
	defer l.mu.Unlock()
	f.waiters--
	if f.waiters > 0 {
		return
	}
	f.cancel()
	if l.flights[repo] == f {
		delete(l.flights, repo)
		l.group.Forget(repo)
	}
}

// Load fetches and validates the graph for repo.
//
// A blank repo performs no fetch and returns (nil, nil): "no data", not an
// error. Concurrent calls for the same repo share one fetch, but every
// caller gets its own Snapshot so layouts never share position state. A
// caller whose ctx ends returns ctx.Err() without failing the others.
func (l *Loader) Load(ctx context.Context, repo string) (*model.Snapshot, error) {
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	defer metrics.GraphLoad.TimeThen(func(d time.Duration) {
		debug.LogTiming("load "+repo, d)
	})()

	f := l.join(ctx, repo)
	defer l.leave(repo, f)
	ch := l.group.DoChan(repo, func() (any, error) {
		return l.source.Fetch(f.ctx, repo)
	})
	var res singleflight.Result
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res = <-ch:
	}
	if res.Err != nil {
		return nil, res.Err
	}

	snap, err := Parse(res.Val.([]byte), l.opts)
	if err != nil {
		return nil, err
	}
	snap.Repo = repo
	return snap, nil
}

type payload struct {
	Nodes *[]rawNode `json:"nodes"`
	Links *[]rawEdge `json:"links"`
	Edges *[]rawEdge `json:"edges"`
}

type rawNode struct {
	ID    flexString `json:"id"`
	Group flexString `json:"group"`
}

type rawEdge struct {
	Source flexString `json:"source"`
	Target flexString `json:"target"`
}

// flexString accepts JSON strings and numbers; backends that emit numeric
// ids or groups are normalized to their decimal text.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	if _, err := strconv.ParseFloat(string(b), 64); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = flexString(b)
	return nil
}

// Parse decodes a payload and validates it into a Snapshot with a fresh
// session id.
//
// Edges come from "links" when that key is present, otherwise "edges".
// Nodes without an id and repeated ids are dropped. Edges that reference
// unknown nodes are moved to Snapshot.Dropped.
func Parse(data []byte, opts ParseOptions) (*model.Snapshot, error) {
	warn := opts.WarningHandler
	if warn == nil {
		warn = func(msg string) { debug.Log("loader: %s", msg) }
	}

	stop := metrics.PayloadDecode.Time()
	var p payload
	err := json.Unmarshal(stripBOM(data), &p)
	stop()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	if p.Nodes == nil {
		return nil, fmt.Errorf("%w: missing nodes field", ErrMalformedPayload)
	}

	nodes := make([]model.Node, 0, len(*p.Nodes))
	seen := make(map[string]bool, len(*p.Nodes))
	for i, rn := range *p.Nodes {
		id := strings.TrimSpace(string(rn.ID))
		if id == "" {
			warn(fmt.Sprintf("skipping node %d: empty id", i))
			continue
		}
		if seen[id] {
			warn(fmt.Sprintf("skipping node %d: duplicate id %q", i, id))
			continue
		}
		seen[id] = true
		nodes = append(nodes, model.Node{ID: id, Group: string(rn.Group)})
	}

	rawEdges := p.Links
	if rawEdges == nil {
		rawEdges = p.Edges
	}

	var edges, dropped []model.Edge
	if rawEdges != nil {
		edges = make([]model.Edge, 0, len(*rawEdges))
		for _, re := range *rawEdges {
			e := model.Edge{
				Source: strings.TrimSpace(string(re.Source)),
				Target: strings.TrimSpace(string(re.Target)),
			}
			if !seen[e.Source] || !seen[e.Target] {
				warn(fmt.Sprintf("dropping edge %s: unknown endpoint", e))
				dropped = append(dropped, e)
				continue
			}
			edges = append(edges, e)
		}
	}

	snap := model.NewSnapshot(uuid.NewString(), "", nodes, edges)
	snap.Dropped = dropped
	return snap, nil
}

// stripBOM removes the UTF-8 Byte Order Mark if present
func stripBOM(b []byte) []byte {
	if bytes.HasPrefix(b, []byte{0xEF, 0xBB, 0xBF}) {
		return b[3:]
	}
	return b
}

// IsNoData reports whether a Load result should be shown as the
// "no dependency data" state.
func IsNoData(snap *model.Snapshot, err error) bool {
	return err != nil || snap == nil
}
