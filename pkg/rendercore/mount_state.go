package rendercore

import (
	stderrors "errors"
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/go-drift/mountcore/pkg/errors"
	"github.com/go-drift/mountcore/pkg/geometry"
	"github.com/go-drift/mountcore/pkg/trace"
)

// Options configures a MountState.
type Options struct {
	// Env is handed to units through Context.Env.
	Env any
	// Tracer receives lifecycle sections. Nil means trace.Default().
	Tracer trace.Tracer
	// Logger receives pass summaries at debug level. Nil means log.Default().
	Logger *log.Logger
	// Pool supplies reusable content. Nil creates a private pool with
	// default options.
	Pool *ContentPool
}

// Result summarizes one reconciliation pass.
type Result struct {
	// PassID identifies the pass in reported errors and logs.
	PassID string
	// Queued is set when the tree was queued behind a running pass instead
	// of being applied by this call.
	Queued bool

	Mounted   int
	Replaced  int
	Updated   int
	Rebound   int
	Skipped   int
	Unmounted int

	// Failures lists nodes that could not be mounted during this pass.
	// They are left unmounted; the next generation may retry them.
	Failures []*errors.MountError
	Duration time.Duration
}

// Err joins Failures into a single error, or returns nil.
func (r *Result) Err() error {
	if r == nil || len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return stderrors.Join(errs...)
}

// MountState reconciles render trees against a root Host. It must be driven
// from a single owning goroutine; trees submitted while a pass runs are
// queued.
type MountState struct {
	root   Host
	env    any
	tracer trace.Tracer
	logger *log.Logger
	pool   *ContentPool

	items map[string]*MountItem
	tree  *RenderTree

	mu       sync.Mutex
	mounting bool
	pending  *RenderTree
}

// NewMountState creates a MountState that attaches root-level nodes to root.
func NewMountState(root Host, opts Options) *MountState {
	if opts.Tracer == nil {
		opts.Tracer = trace.Default()
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Pool == nil {
		opts.Pool = NewContentPool(PoolOptions{})
	}
	return &MountState{
		root:   root,
		env:    opts.Env,
		tracer: opts.Tracer,
		logger: opts.Logger,
		pool:   opts.Pool,
		items:  make(map[string]*MountItem),
	}
}

// Pool returns the content pool.
func (m *MountState) Pool() *ContentPool {
	return m.pool
}

// Root returns the root host.
func (m *MountState) Root() Host {
	return m.root
}

// Len returns the number of live mount items.
func (m *MountState) Len() int {
	return len(m.items)
}

// MountItem returns the live item for key.
func (m *MountState) MountItem(key string) (*MountItem, bool) {
	item, ok := m.items[key]
	return item, ok
}

// Tree returns the most recently applied tree.
func (m *MountState) Tree() *RenderTree {
	return m.tree
}

// Mount reconciles the mounted hierarchy with tree. A nil tree unmounts
// everything.
//
// If another pass is running, tree replaces any previously queued tree and
// Mount returns a Result with Queued set; the running pass applies it when
// it finishes. Otherwise Mount applies tree, then every tree queued in the
// meantime, and returns the result of the last one.
//
// Per-node creation failures are listed in Result.Failures. Fatal errors
// (lifecycle-order violations, panics in lifecycle calls, failing
// comparisons) abort the pass and are returned; queued trees are dropped.
//
// A comparison that fails aborts before anything changes. A fatal error
// while applying leaves the hierarchy partially updated: nodes handled
// before the failure keep their new state, and the failing node stays
// registered without being bound. The next pass replaces or removes it.
func (m *MountState) Mount(tree *RenderTree) (*Result, error) {
	if tree == nil {
		tree = EmptyTree()
	}

	m.mu.Lock()
	if m.mounting {
		m.pending = tree
		m.mu.Unlock()
		return &Result{Queued: true}, nil
	}
	m.mounting = true
	m.mu.Unlock()

	for {
		res, err := m.runPass(tree)

		m.mu.Lock()
		next := m.pending
		m.pending = nil
		if err != nil || next == nil {
			m.mounting = false
			m.mu.Unlock()
			return res, err
		}
		m.mu.Unlock()
		tree = next
	}
}

// UnmountAll unmounts every live item and releases its content.
func (m *MountState) UnmountAll() error {
	_, err := m.Mount(EmptyTree())
	return err
}

// Release unmounts everything and clears the pool.
func (m *MountState) Release() error {
	err := m.UnmountAll()
	m.pool.Clear()
	return err
}

func (m *MountState) runPass(tree *RenderTree) (res *Result, err error) {
	start := time.Now()
	res = &Result{PassID: uuid.NewString()}

	defer func() {
		res.Duration = time.Since(start)
		if err != nil {
			m.logger.Debug("mount pass aborted", "pass", res.PassID, "err", err)
			return
		}
		m.logger.Debug("mount pass",
			"pass", res.PassID,
			"mounted", res.Mounted,
			"replaced", res.Replaced,
			"updated", res.Updated,
			"rebound", res.Rebound,
			"skipped", res.Skipped,
			"unmounted", res.Unmounted,
			"failures", len(res.Failures),
			"duration", res.Duration,
		)
	}()

	defer errors.RecoverWithCallback("rendercore.Mount", func(perr *errors.PanicError) {
		err = m.fatal(res.PassID, perr)
	})

	trace.WithSection(m.tracer, "MountState.mount", func() {
		steps, removed, perr := m.plan(tree, res.PassID)
		if perr != nil {
			err = perr
			return
		}
		m.apply(tree, steps, removed, res)
		m.tree = tree
	})
	return res, err
}

// fatal converts a recovered panic into the error returned to the caller.
func (m *MountState) fatal(passID string, perr *errors.PanicError) error {
	switch v := perr.Value.(type) {
	case *errors.LifecycleError:
		errors.ReportLifecycle(v)
		return v
	case *errors.MountError:
		v.PassID = passID
		errors.Report(v)
		return v
	default:
		errors.ReportPanic(perr)
		return &errors.MountError{
			Op:         perr.Op,
			Kind:       errors.KindPanic,
			PassID:     passID,
			Err:        perr,
			StackTrace: perr.StackTrace,
			Timestamp:  perr.Timestamp,
		}
	}
}

type action int

const (
	actionMount action = iota
	actionReplace
	actionUpdate
	actionRebind
	actionSkip
)

func (a action) String() string {
	switch a {
	case actionMount:
		return "mount"
	case actionReplace:
		return "replace"
	case actionUpdate:
		return "update"
	case actionRebind:
		return "rebind"
	case actionSkip:
		return "skip"
	default:
		return "unknown"
	}
}

type step struct {
	node          *TreeNode
	item          *MountItem
	action        action
	boundsChanged bool
}

// plan decides what to do for every node without touching the hierarchy, so
// a failing comparison leaves the mounted tree intact.
func (m *MountState) plan(tree *RenderTree, passID string) ([]step, []*MountItem, error) {
	nodes := tree.Nodes()
	steps := make([]step, 0, len(nodes))
	for _, node := range nodes {
		item, ok := m.items[node.Key()]
		if !ok {
			steps = append(steps, step{node: node, action: actionMount})
			continue
		}
		prev, next := item.Unit(), node.Unit()
		// An item left unbound by an aborted pass is torn down and mounted
		// again.
		if !item.IsBound() || prev.ContentType() != next.ContentType() || prev.MountType() != next.MountType() {
			steps = append(steps, step{node: node, item: item, action: actionReplace})
			continue
		}

		boundsChanged := !item.Node().Bounds().Equal(node.Bounds())
		update, err := m.shouldUpdate(item, node, passID)
		if err != nil {
			return nil, nil, err
		}
		s := step{node: node, item: item, boundsChanged: boundsChanged}
		switch {
		case update:
			s.action = actionUpdate
		case boundsChanged && !next.IsPureRender():
			s.action = actionRebind
		default:
			s.action = actionSkip
		}
		steps = append(steps, s)
	}

	var removed []*MountItem
	for key, item := range m.items {
		if _, ok := tree.Node(key); !ok {
			removed = append(removed, item)
		}
	}
	// Later nodes first, so children go before their hosts.
	slices.SortFunc(removed, func(a, b *MountItem) int {
		return b.Node().Position() - a.Node().Position()
	})
	return steps, removed, nil
}

// shouldUpdate short-circuits on identity before asking the unit. Panics in
// comparison logic, including the identity check, become a fatal
// equivalence error.
func (m *MountState) shouldUpdate(item *MountItem, node *TreeNode, passID string) (update bool, err error) {
	prev, next := item.Unit(), node.Unit()
	defer errors.RecoverWithCallback(next.Name()+".ShouldUpdate", func(perr *errors.PanicError) {
		merr := &errors.MountError{
			Op:         "rendercore.shouldUpdate",
			Kind:       errors.KindEquivalence,
			Key:        node.Key(),
			Unit:       next.Name(),
			PassID:     passID,
			Err:        perr,
			StackTrace: perr.StackTrace,
			Timestamp:  perr.Timestamp,
		}
		errors.Report(merr)
		update, err = false, merr
	})
	if sameUnit(prev, next) {
		return false, nil
	}
	prevState := item.State()
	nextState := prevState
	nextState.Bounds = node.Bounds()
	return next.ShouldUpdate(prev, &prevState, &nextState), nil
}

func sameUnit(a, b RenderUnit) bool {
	ta := reflect.TypeOf(a)
	if ta == nil || ta != reflect.TypeOf(b) || !ta.Comparable() {
		return false
	}
	return a == b
}

func (m *MountState) apply(tree *RenderTree, steps []step, removed []*MountItem, res *Result) {
	for _, s := range steps {
		switch s.action {
		case actionMount:
			if m.mountNode(tree, s.node, res) {
				res.Mounted++
			}
		case actionReplace:
			m.unmountItem(s.item)
			if m.mountNode(tree, s.node, res) {
				res.Replaced++
			}
		case actionUpdate:
			if m.reattach(tree, s.item, s.node, res) {
				m.updateItem(s.item, s.node, s.boundsChanged)
				res.Updated++
			}
		case actionRebind:
			if m.reattach(tree, s.item, s.node, res) {
				m.rebindItem(s.item, s.node)
				res.Rebound++
			}
		case actionSkip:
			if m.reattach(tree, s.item, s.node, res) {
				s.item.update(s.node)
				applyBounds(s.item)
				res.Skipped++
			}
		}
	}
	for _, item := range removed {
		// A removed host may already have been unmounted along with a
		// replaced ancestor.
		if cur, ok := m.items[item.Key()]; ok && cur == item {
			m.unmountItem(item)
			res.Unmounted++
		}
	}
}

func (m *MountState) contextFor(item *MountItem) *Context {
	return &Context{
		Env:    m.env,
		Tracer: m.tracer,
		key:    item.Key(),
		state:  &item.state,
	}
}

// mountNode runs the mount path: acquire, boundsDefined, mount, attach, bind.
func (m *MountState) mountNode(tree *RenderTree, node *TreeNode, res *Result) bool {
	if existing, ok := m.items[node.Key()]; ok {
		existing.violation("mount")
	}
	host, err := m.hostFor(tree, node)
	if err != nil {
		m.fail(res, node, "rendercore.hostFor", errors.KindCreate, err)
		return false
	}
	unit := node.Unit()
	content, err := m.acquire(unit, node.Key())
	if err != nil {
		m.fail(res, node, "rendercore.createContent", errors.KindCreate, err)
		return false
	}

	// Registered before any lifecycle call so a pass aborted midway still
	// owns the item and a later pass can tear it down.
	item := newMountItem(node, content)
	m.items[node.Key()] = item
	ctx := m.contextFor(item)
	item.defineBounds(ctx, node.Bounds())
	item.mount(ctx)
	item.attach(host)
	applyBounds(item)
	item.bind(ctx)
	return true
}

// acquire takes content from the pool or creates it. Panics in the factory
// count as creation failures.
func (m *MountState) acquire(unit RenderUnit, key string) (content Content, err error) {
	if c, ok := m.pool.Acquire(unit.ContentType()); ok {
		return c, nil
	}
	defer errors.RecoverWithCallback(unit.Name()+".CreateContent", func(perr *errors.PanicError) {
		content, err = nil, perr
	})
	ctx := &Context{Env: m.env, Tracer: m.tracer, key: key, state: &State{}}
	content, err = unit.CreateContent(ctx)
	if err == nil && content == nil {
		err = errors.ErrNilContent
	}
	return content, err
}

// updateItem reuses content for a changed unit of the same content type.
func (m *MountState) updateItem(item *MountItem, node *TreeNode, boundsChanged bool) {
	ctx := m.contextFor(item)
	item.unbind(ctx)
	item.unmount(ctx)
	item.update(node)
	if boundsChanged {
		item.defineBounds(ctx, node.Bounds())
	}
	item.mount(ctx)
	applyBounds(item)
	item.bind(ctx)
}

// rebindItem applies new bounds to unchanged content.
func (m *MountState) rebindItem(item *MountItem, node *TreeNode) {
	ctx := m.contextFor(item)
	item.unbind(ctx)
	item.update(node)
	item.defineBounds(ctx, node.Bounds())
	applyBounds(item)
	item.bind(ctx)
}

// unmountItem runs the unmount path and releases the content. Children
// attached to the item's content are detached first; they are reattached or
// unmounted later in the same pass.
func (m *MountState) unmountItem(item *MountItem) {
	if host, ok := item.Content().(Host); ok {
		for _, child := range host.Children() {
			child.detach()
		}
	}
	ctx := m.contextFor(item)
	if item.IsBound() {
		item.unbind(ctx)
	}
	item.detach()
	if item.IsMounted() {
		item.unmount(ctx)
		item.release(m.pool)
	} else {
		// Mount never completed; the content is not safe to reuse.
		item.drop()
	}
	delete(m.items, item.Key())
}

// reattach moves a surviving item to the host its node resolves to in the
// new tree. An item whose parent failed to mount is unmounted.
func (m *MountState) reattach(tree *RenderTree, item *MountItem, node *TreeNode, res *Result) bool {
	host, err := m.hostFor(tree, node)
	if err != nil {
		m.unmountItem(item)
		m.fail(res, node, "rendercore.hostFor", errors.KindCreate, err)
		return false
	}
	if item.Host() != host {
		item.detach()
		item.attach(host)
	}
	return true
}

// hostFor returns the content of the nearest ancestor that is a Host, or the
// root host.
func (m *MountState) hostFor(tree *RenderTree, node *TreeNode) (Host, error) {
	parentKey := node.ParentKey()
	for parentKey != "" {
		parent, ok := m.items[parentKey]
		if !ok {
			return nil, fmt.Errorf("%w: %q", errors.ErrParentNotMounted, parentKey)
		}
		if host, ok := parent.Content().(Host); ok {
			return host, nil
		}
		pnode, ok := tree.Node(parentKey)
		if !ok {
			break
		}
		parentKey = pnode.ParentKey()
	}
	return m.root, nil
}

func (m *MountState) fail(res *Result, node *TreeNode, op string, kind errors.ErrorKind, err error) {
	merr := &errors.MountError{
		Op:        op,
		Kind:      kind,
		Key:       node.Key(),
		Unit:      node.Unit().Name(),
		PassID:    res.PassID,
		Err:       err,
		Timestamp: time.Now(),
	}
	res.Failures = append(res.Failures, merr)
	errors.Report(merr)
}

// BoundsSetter is implemented by content that tracks where its host shows
// it. The engine pushes node bounds to it on every pass the node survives,
// including skipped ones; this is host positioning, not a lifecycle call.
type BoundsSetter interface {
	SetBounds(bounds geometry.Rect)
}

func applyBounds(item *MountItem) {
	if bs, ok := item.Content().(BoundsSetter); ok {
		bs.SetBounds(item.Node().Bounds())
	}
}
