package rendercore_test

import (
	stderrors "errors"
	"reflect"
	"testing"

	"github.com/go-drift/mountcore/pkg/errors"
	"github.com/go-drift/mountcore/pkg/geometry"
	"github.com/go-drift/mountcore/pkg/mounttest"
	"github.com/go-drift/mountcore/pkg/rendercore"
	"github.com/go-drift/mountcore/pkg/trace"
)

// quietHandler swallows reported errors so tests don't log.
type quietHandler struct {
	errs       []*errors.MountError
	panics     []*errors.PanicError
	lifecycles []*errors.LifecycleError
}

func (h *quietHandler) HandleError(err *errors.MountError)              { h.errs = append(h.errs, err) }
func (h *quietHandler) HandlePanic(err *errors.PanicError)              { h.panics = append(h.panics, err) }
func (h *quietHandler) HandleLifecycleError(err *errors.LifecycleError) { h.lifecycles = append(h.lifecycles, err) }

func useQuietHandler(t *testing.T) *quietHandler {
	t.Helper()
	h := &quietHandler{}
	errors.SetHandler(h)
	t.Cleanup(func() { errors.SetHandler(nil) })
	return h
}

func newState(t *testing.T) (*rendercore.MountState, *rendercore.ViewHost, *trace.Recorder) {
	t.Helper()
	useQuietHandler(t)
	root := rendercore.NewViewHost("root")
	rec := trace.NewRecorder()
	return rendercore.NewMountState(root, rendercore.Options{Tracer: rec}), root, rec
}

func mustMount(t *testing.T, state *rendercore.MountState, nodes ...*rendercore.TreeNode) *rendercore.Result {
	t.Helper()
	res, err := state.Mount(rendercore.MustRenderTree(nodes...))
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	return res
}

func assertOps(t *testing.T, log *mounttest.Log, key string, want ...string) {
	t.Helper()
	got := log.Ops(key)
	if len(got) == 0 && len(want) == 0 {
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ops for %q = %v, want %v", key, got, want)
	}
}

func TestMount_NewNodeRunsLifecycleInOrder(t *testing.T) {
	state, root, rec := newState(t)
	log := mounttest.NewLog()
	unit := &mounttest.Unit{Type: "image", Pure: true, Props: "a.png", Log: log}

	res := mustMount(t, state, mounttest.Node("img", "", unit, 0, 0, 100, 50))

	assertOps(t, log, "img", mounttest.OpCreate, mounttest.OpBoundsDefined, mounttest.OpMount, mounttest.OpBind)
	if res.Mounted != 1 {
		t.Errorf("Mounted = %d, want 1", res.Mounted)
	}
	if res.PassID == "" {
		t.Error("expected a pass id")
	}
	item, ok := state.MountItem("img")
	if !ok {
		t.Fatal("expected mount item for img")
	}
	if !item.IsBound() || !item.IsMounted() {
		t.Error("item should be mounted and bound")
	}
	if st := item.State(); st.Width != 100 || st.Height != 50 {
		t.Errorf("state size = %vx%v, want 100x50", st.Width, st.Height)
	}
	if item.Host() != root || root.Len() != 1 {
		t.Error("item should be attached to the root host")
	}
	if root.Drawables()[0] != item {
		t.Error("drawable unit should be attached as a drawable")
	}
	content := item.Content().(*mounttest.FakeContent)
	if !content.Bound || content.Bounds != geometry.RectFromLTWH(0, 0, 100, 50) {
		t.Errorf("content = %+v, want bound with bounds set", content)
	}
	if !rec.Balanced() {
		t.Error("trace sections should be balanced")
	}
	if got := rec.Sections(); len(got) == 0 || got[0] != "MountState.mount" {
		t.Errorf("Sections() = %v, want MountState.mount first", got)
	}
}

func TestMount_EquivalentUnitSkipsLifecycle(t *testing.T) {
	state, _, _ := newState(t)
	log := mounttest.NewLog()
	first := &mounttest.Unit{Type: "image", Pure: true, Props: "a.png", Log: log}
	mustMount(t, state, mounttest.Node("img", "", first, 0, 0, 100, 50))
	log.Reset()

	tests := []struct {
		name string
		node *rendercore.TreeNode
	}{
		{"same unit", mounttest.Node("img", "", first, 0, 0, 100, 50)},
		{"equal unit", mounttest.Node("img", "", &mounttest.Unit{Type: "image", Pure: true, Props: "a.png", Log: log}, 0, 0, 100, 50)},
		{"moved pure unit", mounttest.Node("img", "", first, 10, 10, 200, 80)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := mustMount(t, state, tt.node)
			if log.Len() != 0 {
				t.Errorf("expected no lifecycle calls, got %v", log.Calls())
			}
			if res.Skipped != 1 {
				t.Errorf("Skipped = %d, want 1", res.Skipped)
			}
		})
	}

	item, _ := state.MountItem("img")
	content := item.Content().(*mounttest.FakeContent)
	if content.Bounds != geometry.RectFromLTWH(10, 10, 200, 80) {
		t.Errorf("content bounds = %v, want host to follow the latest node", content.Bounds)
	}
}

func TestMount_ChangedUnitReusesContent(t *testing.T) {
	state, _, _ := newState(t)
	log := mounttest.NewLog()
	mustMount(t, state, mounttest.Node("img", "", &mounttest.Unit{Type: "image", Pure: true, Props: "a.png", Log: log}, 0, 0, 100, 50))
	item, _ := state.MountItem("img")
	before := item.Content()
	log.Reset()

	res := mustMount(t, state, mounttest.Node("img", "", &mounttest.Unit{Type: "image", Pure: true, Props: "b.png", Log: log}, 0, 0, 120, 60))

	assertOps(t, log, "img", mounttest.OpUnbind, mounttest.OpUnmount, mounttest.OpBoundsDefined, mounttest.OpMount, mounttest.OpBind)
	if res.Updated != 1 {
		t.Errorf("Updated = %d, want 1", res.Updated)
	}
	item, _ = state.MountItem("img")
	if item.Content() != before {
		t.Error("update should reuse the existing content")
	}
	if got := item.Content().(*mounttest.FakeContent).Props; got != "b.png" {
		t.Errorf("content props = %q, want b.png", got)
	}
	if st := item.State(); st.Width != 120 {
		t.Errorf("state width = %v, want 120", st.Width)
	}
}

func TestMount_ChangedUnitSameBoundsSkipsBoundsDefined(t *testing.T) {
	state, _, _ := newState(t)
	log := mounttest.NewLog()
	mustMount(t, state, mounttest.Node("t", "", &mounttest.Unit{Props: "a", Log: log}, 0, 0, 10, 10))
	log.Reset()

	mustMount(t, state, mounttest.Node("t", "", &mounttest.Unit{Props: "b", Log: log}, 0, 0, 10, 10))
	assertOps(t, log, "t", mounttest.OpUnbind, mounttest.OpUnmount, mounttest.OpMount, mounttest.OpBind)
}

func TestMount_NonPureMovedUnitRebinds(t *testing.T) {
	state, _, _ := newState(t)
	log := mounttest.NewLog()
	unit := &mounttest.Unit{Props: "x", Log: log}
	mustMount(t, state, mounttest.Node("n", "", unit, 0, 0, 10, 10))
	log.Reset()

	res := mustMount(t, state, mounttest.Node("n", "", unit, 0, 0, 30, 10))
	// Same pointer: no update, but geometry changed for a non-pure unit.
	assertOps(t, log, "n", mounttest.OpUnbind, mounttest.OpBoundsDefined, mounttest.OpBind)
	if res.Rebound != 1 {
		t.Errorf("Rebound = %d, want 1", res.Rebound)
	}
}

func TestMount_RemovedNodeUnbindsUnmountsAndPools(t *testing.T) {
	state, root, _ := newState(t)
	log := mounttest.NewLog()
	unit := &mounttest.Unit{Type: "image", Pure: true, Props: "a.png", Log: log}
	mustMount(t, state, mounttest.Node("img", "", unit, 0, 0, 100, 50))
	item, _ := state.MountItem("img")
	content := item.Content()
	log.Reset()

	res := mustMount(t, state)
	assertOps(t, log, "img", mounttest.OpUnbind, mounttest.OpUnmount)
	if res.Unmounted != 1 {
		t.Errorf("Unmounted = %d, want 1", res.Unmounted)
	}
	if item.IsBound() || item.IsMounted() || item.Content() != nil {
		t.Error("removed item should be unbound, unmounted and released")
	}
	if root.Len() != 0 {
		t.Errorf("root host has %d children, want 0", root.Len())
	}
	if got := state.Pool().Len("image"); got != 1 {
		t.Fatalf("pool holds %d image contents, want 1", got)
	}

	log.Reset()
	mustMount(t, state, mounttest.Node("other", "", &mounttest.Unit{Type: "image", Pure: true, Props: "c.png", Log: log}, 0, 0, 5, 5))
	if log.Count("other", mounttest.OpCreate) != 0 {
		t.Error("pooled content should be reused instead of created")
	}
	reused, _ := state.MountItem("other")
	if reused.Content() != content {
		t.Error("expected the released instance to be reacquired")
	}
}

func TestMount_ContentTypeChangeReplaces(t *testing.T) {
	state, _, _ := newState(t)
	log := mounttest.NewLog()
	mustMount(t, state, mounttest.Node("n", "", &mounttest.Unit{Type: "text", Log: log}, 0, 0, 10, 10))
	log.Reset()

	res := mustMount(t, state, mounttest.Node("n", "", &mounttest.Unit{Type: "image", Log: log}, 0, 0, 10, 10))
	assertOps(t, log, "n",
		mounttest.OpUnbind, mounttest.OpUnmount,
		mounttest.OpCreate, mounttest.OpBoundsDefined, mounttest.OpMount, mounttest.OpBind)
	if res.Replaced != 1 {
		t.Errorf("Replaced = %d, want 1", res.Replaced)
	}
	if state.Pool().Len("text") != 1 {
		t.Error("replaced content should be released under its own type")
	}
}

func TestMount_MountTypeChangeAlwaysReplaces(t *testing.T) {
	state, root, _ := newState(t)
	log := mounttest.NewLog()
	mustMount(t, state, mounttest.Node("n", "", &mounttest.Unit{Type: "box", Kind: rendercore.MountTypeDrawable, Pure: true, Log: log}, 0, 0, 10, 10))

	res := mustMount(t, state, mounttest.Node("n", "", &mounttest.Unit{Type: "box", Kind: rendercore.MountTypeView, Pure: true, Log: log}, 0, 0, 10, 10))
	if res.Replaced != 1 {
		t.Errorf("Replaced = %d, want 1", res.Replaced)
	}
	if len(root.Views()) != 1 || len(root.Drawables()) != 0 {
		t.Error("replaced item should be attached as a view")
	}
}

func TestMount_CreateFailureLeavesNodeUnmounted(t *testing.T) {
	state, _, _ := newState(t)
	log := mounttest.NewLog()
	boom := stderrors.New("no texture memory")
	failingHost := mounttest.HostUnit("panel", log)
	failingHost.CreateErr = boom

	res, err := state.Mount(rendercore.MustRenderTree(
		mounttest.Node("ok", "", &mounttest.Unit{Log: log}, 0, 0, 10, 10),
		mounttest.Node("panel", "", failingHost, 0, 0, 10, 10),
		mounttest.Node("child", "panel", &mounttest.Unit{Log: log}, 0, 0, 5, 5),
	))
	if err != nil {
		t.Fatalf("creation failures should not abort the pass, got %v", err)
	}
	if res.Mounted != 1 {
		t.Errorf("Mounted = %d, want 1", res.Mounted)
	}
	if len(res.Failures) != 2 {
		t.Fatalf("Failures = %v, want 2", res.Failures)
	}
	if f := res.Failures[0]; f.Key != "panel" || f.Kind != errors.KindCreate || !stderrors.Is(f, boom) {
		t.Errorf("first failure = %v, want create failure of panel", f)
	}
	if !stderrors.Is(res.Failures[1], errors.ErrParentNotMounted) {
		t.Errorf("second failure = %v, want ErrParentNotMounted", res.Failures[1])
	}
	if !stderrors.Is(res.Err(), boom) {
		t.Error("Result.Err should join failures")
	}
	if _, ok := state.MountItem("panel"); ok {
		t.Error("failed node should not be mounted")
	}
	if _, ok := state.MountItem("ok"); !ok {
		t.Error("sibling of a failed node should still mount")
	}

	// The next generation retries the node.
	fixed := mounttest.HostUnit("panel", log)
	res = mustMount(t, state,
		mounttest.Node("ok", "", &mounttest.Unit{Log: log}, 0, 0, 10, 10),
		mounttest.Node("panel", "", fixed, 0, 0, 10, 10),
		mounttest.Node("child", "panel", &mounttest.Unit{Log: log}, 0, 0, 5, 5),
	)
	if res.Mounted != 2 || len(res.Failures) != 0 {
		t.Errorf("retry: Mounted = %d, Failures = %v", res.Mounted, res.Failures)
	}
}

func TestMount_CreatePanicIsCreateFailure(t *testing.T) {
	state, _, _ := newState(t)
	res, err := state.Mount(rendercore.MustRenderTree(
		mounttest.Node("n", "", &mounttest.Unit{PanicOn: mounttest.OpCreate}, 0, 0, 1, 1),
	))
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	var perr *errors.PanicError
	if len(res.Failures) != 1 || !stderrors.As(res.Failures[0], &perr) {
		t.Fatalf("Failures = %v, want one wrapped panic", res.Failures)
	}
}

func TestMount_ShouldUpdatePanicLeavesTreeIntact(t *testing.T) {
	state, root, rec := newState(t)
	log := mounttest.NewLog()
	mustMount(t, state,
		mounttest.Node("a", "", &mounttest.Unit{Props: "1", Log: log}, 0, 0, 10, 10),
		mounttest.Node("b", "", &mounttest.Unit{Props: "1", Log: log}, 0, 10, 10, 10),
	)
	log.Reset()

	_, err := state.Mount(rendercore.MustRenderTree(
		mounttest.Node("a", "", &mounttest.Unit{Props: "2", Log: log}, 0, 0, 10, 10),
		mounttest.Node("b", "", &mounttest.Unit{Props: "2", Log: log, PanicOn: "shouldUpdate"}, 0, 10, 10, 10),
	))
	var merr *errors.MountError
	if !stderrors.As(err, &merr) || merr.Kind != errors.KindEquivalence {
		t.Fatalf("error = %v, want equivalence MountError", err)
	}
	if log.Len() != 0 {
		t.Errorf("failed comparison should not touch the tree, got %v", log.Calls())
	}
	if state.Len() != 2 || root.Len() != 2 {
		t.Error("previous tree should stay mounted")
	}
	if !rec.Balanced() {
		t.Error("trace sections should be closed after a failed pass")
	}
}

func TestMount_LifecyclePanicAbortsPass(t *testing.T) {
	state, root, rec := newState(t)
	handler := useQuietHandler(t)

	_, err := state.Mount(rendercore.MustRenderTree(
		mounttest.Node("n", "", &mounttest.Unit{PanicOn: mounttest.OpBind}, 0, 0, 1, 1),
	))
	var merr *errors.MountError
	if !stderrors.As(err, &merr) || merr.Kind != errors.KindPanic {
		t.Fatalf("error = %v, want panic MountError", err)
	}
	if len(handler.panics) != 1 {
		t.Errorf("reported panics = %d, want 1", len(handler.panics))
	}
	if !rec.Balanced() {
		t.Error("trace sections should be closed after a panic")
	}
	item, ok := state.MountItem("n")
	if !ok {
		t.Fatal("half-mounted item should stay registered")
	}
	if item.IsBound() || root.Len() != 1 {
		t.Errorf("bound = %v, root children = %d, want unbound and attached", item.IsBound(), root.Len())
	}

	// A healthy unit under the same key replaces the half-mounted item.
	log := mounttest.NewLog()
	res := mustMount(t, state, mounttest.Node("n", "", &mounttest.Unit{Log: log}, 0, 0, 1, 1))
	if res.Replaced != 1 {
		t.Errorf("Replaced = %d, want 1", res.Replaced)
	}
	if item, _ := state.MountItem("n"); item == nil || !item.IsBound() {
		t.Error("replacement should be bound")
	}
	if root.Len() != 1 {
		t.Errorf("root children = %d, want 1", root.Len())
	}

	if _, err := state.Mount(rendercore.EmptyTree()); err != nil {
		t.Errorf("Mount() after abort error = %v", err)
	}
	if root.Len() != 0 || state.Len() != 0 {
		t.Errorf("root children = %d, items = %d, want both 0", root.Len(), state.Len())
	}
}

func TestMount_MountPanicDropsContent(t *testing.T) {
	state, root, _ := newState(t)

	_, err := state.Mount(rendercore.MustRenderTree(
		mounttest.Node("n", "", &mounttest.Unit{PanicOn: mounttest.OpMount}, 0, 0, 1, 1),
	))
	var merr *errors.MountError
	if !stderrors.As(err, &merr) || merr.Kind != errors.KindPanic {
		t.Fatalf("error = %v, want panic MountError", err)
	}
	if state.Len() != 1 || root.Len() != 0 {
		t.Errorf("items = %d, root children = %d, want 1 and 0", state.Len(), root.Len())
	}

	if _, err := state.Mount(rendercore.EmptyTree()); err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if state.Len() != 0 || root.Len() != 0 {
		t.Errorf("items = %d, root children = %d, want both 0", state.Len(), root.Len())
	}
	if n := state.Pool().Len("fake"); n != 0 {
		t.Errorf("pooled = %d, content that never mounted should not be reused", n)
	}
}

// taggedUnit is comparable by type, but == panics when tag holds a func.
type taggedUnit struct {
	*mounttest.Unit
	tag any
}

func TestMount_UncomparableUnitIsEquivalenceError(t *testing.T) {
	state, root, rec := newState(t)
	unit := &mounttest.Unit{Props: "1"}
	mustMount(t, state, mounttest.Node("n", "", taggedUnit{Unit: unit, tag: func() {}}, 0, 0, 10, 10))

	_, err := state.Mount(rendercore.MustRenderTree(
		mounttest.Node("n", "", taggedUnit{Unit: unit, tag: func() {}}, 0, 0, 10, 10),
	))
	var merr *errors.MountError
	if !stderrors.As(err, &merr) || merr.Kind != errors.KindEquivalence {
		t.Fatalf("error = %v, want equivalence MountError", err)
	}
	if merr.Key != "n" {
		t.Errorf("Key = %q, want %q", merr.Key, "n")
	}
	if state.Len() != 1 || root.Len() != 1 {
		t.Error("previous tree should stay mounted")
	}
	if !rec.Balanced() {
		t.Error("trace sections should be closed after a failed pass")
	}
}

type reentrantUnit struct {
	*mounttest.Unit
	onBind func()
}

func (u *reentrantUnit) Bind(ctx *rendercore.Context, content rendercore.Content) bool {
	if u.onBind != nil {
		u.onBind()
	}
	return u.Unit.Bind(ctx, content)
}

func TestMount_TreeSubmittedDuringPassIsQueued(t *testing.T) {
	state, _, _ := newState(t)
	log := mounttest.NewLog()
	second := rendercore.MustRenderTree(mounttest.Node("second", "", &mounttest.Unit{Log: log}, 0, 0, 1, 1))

	var queued *rendercore.Result
	unit := &reentrantUnit{Unit: &mounttest.Unit{Log: log}}
	unit.onBind = func() {
		res, err := state.Mount(second)
		if err != nil {
			t.Errorf("nested Mount() error = %v", err)
		}
		queued = res
	}

	_, err := state.Mount(rendercore.MustRenderTree(mounttest.Node("first", "", unit, 0, 0, 1, 1)))
	if err != nil {
		t.Fatalf("Mount() error = %v", err)
	}
	if queued == nil || !queued.Queued {
		t.Fatalf("nested Mount should be queued, got %+v", queued)
	}
	// first finished mount and bind before being removed by the queued tree.
	assertOps(t, log, "first",
		mounttest.OpCreate, mounttest.OpBoundsDefined, mounttest.OpMount, mounttest.OpBind,
		mounttest.OpUnbind, mounttest.OpUnmount)
	if _, ok := state.MountItem("second"); !ok {
		t.Error("queued tree should be applied after the running pass")
	}
	if state.Tree() != second {
		t.Error("Tree() should return the last applied tree")
	}
}

func TestMount_ChildrenAttachToParentHost(t *testing.T) {
	state, root, _ := newState(t)
	log := mounttest.NewLog()
	panel := mounttest.HostUnit("panel", log)
	label := &mounttest.Unit{Type: "text", Pure: true, Props: "hi", Log: log}
	icon := &mounttest.Unit{Type: "icon", Kind: rendercore.MountTypeView, Pure: true, Props: "star", Log: log}

	mustMount(t, state,
		mounttest.Node("panel", "", panel, 0, 0, 100, 100),
		mounttest.Node("label", "panel", label, 0, 0, 50, 20),
		mounttest.Node("icon", "panel", icon, 50, 0, 20, 20),
	)
	panelItem, _ := state.MountItem("panel")
	host := panelItem.Content().(*rendercore.ViewHost)
	if root.Len() != 1 || host.Len() != 2 {
		t.Fatalf("root=%d panel=%d children, want 1 and 2", root.Len(), host.Len())
	}
	children := host.Children()
	if children[0].Key() != "label" || children[1].Key() != "icon" {
		t.Errorf("children = [%s %s], want tree order", children[0].Key(), children[1].Key())
	}

	// Swap the panel for a host of another content type; the children
	// survive without lifecycle calls and move into the new host.
	log.Reset()
	other := mounttest.HostUnit("card", log)
	other.Type = "card"
	mustMount(t, state,
		mounttest.Node("panel", "", other, 0, 0, 100, 100),
		mounttest.Node("icon", "panel", icon, 0, 0, 20, 20),
		mounttest.Node("label", "panel", label, 20, 0, 50, 20),
	)
	assertOps(t, log, "label")
	assertOps(t, log, "icon")
	if host.Len() != 0 {
		t.Errorf("old host still has %d children", host.Len())
	}
	panelItem, _ = state.MountItem("panel")
	newHost := panelItem.Content().(*rendercore.ViewHost)
	children = newHost.Children()
	if len(children) != 2 || children[0].Key() != "icon" {
		t.Errorf("new host children out of order: %v", children)
	}
}

func TestMount_RemovingHostRemovesChildren(t *testing.T) {
	state, root, _ := newState(t)
	log := mounttest.NewLog()
	mustMount(t, state,
		mounttest.Node("panel", "", mounttest.HostUnit("panel", log), 0, 0, 100, 100),
		mounttest.Node("label", "panel", &mounttest.Unit{Log: log}, 0, 0, 50, 20),
	)
	log.Reset()

	res := mustMount(t, state)
	if res.Unmounted != 2 {
		t.Errorf("Unmounted = %d, want 2", res.Unmounted)
	}
	calls := log.Calls()
	if len(calls) != 4 || calls[0].Key != "label" {
		t.Errorf("calls = %v, want label torn down before panel", calls)
	}
	if root.Len() != 0 || state.Len() != 0 {
		t.Error("everything should be unmounted")
	}
	if state.Pool().Len("host") != 1 {
		t.Error("host content should be pooled")
	}
}

func TestMountState_ReleaseClearsPool(t *testing.T) {
	state, _, _ := newState(t)
	mustMount(t, state, mounttest.Node("a", "", &mounttest.Unit{}, 0, 0, 1, 1))
	if err := state.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if state.Len() != 0 || state.Pool().Len("fake") != 0 {
		t.Error("Release should unmount everything and empty the pool")
	}
}

func TestMount_NilTreeUnmountsEverything(t *testing.T) {
	state, _, _ := newState(t)
	mustMount(t, state, mounttest.Node("a", "", &mounttest.Unit{}, 0, 0, 1, 1))
	res, err := state.Mount(nil)
	if err != nil || res.Unmounted != 1 {
		t.Errorf("Mount(nil) = %+v, %v; want one unmount", res, err)
	}
}
