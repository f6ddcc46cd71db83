// Package rendercore mounts computed render trees onto a live host hierarchy.
//
// A RenderTree is the output of layout: an ordered sequence of TreeNodes,
// each pairing a RenderUnit with resolved bounds and a matching key that is
// stable across generations. MountState reconciles successive trees against
// the mounted hierarchy, producing the smallest set of create, mount, bind,
// unbind and unmount calls that makes the hosts reflect the new tree.
//
// # Lifecycle
//
// Each live node is represented by a MountItem. Its content moves through
//
//	create -> boundsDefined -> mount -> bind -> unbind -> unmount -> release
//
// and the MountItem refuses any other order. Out-of-order calls are
// programming errors: they abort the pass with an *errors.LifecycleError.
//
// # Reconciliation
//
// For every node of the next tree, MountState picks one path:
//
//   - mount: no live item under the key
//   - replace: content type or mount type changed
//   - update: RenderUnit.ShouldUpdate reported a change
//   - rebind: non-pure unit whose bounds moved
//   - skip: nothing to do; no lifecycle calls at all
//
// Keys that disappear are unbound, unmounted and their content released to
// the ContentPool for reuse by the next node of the same ContentType.
//
// # Threading
//
// Passes run to completion on the calling goroutine. A tree submitted while
// a pass is running is queued and applied once the running pass finishes.
package rendercore
