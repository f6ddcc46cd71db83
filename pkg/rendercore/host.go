package rendercore

import (
	"slices"
)

// Host is a container in the live hierarchy that owns mounted content.
// MountState is the only caller of Attach and Detach. A host keeps
// non-owning references to its items: releasing content is decided by the
// MountItem, not by the host.
type Host interface {
	// Attach inserts the item's content into the host's visible children.
	Attach(item *MountItem)
	// Detach removes the item's content from the host's visible children.
	Detach(item *MountItem)
	// Children returns the attached items in stacking order.
	Children() []*MountItem
}

// ViewHost is an in-memory Host. Drawable content is kept apart from view
// content, the way a native host draws drawables itself and parents views.
type ViewHost struct {
	name      string
	drawables []*MountItem
	views     []*MountItem
	attaches  int
}

// ViewHostAttachment is the mount data a ViewHost stores on attached items.
type ViewHostAttachment struct {
	Host *ViewHost
	// Seq is the host-wide attach sequence number.
	Seq int
}

// NewViewHost creates an empty host.
func NewViewHost(name string) *ViewHost {
	return &ViewHost{name: name}
}

// Name returns the host's label.
func (h *ViewHost) Name() string {
	return h.name
}

// Attach adds item to the drawable or view list based on its mount type.
func (h *ViewHost) Attach(item *MountItem) {
	h.attaches++
	item.SetMountData(ViewHostAttachment{Host: h, Seq: h.attaches})
	if item.MountType() == MountTypeDrawable {
		h.drawables = append(h.drawables, item)
		return
	}
	h.views = append(h.views, item)
}

// Detach removes item from whichever list holds it.
func (h *ViewHost) Detach(item *MountItem) {
	h.drawables = slices.DeleteFunc(h.drawables, func(m *MountItem) bool { return m == item })
	h.views = slices.DeleteFunc(h.views, func(m *MountItem) bool { return m == item })
	if data, ok := item.MountData().(ViewHostAttachment); ok && data.Host == h {
		item.SetMountData(nil)
	}
}

// Children returns drawables and views merged in tree order.
func (h *ViewHost) Children() []*MountItem {
	out := make([]*MountItem, 0, len(h.drawables)+len(h.views))
	out = append(out, h.drawables...)
	out = append(out, h.views...)
	sortByPosition(out)
	return out
}

// Drawables returns attached drawable items in tree order.
func (h *ViewHost) Drawables() []*MountItem {
	out := slices.Clone(h.drawables)
	sortByPosition(out)
	return out
}

// Views returns attached view items in tree order.
func (h *ViewHost) Views() []*MountItem {
	out := slices.Clone(h.views)
	sortByPosition(out)
	return out
}

// Len returns the number of attached items.
func (h *ViewHost) Len() int {
	return len(h.drawables) + len(h.views)
}

// sortByPosition orders items by their current tree position. Positions are
// refreshed on every pass, so stacking follows the latest tree.
func sortByPosition(items []*MountItem) {
	slices.SortStableFunc(items, func(a, b *MountItem) int {
		return a.Node().Position() - b.Node().Position()
	})
}
