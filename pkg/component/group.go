package component

import (
	"github.com/go-drift/mountcore/pkg/rendercore"
)

// Group is a view whose content is a rendercore.ViewHost, so nodes parented
// to it attach to the group instead of the root.
type Group struct {
	Base
	label string
}

// NewGroup returns a host descriptor. Groups with the same label are
// equivalent.
func NewGroup(label string) *Group {
	return &Group{label: label}
}

func (g *Group) Label() string                   { return g.label }
func (g *Group) SimpleName() string              { return "Group" }
func (g *Group) MountType() rendercore.MountType { return rendercore.MountTypeView }
func (g *Group) IsPureRender() bool              { return true }

func (g *Group) OnCreateMountContent(any) (rendercore.Content, error) {
	return rendercore.NewViewHost(g.label), nil
}

func (g *Group) IsEquivalentTo(other Component) bool {
	o, ok := other.(*Group)
	return ok && o != nil && o.label == g.label
}
