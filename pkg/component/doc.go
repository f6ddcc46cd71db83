// Package component provides descriptors: immutable values that say what a
// tree position should render. A descriptor is turned into a
// rendercore.RenderUnit with Of, and every lifecycle callback it receives is
// wrapped in a trace section named "<callback>:<SimpleName>".
//
// Descriptors embed Base for default callbacks and implement the rest:
//
//	type Label struct {
//		component.Base
//		text string
//	}
//
//	func (l *Label) SimpleName() string                { return "Label" }
//	func (l *Label) MountType() rendercore.MountType   { return rendercore.MountTypeDrawable }
//	func (l *Label) IsPureRender() bool                { return true }
//	func (l *Label) OnCreateMountContent(env any) (rendercore.Content, error) { ... }
//	func (l *Label) IsEquivalentTo(other component.Component) bool { ... }
//
// Geometry captured in OnBoundsDefined belongs in the engine-owned
// rendercore.State, never on the descriptor itself.
package component
