package view

// PopoverKind names the two per-post popover surfaces.
type PopoverKind int

const (
	PopoverNone PopoverKind = iota
	PopoverMenu
	PopoverPicker
)

// Popover is the single active popover across the whole room view. The zero
// value means none is open. Exactly one options menu or reaction picker may
// be open at a time; opening any popover replaces the previous one.
type Popover struct {
	Kind   PopoverKind
	PostID string
}

// None reports whether no popover is open.
func (p Popover) None() bool { return p.Kind == PopoverNone }
