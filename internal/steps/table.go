package steps

// Step is one row of the step table
type Step struct {
	ID       View   `yaml:"view"`
	Previous View   `yaml:"previous"`
	Next     View   `yaml:"next"`
	Label    string `yaml:"label"`
}

// IsTerminal reports whether the step loops back to itself on Next
func (s Step) IsTerminal() bool {
	return s.Next == s.ID
}

// Table is the immutable, ordered step table. Build it with NewTable.
type Table struct {
	steps      []Step
	index      map[View]int
	boundaries map[View]bool
}

// Option configures NewTable
type Option func(*Table)

// WithBoundary allows Previous/Next to point at views that have no row
// (views hosted outside the wizard). home and exit are always boundaries.
func WithBoundary(views ...View) Option {
	return func(t *Table) {
		for _, v := range views {
			t.boundaries[v] = true
		}
	}
}

// NewTable validates the rows and returns an immutable table.
func NewTable(rows []Step, opts ...Option) (*Table, error) {
	t := &Table{
		steps: make([]Step, len(rows)),
		index: make(map[View]int, len(rows)),
		boundaries: map[View]bool{
			ViewHome: true,
			ViewExit: true,
		},
	}
	copy(t.steps, rows)

	for _, opt := range opts {
		opt(t)
	}

	if len(t.steps) == 0 {
		return nil, newTableError(ErrKindEmpty, ViewUnknown, "at least one step is required")
	}

	for i, s := range t.steps {
		if !s.ID.Valid() {
			return nil, newTableError(ErrKindInvalidView, ViewUnknown, "row %d has an invalid view", i+1)
		}
		if s.ID == ViewExit {
			return nil, newTableError(ErrKindInvalidView, s.ID, "exit is a sentinel and cannot be a step")
		}
		if !s.Previous.Valid() {
			return nil, newTableError(ErrKindInvalidView, s.ID, "previous view is not set")
		}
		if !s.Next.Valid() {
			return nil, newTableError(ErrKindInvalidView, s.ID, "next view is not set")
		}
		if _, dup := t.index[s.ID]; dup {
			return nil, newTableError(ErrKindDuplicate, s.ID, "view appears more than once")
		}
		t.index[s.ID] = i
	}

	// A view that has its own row is never treated as a boundary
	for v := range t.boundaries {
		if _, ok := t.index[v]; ok {
			delete(t.boundaries, v)
		}
	}

	for _, s := range t.steps {
		if !t.knownReference(s.Previous) {
			return nil, newTableError(ErrKindDanglingReference, s.ID, "previous view %s is not in the table", s.Previous)
		}
		if !t.knownReference(s.Next) {
			return nil, newTableError(ErrKindDanglingReference, s.ID, "next view %s is not in the table", s.Next)
		}
	}

	if err := t.checkChain(); err != nil {
		return nil, err
	}

	return t, nil
}

// checkChain walks Next from the first row. Every row must be visited once and
// the walk must end at a boundary or at a terminal self-loop.
func (t *Table) checkChain() error {
	visited := make(map[View]bool, len(t.steps))
	current := t.steps[0]

	for {
		visited[current.ID] = true

		if current.IsTerminal() || t.boundaries[current.Next] {
			break
		}

		if visited[current.Next] {
			return newTableError(ErrKindCycle, current.ID, "next view %s was already visited", current.Next)
		}
		current = t.steps[t.index[current.Next]]
	}

	for _, s := range t.steps {
		if !visited[s.ID] {
			return newTableError(ErrKindDisconnected, s.ID, "step is not reachable from %s", t.steps[0].ID)
		}
	}

	return nil
}

func (t *Table) knownReference(v View) bool {
	if _, ok := t.index[v]; ok {
		return true
	}
	return t.boundaries[v]
}

// Lookup returns the row for view
func (t *Table) Lookup(view View) (Step, error) {
	i, ok := t.index[view]
	if !ok {
		return Step{}, &UnknownStepError{View: view, Op: "lookup"}
	}
	return t.steps[i], nil
}

// Contains reports whether view has a row
func (t *Table) Contains(view View) bool {
	_, ok := t.index[view]
	return ok
}

// IsBoundary reports whether view is an allowed reference without a row
func (t *Table) IsBoundary(view View) bool {
	return t.boundaries[view]
}

// Index returns the zero-based position of view, or -1
func (t *Table) Index(view View) int {
	if i, ok := t.index[view]; ok {
		return i
	}
	return -1
}

// First returns the initial step of the wizard
func (t *Table) First() Step {
	return t.steps[0]
}

// Last returns the final step of the wizard
func (t *Table) Last() Step {
	return t.steps[len(t.steps)-1]
}

// Len returns the number of steps
func (t *Table) Len() int {
	return len(t.steps)
}

// Steps returns a copy of the rows in order
func (t *Table) Steps() []Step {
	out := make([]Step, len(t.steps))
	copy(out, t.steps)
	return out
}

// Boundaries returns the boundary views in declaration order
func (t *Table) Boundaries() []View {
	var out []View
	for _, v := range AllViews() {
		if t.boundaries[v] {
			out = append(out, v)
		}
	}
	return out
}

// DefaultTable returns the document sending workflow:
// recipient → selectFile → sendDocument → documentValidation.
// The validation step points back to itself.
func DefaultTable() *Table {
	t, err := NewTable(DefaultSteps())
	if err != nil {
		panic("steps: default table is invalid: " + err.Error())
	}
	return t
}

// DefaultSteps returns the rows used by DefaultTable
func DefaultSteps() []Step {
	return []Step{
		{ID: ViewRecipient, Previous: ViewHome, Next: ViewSelectFile, Label: "Recipients"},
		{ID: ViewSelectFile, Previous: ViewRecipient, Next: ViewSendDocument, Label: "Select document"},
		{ID: ViewSendDocument, Previous: ViewSelectFile, Next: ViewDocumentValidation, Label: "Prepare sending"},
		{ID: ViewDocumentValidation, Previous: ViewSendDocument, Next: ViewDocumentValidation, Label: "Send"},
	}
}
