package procedure

import "sync"

var (
	defaultMu    sync.Mutex
	defaultTable = make(map[string]Procedure)
)

// RegisterProcedure adds a procedure to the package-wide default table,
// which seeds every executor created through NewDefaultExecutor. Packages
// contribute entries from init so registration order is deterministic per
// import graph.
func RegisterProcedure(p Procedure) error {
	if p == nil {
		return ErrNilProcedure
	}
	if p.Name() == "" {
		return ErrEmptyName
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultTable[p.Name()] = p

	return nil
}

// MustRegisterProcedure is RegisterProcedure that panics on error. Intended
// for init-time registration where a failure is a programming error.
func MustRegisterProcedure(p Procedure) {
	if err := RegisterProcedure(p); err != nil {
		panic(err)
	}
}

// RegisteredProcedures returns a snapshot of the default table.
func RegisteredProcedures() []Procedure {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	procedures := make([]Procedure, 0, len(defaultTable))
	for _, p := range defaultTable {
		procedures = append(procedures, p)
	}

	return procedures
}
