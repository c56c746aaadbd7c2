package easm

import "fmt"

// Diagnostic is an assembly-time error tied to a source location, with an
// optional NOTE pointing at a related location (e.g. where a name was
// first bound). Translate returns the first Diagnostic it hits rather than
// collecting multiple, mirroring the reference assembler's fail-fast
// behavior.
type Diagnostic struct {
	Location Location
	Message  string
	Note     string
	NoteAt   Location
}

func (d *Diagnostic) Error() string {
	if d.Note == "" {
		return fmt.Sprintf("%s: ERROR: %s", d.Location, d.Message)
	}
	return fmt.Sprintf("%s: ERROR: %s\n%s: NOTE: %s", d.Location, d.Message, d.NoteAt, d.Note)
}

func errf(loc Location, format string, args ...any) *Diagnostic {
	return &Diagnostic{Location: loc, Message: fmt.Sprintf(format, args...)}
}

func errDuplicate(loc Location, kind, name string, first Location) *Diagnostic {
	return &Diagnostic{
		Location: loc,
		Message:  fmt.Sprintf("%s '%s' is already defined", kind, name),
		Note:     "first binding is located here",
		NoteAt:   first,
	}
}
