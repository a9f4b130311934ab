package diag

import (
	"fmt"

	"qllc/internal/source"
)

type Note struct {
	Location *source.Location
	Msg      string
}

type Diagnostic struct {
	Severity Severity
	Code     Code
	Message  string
	Location *source.Location
	Notes    []Note
}

func New(sev Severity, code Code, loc *source.Location, msg string) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     code,
		Location: loc,
		Message:  msg,
	}
}

func NewError(code Code, loc *source.Location, msg string) Diagnostic {
	return New(SevError, code, loc, msg)
}

func (d Diagnostic) WithNote(loc *source.Location, msg string) Diagnostic {
	d.Notes = append(d.Notes, Note{Location: loc, Msg: msg})
	return d
}

// String renders the diagnostic as `severity: file(line)[column]: text`,
// dropping the location part when it is unknown.
func (d Diagnostic) String() string {
	if d.Location == nil {
		return fmt.Sprintf("%s: %s", d.Severity, d.Message)
	}
	return fmt.Sprintf("%s: %s: %s", d.Severity, d.Location, d.Message)
}
