package field

import (
	"github.com/goliatone/go-inputfield/pkg/convert"
	"github.com/goliatone/go-inputfield/pkg/form"
	"github.com/goliatone/go-inputfield/pkg/validation"
)

// Control is the type-erased view of a Field used by hosts that drive
// fields built from configuration.
type Control interface {
	Focus()
	Input(text string)
	Blur()
	Close()

	Text() string
	EditText() string
	State() State
	HasError() bool
	ErrorKind() validation.ErrorKind
	LastError() error
	Invalid() bool
	Messages() []string

	TypeTag() convert.Tag
	FieldID() form.FieldID
	Label() string
	Required() bool
	Disabled() bool
	ReadOnly() bool
	ValueAny() any
}

var _ Control = (*Field[int])(nil)
