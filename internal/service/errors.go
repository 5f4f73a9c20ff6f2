package service

import (
	"errors"

	"connectrpc.com/connect"
	"github.com/goccy/go-json"

	"github.com/mmynk/toastmixer/internal/storage"
	"github.com/mmynk/toastmixer/internal/validation"
)

// ValidationFieldsHeader carries the rejected fields of an InvalidArgument
// error as a JSON object of field name to message.
const ValidationFieldsHeader = "Toast-Validation-Fields"

// toConnectError maps roster errors onto Connect codes: rejected input is
// InvalidArgument, a mutation on a missing row is NotFound, anything else is
// Internal.
func toConnectError(err error) *connect.Error {
	var ve *validation.RequestValidationError
	switch {
	case errors.As(err, &ve):
		cerr := connect.NewError(connect.CodeInvalidArgument, err)
		if fields, merr := json.Marshal(ve.Fields()); merr == nil {
			cerr.Meta().Set(ValidationFieldsHeader, string(fields))
		}
		return cerr
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	default:
		return connect.NewError(connect.CodeInternal, err)
	}
}
