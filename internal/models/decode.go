package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strings"

	errs "github.com/julianstephens/dashtrack/internal/errors"
)

// DecodeInput parses a JSON payload into an insert shape. Type mismatches
// (a string or fraction where an integer belongs) and malformed JSON are
// reported as invalid input naming the field. Unknown keys, including
// id/ownerId/createdAt, are ignored.
func DecodeInput[I any](data []byte) (I, error) {
	var in I
	if len(bytes.TrimSpace(data)) == 0 {
		return in, nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&in); err != nil {
		return in, decodeError(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return in, errs.InvalidField("body", "must contain a single JSON object")
	}
	return in, nil
}

func decodeError(err error) error {
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "body"
		}
		// Nested paths such as "weekProgress.3" report the top-level field
		if i := strings.IndexByte(field, '.'); i > 0 {
			field = field[:i]
		}
		return errs.InvalidField(field, "must be of type "+typeErr.Type.String())
	}
	return errs.InvalidField("body", "must be a JSON object")
}
