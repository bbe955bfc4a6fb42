package types

import (
	"encoding/json"
	"errors"
)

var (
	errResultShape   = errors.New("types: result expects exactly one of \"Ok\" or \"Err\"")
	errResultVariant = errors.New("types: result variant must be \"Ok\" or \"Err\"")
)

// Result is a tagged sum holding either a success value or a failure. It
// encodes as {"Ok": value} or {"Err": failure}.
type Result[T any, E any] struct {
	ok    T
	err   E
	isErr bool
}

func Ok[T any, E any](value T) Result[T, E] {
	return Result[T, E]{ok: value}
}

func Err[T any, E any](failure E) Result[T, E] {
	return Result[T, E]{err: failure, isErr: true}
}

func (r Result[T, E]) IsOk() bool { return !r.isErr }

func (r Result[T, E]) IsErr() bool { return r.isErr }

// Value returns the success value and whether the result is Ok.
func (r Result[T, E]) Value() (T, bool) {
	return r.ok, !r.isErr
}

// Failure returns the failure and whether the result is Err.
func (r Result[T, E]) Failure() (E, bool) {
	return r.err, r.isErr
}

func (r Result[T, E]) MarshalJSON() ([]byte, error) {
	if r.isErr {
		return json.Marshal(struct {
			Err E `json:"Err"`
		}{r.err})
	}
	return json.Marshal(struct {
		Ok T `json:"Ok"`
	}{r.ok})
}

func (r *Result[T, E]) UnmarshalJSON(data []byte) error {
	var tmp map[string]json.RawMessage
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if len(tmp) != 1 {
		return errResultShape
	}
	if raw, ok := tmp["Ok"]; ok {
		var value T
		if err := json.Unmarshal(raw, &value); err != nil {
			return err
		}
		*r = Ok[T, E](value)
		return nil
	}
	if raw, ok := tmp["Err"]; ok {
		var failure E
		if err := json.Unmarshal(raw, &failure); err != nil {
			return err
		}
		*r = Err[T, E](failure)
		return nil
	}
	return errResultVariant
}
