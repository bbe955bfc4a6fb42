package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
)

// Kind names a class of contract failure. The string form is stable and used
// as the variant tag of the JSON wire encoding.
type Kind string

const (
	KindArgumentDecoding     Kind = "MethodArgumentDeserializationError"
	KindFunctionReturned     Kind = "FunctionReturnedWithError"
	KindKeyNotFound          Kind = "KeyNotFoundInCollection"
	KindAuthorization        Kind = "AuthorizationError"
	KindCrossContractCall    Kind = "CrossContractCallError"
	KindCallResultDecoding   Kind = "CrossContractCallResultDeserializationError"
	KindInternalInconsistent Kind = "InternalInconsistencyError"
	KindInvalidCall          Kind = "InvalidCrossContractCallError"
	KindMethodNotFound       Kind = "MethodNotFoundError"
)

var knownKinds = map[Kind]struct{}{
	KindArgumentDecoding:     {},
	KindFunctionReturned:     {},
	KindKeyNotFound:          {},
	KindAuthorization:        {},
	KindCrossContractCall:    {},
	KindCallResultDecoding:   {},
	KindInternalInconsistent: {},
	KindInvalidCall:          {},
	KindMethodNotFound:       {},
}

// Sentinels for errors.Is matching by kind.
var (
	ErrArgumentDecoding     = &ContractError{Kind: KindArgumentDecoding}
	ErrFunctionReturned     = &ContractError{Kind: KindFunctionReturned}
	ErrKeyNotFound          = &ContractError{Kind: KindKeyNotFound}
	ErrAuthorization        = &ContractError{Kind: KindAuthorization}
	ErrCrossContractCall    = &ContractError{Kind: KindCrossContractCall}
	ErrCallResultDecoding   = &ContractError{Kind: KindCallResultDecoding}
	ErrInternalInconsistent = &ContractError{Kind: KindInternalInconsistent}
	ErrInvalidCall          = &ContractError{Kind: KindInvalidCall}
	ErrMethodNotFound       = &ContractError{Kind: KindMethodNotFound}
)

// ContractError is the structured failure a contract method reports to its
// caller. ContractID is set for failures that crossed a contract boundary.
type ContractError struct {
	Kind       Kind
	ContractID string
	Method     string
	Message    string
}

func (e *ContractError) Error() string {
	if e == nil {
		return "<nil>"
	}
	switch e.Kind {
	case KindArgumentDecoding:
		return fmt.Sprintf("arguments for method `%s` cannot be deserialized: %s", e.Method, e.Message)
	case KindFunctionReturned:
		return fmt.Sprintf("method `%s` returned with an error: %s", e.Method, e.Message)
	case KindKeyNotFound:
		return fmt.Sprintf("key `%s` not found in the collection state", e.Message)
	case KindAuthorization:
		return fmt.Sprintf("method `%s` not authorized: %s", e.Method, e.Message)
	case KindCrossContractCall:
		return fmt.Sprintf("error occurred while executing contract call with id `%s` to method `%s`: %s", e.ContractID, e.Method, e.Message)
	case KindCallResultDecoding:
		return fmt.Sprintf("result from cross contract call with id `%s` and method `%s` cannot be deserialized: %s", e.ContractID, e.Method, e.Message)
	case KindInternalInconsistent:
		return fmt.Sprintf("internal inconsistency in method `%s`: %s", e.Method, e.Message)
	case KindInvalidCall:
		return fmt.Sprintf("invalid cross contract call with id `%s` to method `%s`: %s", e.ContractID, e.Method, e.Message)
	case KindMethodNotFound:
		return fmt.Sprintf("method `%s` not found on contract `%s`", e.Method, e.ContractID)
	default:
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
}

// Is matches any ContractError of the same kind, so the package sentinels can
// be used with errors.Is.
func (e *ContractError) Is(target error) bool {
	t, ok := target.(*ContractError)
	if !ok || e == nil || t == nil {
		return false
	}
	return e.Kind == t.Kind
}

type wireError struct {
	ContractID string `json:"contract_id,omitempty"`
	MethodName string `json:"method_name"`
	Message    string `json:"message"`
}

// MarshalJSON encodes the error as a single-variant object keyed by kind.
func (e *ContractError) MarshalJSON() ([]byte, error) {
	return json.Marshal(map[Kind]wireError{
		e.Kind: {ContractID: e.ContractID, MethodName: e.Method, Message: e.Message},
	})
}

func (e *ContractError) UnmarshalJSON(data []byte) error {
	var tmp map[Kind]wireError
	if err := json.Unmarshal(data, &tmp); err != nil {
		return err
	}
	if len(tmp) != 1 {
		return stderrors.New("errors: contract error expects exactly one variant key")
	}
	for kind, inner := range tmp {
		if _, ok := knownKinds[kind]; !ok {
			return fmt.Errorf("errors: unknown contract error kind %q", kind)
		}
		e.Kind = kind
		e.ContractID = inner.ContractID
		e.Method = inner.MethodName
		e.Message = inner.Message
	}
	return nil
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func ArgumentDecoding(method string, err error) *ContractError {
	return &ContractError{Kind: KindArgumentDecoding, Method: method, Message: messageOf(err)}
}

func FunctionReturned(method string, err error) *ContractError {
	return &ContractError{Kind: KindFunctionReturned, Method: method, Message: messageOf(err)}
}

func KeyNotFound(key string) *ContractError {
	return &ContractError{Kind: KindKeyNotFound, Message: key}
}

func Authorization(method, message string) *ContractError {
	return &ContractError{Kind: KindAuthorization, Method: method, Message: message}
}

func CrossContractCall(contractID, method, message string) *ContractError {
	return &ContractError{Kind: KindCrossContractCall, ContractID: contractID, Method: method, Message: message}
}

func CallResultDecoding(contractID, method string, err error) *ContractError {
	return &ContractError{Kind: KindCallResultDecoding, ContractID: contractID, Method: method, Message: messageOf(err)}
}

func InternalInconsistency(method, message string) *ContractError {
	return &ContractError{Kind: KindInternalInconsistent, Method: method, Message: message}
}

func InvalidCall(contractID, method, message string) *ContractError {
	return &ContractError{Kind: KindInvalidCall, ContractID: contractID, Method: method, Message: message}
}

func MethodNotFound(contractID, method string) *ContractError {
	return &ContractError{Kind: KindMethodNotFound, ContractID: contractID, Method: method}
}

// As extracts the first ContractError in err's chain.
func As(err error) (*ContractError, bool) {
	var ce *ContractError
	if stderrors.As(err, &ce) {
		return ce, true
	}
	return nil, false
}

// Wrap converts err into a ContractError attributed to method. Errors that
// already carry a kind keep it; anything else becomes FunctionReturnedWithError.
func Wrap(method string, err error) *ContractError {
	if err == nil {
		return nil
	}
	if ce, ok := As(err); ok {
		if ce.Method == "" {
			cp := *ce
			cp.Method = method
			return &cp
		}
		return ce
	}
	return FunctionReturned(method, err)
}
