package patch

import (
	"context"
)

const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
)

// Operation is one RFC6902 JSON Patch operation.
type Operation struct {
	Op    string `json:"op" jsonschema:"required,enum=add,enum=remove,enum=replace,description=RFC6902 operation"`
	Path  string `json:"path" jsonschema:"required,description=JSON Pointer of the target location"`
	Value any    `json:"value,omitempty" jsonschema:"description=New value for add and replace"`
}

type UpdateArgs struct {
	Ops []Operation `json:"ops" jsonschema:"required,description=Operations to apply in order"`
}

// Request asks a Generator for the operations that carry out Instruction
// against CurrentState.
type Request[T any] struct {
	CurrentState T
	Instruction  string
	Context      string
	AllowedPaths []string
}

type Generator[T any] interface {
	GeneratePatch(ctx context.Context, req *Request[T]) (*UpdateArgs, error)
}
