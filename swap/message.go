// Package swap moves model instances between the audio goroutine and a
// loading worker.
//
// The audio side only ever performs non-blocking sends and receives on a
// [Channel]. It asks for a model with a Load message, installs the instance
// carried by the Apply reply, and hands the instance it replaced back in a
// Free message. The [Worker] builds and destroys instances; it is the only
// place that allocates or releases them.
//
// A Message owns the instance it carries. Whoever receives it is
// responsible for installing, forwarding or closing that instance.
package swap

import (
	"fmt"

	"github.com/cwbudde/algo-rtneural/model"
)

// Kind tags a Message.
type Kind uint8

const (
	// KindLoad asks the worker to build the requested model.
	KindLoad Kind = iota + 1
	// KindApply hands a built instance to the audio side.
	KindApply
	// KindFree hands a retired instance back to the worker.
	KindFree
	// KindFailed tells the audio side a load produced no instance.
	KindFailed
)

// String returns the lower-case kind name.
func (k Kind) String() string {
	switch k {
	case KindLoad:
		return "load"
	case KindApply:
		return "apply"
	case KindFree:
		return "free"
	case KindFailed:
		return "failed"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// MaxPathLen is the longest model path a Load request may carry.
const MaxPathLen = 1023

// Request names a model by file path or by bank index. Path takes
// precedence when set.
type Request struct {
	Path  string
	Index int
}

// PathRequest requests the model at path.
func PathRequest(path string) Request { return Request{Path: path, Index: -1} }

// IndexRequest requests the bank entry at index.
func IndexRequest(index int) Request { return Request{Index: index} }

// Validate checks the path length limit.
func (r Request) Validate() error {
	if len(r.Path) > MaxPathLen {
		return fmt.Errorf("model path is %d bytes, limit %d", len(r.Path), MaxPathLen)
	}
	if r.Path == "" && r.Index < 0 {
		return fmt.Errorf("request names neither a path nor an index")
	}
	return nil
}

// String renders the request for logs.
func (r Request) String() string {
	if r.Path != "" {
		return r.Path
	}
	return fmt.Sprintf("#%d", r.Index)
}

// Message is the unit exchanged over a Channel.
type Message struct {
	Kind    Kind
	Request Request
	Seq     uint64
	Model   *model.Instance
}
