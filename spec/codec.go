package spec

import (
	"bytes"
	"encoding/json"

	"github.com/pkg/errors"

	"github.com/katalvlaran/combspec/core"
)

// Codec converts caller classes to and from JSON values.
type Codec interface {
	Encode(c core.Class) ([]byte, error)
	Decode(data []byte) (core.Class, error)
}

// NamedCodec encodes core.Named classes as JSON strings.
type NamedCodec struct{}

// Encode implements Codec.
func (NamedCodec) Encode(c core.Class) ([]byte, error) {
	key, err := core.KeyOf(c)
	if err != nil {
		return nil, err
	}

	return json.Marshal(key)
}

// Decode implements Codec.
func (NamedCodec) Decode(data []byte) (core.Class, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, errors.Wrap(core.ErrType, err.Error())
	}

	return core.Named(s), nil
}

// record is the wire form of a Node.
type record struct {
	FormalStep   string          `json:"formal_step"`
	InClass      json.RawMessage `json:"in_class"`
	OutClass     json.RawMessage `json:"out_class"`
	Explanations []string        `json:"explanations,omitempty"`
	Constructor  string          `json:"constructor,omitempty"`
	Verified     bool            `json:"verified,omitempty"`
	Recurse      bool            `json:"recurse,omitempty"`
	Ancestor     *int            `json:"ancestor,omitempty"`
	Children     []*record       `json:"children,omitempty"`
}

// Marshal serializes s using codec for classes.
func Marshal(s *Specification, codec Codec) ([]byte, error) {
	if s == nil || s.Root == nil {
		return nil, errors.Wrap(core.ErrType, "empty specification")
	}
	rec, err := toRecord(s.Root, codec)
	if err != nil {
		return nil, err
	}

	return json.Marshal(rec)
}

func toRecord(n *Node, codec Codec) (*record, error) {
	if n == nil {
		return nil, errors.Wrap(core.ErrType, "nil node")
	}
	in, err := codec.Encode(n.InClass)
	if err != nil {
		return nil, errors.Wrapf(err, "encode in-class of %q", n.FormalStep)
	}
	out, err := codec.Encode(n.OutClass)
	if err != nil {
		return nil, errors.Wrapf(err, "encode out-class of %q", n.FormalStep)
	}
	rec := &record{
		FormalStep:   n.FormalStep,
		InClass:      in,
		OutClass:     out,
		Explanations: n.Explanations,
		Verified:     n.Verified,
		Recurse:      n.Recursive,
	}
	if n.Recursive {
		d := n.AncestorDepth
		rec.Ancestor = &d
	}
	if len(n.Children) > 0 {
		rec.Constructor = n.Constructor.String()
		rec.Children = make([]*record, len(n.Children))
		for i, c := range n.Children {
			if rec.Children[i], err = toRecord(c, codec); err != nil {
				return nil, err
			}
		}
	}

	return rec, nil
}

// Unmarshal decodes data produced by Marshal. Labels of the result are
// core.NoLabel; recursive leaves are re-linked to their ancestors.
func Unmarshal(data []byte, codec Codec) (*Specification, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var rec record
	if err := dec.Decode(&rec); err != nil {
		return nil, errors.Wrap(core.ErrType, err.Error())
	}
	var path []*Node
	root, err := fromRecord(&rec, codec, &path)
	if err != nil {
		return nil, err
	}

	return &Specification{Root: root}, nil
}

func fromRecord(rec *record, codec Codec, path *[]*Node) (*Node, error) {
	in, err := codec.Decode(rec.InClass)
	if err != nil {
		return nil, err
	}
	out, err := codec.Decode(rec.OutClass)
	if err != nil {
		return nil, err
	}
	n := &Node{
		InClass:      in,
		OutClass:     out,
		InLabel:      core.NoLabel,
		OutLabel:     core.NoLabel,
		Explanations: rec.Explanations,
		FormalStep:   rec.FormalStep,
		Verified:     rec.Verified,
		Recursive:    rec.Recurse,
	}
	if rec.Recurse {
		if rec.Ancestor == nil || *rec.Ancestor < 0 || *rec.Ancestor >= len(*path) {
			return nil, errors.Wrapf(core.ErrType, "recursive record %q has no valid ancestor", rec.FormalStep)
		}
		n.AncestorDepth = *rec.Ancestor
		n.Ancestor = (*path)[n.AncestorDepth]
	}
	if len(rec.Children) == 0 {
		return n, nil
	}

	if n.Constructor, err = core.ParseConstructor(rec.Constructor); err != nil {
		return nil, err
	}
	*path = append(*path, n)
	n.Children = make([]*Node, len(rec.Children))
	for i, c := range rec.Children {
		if n.Children[i], err = fromRecord(c, codec, path); err != nil {
			return nil, err
		}
	}
	*path = (*path)[:len(*path)-1]

	return n, nil
}
