// SPDX-License-Identifier: EPL-2.0

package effect

import "fmt"

// Kind tags the value held by a Param.
type Kind uint8

const (
	KindInt Kind = iota
	KindUint64
	KindFloat
	KindString
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindUint64:
		return "uint64"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Param is a parameter value sent to an effect. Only the field matching
// its kind is meaningful.
type Param struct {
	kind Kind
	i    int64
	u    uint64
	f    float32
	s    string
}

func Int(v int64) Param     { return Param{kind: KindInt, i: v} }
func Uint64(v uint64) Param { return Param{kind: KindUint64, u: v} }
func Float(v float32) Param { return Param{kind: KindFloat, f: v} }
func String(v string) Param { return Param{kind: KindString, s: v} }

func (p Param) Kind() Kind { return p.kind }

func (p Param) AsInt() (int64, bool)     { return p.i, p.kind == KindInt }
func (p Param) AsUint64() (uint64, bool) { return p.u, p.kind == KindUint64 }
func (p Param) AsFloat() (float32, bool) { return p.f, p.kind == KindFloat }
func (p Param) AsString() (string, bool) { return p.s, p.kind == KindString }

func (p Param) String() string {
	switch p.kind {
	case KindInt:
		return fmt.Sprintf("int(%d)", p.i)
	case KindUint64:
		return fmt.Sprintf("uint64(%d)", p.u)
	case KindFloat:
		return fmt.Sprintf("float(%g)", p.f)
	case KindString:
		return fmt.Sprintf("string(%q)", p.s)
	}
	return "invalid"
}
