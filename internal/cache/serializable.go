// Copyright 2026 The LuaNext Authors
// SPDX-License-Identifier: MIT

package cache

import (
	"luanext.dev/compiler/internal/intern"
	"luanext.dev/compiler/internal/typesys"
)

// SerializableType is the owned, JSON-friendly mirror of [typesys.Type]
// described in spec.md §4.8: same shape as the in-memory type tree, but
// every *Type edge is an owned value (never an arena-borrowed pointer) and
// names stay as [intern.StringId] rather than resolved strings, so they
// resolve only against an interner holding the same ids (see
// [intern.Interner.Export] and [intern.Interner.Import]).
type SerializableType struct {
	Kind typesys.Kind `json:"kind"`

	Base    typesys.Kind `json:"base,omitzero"`
	Str     string       `json:"str,omitzero"`
	Num     string       `json:"num,omitzero"`
	Boolean bool         `json:"boolean,omitzero"`

	Members []*SerializableType `json:"members,omitempty"`

	Elem *SerializableType `json:"elem,omitempty"`

	Elements []*SerializableType `json:"elements,omitempty"`

	Props []SerializableProperty `json:"props,omitempty"`

	TypeParams []SerializableTypeParam `json:"typeParams,omitempty"`
	Params     []SerializableParam     `json:"params,omitempty"`
	Return     *SerializableType       `json:"return,omitempty"`
	Throws     *SerializableType       `json:"throws,omitempty"`

	Name intern.StringId     `json:"name,omitzero"`
	Args []*SerializableType `json:"args,omitempty"`

	Object *SerializableType `json:"object,omitempty"`
	Index  *SerializableType `json:"index,omitempty"`

	Check   *SerializableType `json:"check,omitempty"`
	Extends *SerializableType `json:"extends,omitempty"`
	True    *SerializableType `json:"true,omitempty"`
	False   *SerializableType `json:"false,omitempty"`

	KeyName          intern.StringId   `json:"keyName,omitzero"`
	Constraint       *SerializableType `json:"constraint,omitempty"`
	Value            *SerializableType `json:"value,omitempty"`
	ReadonlyModifier int               `json:"readonlyModifier,omitzero"`
	OptionalModifier int               `json:"optionalModifier,omitzero"`

	Quasis []string            `json:"quasis,omitempty"`
	Types  []*SerializableType `json:"types,omitempty"`

	ParamName intern.StringId   `json:"paramName,omitzero"`
	Asserted  *SerializableType `json:"asserted,omitempty"`

	InferName intern.StringId `json:"inferName,omitzero"`
}

// SerializableProperty mirrors [typesys.Property].
type SerializableProperty struct {
	Name        intern.StringId   `json:"name,omitzero"`
	Type        *SerializableType `json:"type,omitempty"`
	Optional    bool              `json:"optional,omitzero"`
	Readonly    bool              `json:"readonly,omitzero"`
	IsMethod    bool              `json:"isMethod,omitzero"`
	IsIndex     bool              `json:"isIndex,omitzero"`
	IndexKey    intern.StringId   `json:"indexKey,omitzero"`
	IndexKeyTyp *SerializableType `json:"indexKeyTyp,omitempty"`
}

// SerializableParam mirrors [typesys.Param].
type SerializableParam struct {
	Name     intern.StringId   `json:"name,omitzero"`
	Type     *SerializableType `json:"type,omitempty"`
	Optional bool              `json:"optional,omitzero"`
	Rest     bool              `json:"rest,omitzero"`
	Default  bool              `json:"default,omitzero"`
}

// SerializableTypeParam mirrors [typesys.TypeParam].
type SerializableTypeParam struct {
	Name       intern.StringId   `json:"name,omitzero"`
	Constraint *SerializableType `json:"constraint,omitempty"`
	Default    *SerializableType `json:"default,omitempty"`
}

// ToSerializable converts an arena-independent [typesys.Type] tree into its
// owned mirror. typesys.Type already carries no arena reference (see
// [luanext.dev/compiler/internal/registry]'s note on that), so this is a
// plain structural copy, not an unborrowing operation; its purpose is
// giving the cache a type it can safely run through encoding/json-style
// marshaling without depending on typesys's constructors.
func ToSerializable(t *typesys.Type) *SerializableType {
	if t == nil {
		return nil
	}
	out := &SerializableType{
		Kind:             t.Kind,
		Base:             t.Base,
		Str:              t.Str,
		Num:              t.Num,
		Boolean:          t.Boolean,
		Elem:             ToSerializable(t.Elem),
		Return:           ToSerializable(t.Return),
		Throws:           ToSerializable(t.Throws),
		Name:             t.Name,
		Object:           ToSerializable(t.Object),
		Index:            ToSerializable(t.Index),
		Check:            ToSerializable(t.Check),
		Extends:          ToSerializable(t.Extends),
		True:             ToSerializable(t.True),
		False:            ToSerializable(t.False),
		KeyName:          t.KeyName,
		Constraint:       ToSerializable(t.Constraint),
		Value:            ToSerializable(t.Value),
		ReadonlyModifier: t.ReadonlyModifier,
		OptionalModifier: t.OptionalModifier,
		Quasis:           append([]string(nil), t.Quasis...),
		ParamName:        t.ParamName,
		Asserted:         ToSerializable(t.Asserted),
		InferName:        t.InferName,
	}
	for _, m := range t.Members {
		out.Members = append(out.Members, ToSerializable(m))
	}
	for _, e := range t.Elements {
		out.Elements = append(out.Elements, ToSerializable(e))
	}
	for _, p := range t.Props {
		out.Props = append(out.Props, SerializableProperty{
			Name: p.Name, Type: ToSerializable(p.Type), Optional: p.Optional,
			Readonly: p.Readonly, IsMethod: p.IsMethod, IsIndex: p.IsIndex,
			IndexKey: p.IndexKey, IndexKeyTyp: ToSerializable(p.IndexKeyTyp),
		})
	}
	for _, tp := range t.TypeParams {
		out.TypeParams = append(out.TypeParams, SerializableTypeParam{
			Name: tp.Name, Constraint: ToSerializable(tp.Constraint), Default: ToSerializable(tp.Default),
		})
	}
	for _, p := range t.Params {
		out.Params = append(out.Params, SerializableParam{
			Name: p.Name, Type: ToSerializable(p.Type), Optional: p.Optional, Rest: p.Rest, Default: p.Default,
		})
	}
	for _, a := range t.Args {
		out.Args = append(out.Args, ToSerializable(a))
	}
	for _, ty := range t.Types {
		out.Types = append(out.Types, ToSerializable(ty))
	}
	return out
}

// FromSerializable reconstructs a [typesys.Type] tree from its owned
// mirror, the inverse of [ToSerializable].
func FromSerializable(s *SerializableType) *typesys.Type {
	if s == nil {
		return nil
	}
	out := &typesys.Type{
		Kind:             s.Kind,
		Base:             s.Base,
		Str:              s.Str,
		Num:              s.Num,
		Boolean:          s.Boolean,
		Elem:             FromSerializable(s.Elem),
		Return:           FromSerializable(s.Return),
		Throws:           FromSerializable(s.Throws),
		Name:             s.Name,
		Object:           FromSerializable(s.Object),
		Index:            FromSerializable(s.Index),
		Check:            FromSerializable(s.Check),
		Extends:          FromSerializable(s.Extends),
		True:             FromSerializable(s.True),
		False:            FromSerializable(s.False),
		KeyName:          s.KeyName,
		Constraint:       FromSerializable(s.Constraint),
		Value:            FromSerializable(s.Value),
		ReadonlyModifier: s.ReadonlyModifier,
		OptionalModifier: s.OptionalModifier,
		Quasis:           append([]string(nil), s.Quasis...),
		ParamName:        s.ParamName,
		Asserted:         FromSerializable(s.Asserted),
		InferName:        s.InferName,
	}
	for _, m := range s.Members {
		out.Members = append(out.Members, FromSerializable(m))
	}
	for _, e := range s.Elements {
		out.Elements = append(out.Elements, FromSerializable(e))
	}
	for _, p := range s.Props {
		out.Props = append(out.Props, typesys.Property{
			Name: p.Name, Type: FromSerializable(p.Type), Optional: p.Optional,
			Readonly: p.Readonly, IsMethod: p.IsMethod, IsIndex: p.IsIndex,
			IndexKey: p.IndexKey, IndexKeyTyp: FromSerializable(p.IndexKeyTyp),
		})
	}
	for _, tp := range s.TypeParams {
		out.TypeParams = append(out.TypeParams, typesys.TypeParam{
			Name: tp.Name, Constraint: FromSerializable(tp.Constraint), Default: FromSerializable(tp.Default),
		})
	}
	for _, p := range s.Params {
		out.Params = append(out.Params, typesys.Param{
			Name: p.Name, Type: FromSerializable(p.Type), Optional: p.Optional, Rest: p.Rest, Default: p.Default,
		})
	}
	for _, a := range s.Args {
		out.Args = append(out.Args, FromSerializable(a))
	}
	for _, ty := range s.Types {
		out.Types = append(out.Types, FromSerializable(ty))
	}
	return out
}
