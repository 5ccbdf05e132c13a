// Copyright 2023 - 2025, VnPower and the PixivFE contributors
// SPDX-License-Identifier: AGPL-3.0-only

package main

import (
	"go/ast"
	"go/constant"
	"go/token"
	"go/types"
	"path/filepath"

	"codeberg.org/tscat/tscat/linguist"
)

// call describes where the message fields sit in the arguments of one of the
// i18n translation functions. A negative index means the field is absent.
type call struct {
	context int
	source  int
	comment int
	numerus bool
}

var calls = map[string]call{
	"Tr":   {context: 1, source: 2, comment: -1},
	"TrC":  {context: 1, source: 2, comment: 3},
	"TrN":  {context: 1, source: 2, comment: -1, numerus: true},
	"TrNC": {context: 1, source: 2, comment: 3, numerus: true},
}

// extractor holds the shared state for AST analysis within a package.
type extractor struct {
	baseDir  string
	fset     *token.FileSet
	info     *types.Info
	i18nPkgs map[string]struct{}
	found    []linguist.Extracted
}

// isI18nPackage reports whether pkg is our i18n package: it is named i18n and
// defines both the Tr function and the Message struct.
func isI18nPackage(pkg *types.Package) bool {
	if pkg == nil || pkg.Name() != "i18n" {
		return false
	}

	if _, ok := pkg.Scope().Lookup("Tr").(*types.Func); !ok {
		return false
	}

	tn, ok := pkg.Scope().Lookup("Message").(*types.TypeName)
	if !ok {
		return false
	}

	_, ok = tn.Type().Underlying().(*types.Struct)

	return ok
}

// inspect walks every file in files and records the messages it finds.
func (e *extractor) inspect(files []*ast.File) {
	for _, f := range files {
		ast.Inspect(f, func(n ast.Node) bool {
			switch x := n.(type) {
			case *ast.CallExpr:
				e.handleCallExpr(x)
			case *ast.CompositeLit:
				e.handleCompositeLit(x)
			}

			return true
		})
	}
}

// constString evaluates expr to a constant string if possible.
// Handles string literals, const identifiers, and constant expressions like "a" + "b".
func constString(info *types.Info, expr ast.Expr) (string, bool) {
	tv, ok := info.Types[expr]
	if !ok || tv.Value == nil || tv.Value.Kind() != constant.String {
		return "", false
	}

	return constant.StringVal(tv.Value), true
}

func (e *extractor) fromI18n(obj types.Object) bool {
	if obj == nil || obj.Pkg() == nil {
		return false
	}

	_, ok := e.i18nPkgs[obj.Pkg().Path()]

	return ok
}

// handleCallExpr records calls to Tr, TrC, TrN and TrNC whose message fields
// are constant. Calls with computed strings are skipped.
func (e *extractor) handleCallExpr(x *ast.CallExpr) {
	var ident *ast.Ident

	switch fun := x.Fun.(type) {
	case *ast.SelectorExpr:
		ident = fun.Sel
	case *ast.Ident:
		ident = fun
	default:
		return
	}

	fn, ok := e.info.Uses[ident].(*types.Func)
	if !ok || !e.fromI18n(fn) {
		return
	}

	// Methods such as Message.Tr share a name with the functions.
	if sig, ok := fn.Type().(*types.Signature); !ok || sig.Recv() != nil {
		return
	}

	c, ok := calls[fn.Name()]
	if !ok || len(x.Args) <= max(c.source, c.comment) {
		return
	}

	ctx, ok1 := constString(e.info, x.Args[c.context])
	src, ok2 := constString(e.info, x.Args[c.source])

	if !ok1 || !ok2 {
		e.skip(x.Pos(), fn.Name())

		return
	}

	var comment string

	if c.comment >= 0 {
		var ok bool
		if comment, ok = constString(e.info, x.Args[c.comment]); !ok {
			e.skip(x.Pos(), fn.Name())

			return
		}
	}

	e.add(x.Args[c.source].Pos(), linguist.Extracted{
		Context: ctx,
		Source:  src,
		Comment: comment,
		Numerus: c.numerus,
	})
}

// handleCompositeLit records i18n.Message literals, keyed or positional.
func (e *extractor) handleCompositeLit(x *ast.CompositeLit) {
	tv, ok := e.info.Types[x]
	if !ok || tv.Type == nil {
		return
	}

	// Unwrap one level of pointer so &T{...} is treated as T{...}.
	t := tv.Type
	if p, ok := t.(*types.Pointer); ok {
		t = p.Elem()
	}

	named, ok := t.(*types.Named)
	if !ok || named.Obj().Name() != "Message" || !e.fromI18n(named.Obj()) {
		return
	}

	st, ok := named.Underlying().(*types.Struct)
	if !ok {
		return
	}

	fields := make(map[string]string, len(x.Elts))

	for i, elt := range x.Elts {
		name, value := "", elt

		if kv, ok := elt.(*ast.KeyValueExpr); ok {
			id, ok := kv.Key.(*ast.Ident)
			if !ok {
				continue
			}

			name, value = id.Name, kv.Value
		} else if i < st.NumFields() {
			name = st.Field(i).Name()
		}

		s, ok := constString(e.info, value)
		if !ok {
			e.skip(x.Pos(), "Message")

			return
		}

		fields[name] = s
	}

	if fields["Source"] == "" {
		return
	}

	e.add(x.Pos(), linguist.Extracted{
		Context: fields["Context"],
		Source:  fields["Source"],
		Comment: fields["Comment"],
	})
}

func (e *extractor) add(pos token.Pos, x linguist.Extracted) {
	p := e.fset.Position(pos)

	x.Locations = []linguist.Location{{File: e.relative(p.Filename), Line: p.Line}}

	e.found = append(e.found, x)
}

func (e *extractor) skip(pos token.Pos, name string) {
	p := e.fset.Position(pos)

	logger().Warn().
		Str("file", e.relative(p.Filename)).
		Int("line", p.Line).
		Str("call", name).
		Msg("Skipping message with non-constant text")
}

// relative returns file relative to the directory of the catalog, the way Qt
// tools write locations.
func (e *extractor) relative(file string) string {
	if rel, err := filepath.Rel(e.baseDir, file); err == nil {
		file = rel
	}

	return filepath.ToSlash(file)
}
