// Copyright (C) 2017 Google Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"github.com/rjw57/firtree/internal/ast"
	"github.com/rjw57/firtree/internal/ftlog"
)

// Parse lexes and parses one concatenated source file. Concatenating
// multiple fragments, with newlines between them, is the caller's
// concern; it supplies a single filename for diagnostics. On success
// Parse returns a non-nil *ast.File and a nil-errors DiagList. On a
// syntax error, parsing continues best-effort and the returned File may
// be structurally incomplete; callers must check diags.HasErrors().
func Parse(filename, src string) (file *ast.File, diags ftlog.DiagList) {
	p := &parser{filename: filename, toks: lex(src)}
	file = &ast.File{}
	defer func() { diags = p.diags }()
	defer ftlog.Recover()
	for p.tok().kind != tokEOF {
		before := p.i
		decl := p.parseDecl()
		if decl != nil {
			file.Decls = append(file.Decls, decl)
		}
		if p.i == before {
			// Guarantee forward progress on unrecoverable tokens.
			p.errf("SyntaxError", "unexpected token %q", p.tok().text)
			p.i++
		}
	}
	return file, p.diags
}

type parser struct {
	filename string
	toks     []token
	i        int
	diags    ftlog.DiagList
}

func (p *parser) tok() token { return p.toks[p.i] }

func (p *parser) pos() ast.Pos {
	t := p.tok()
	return ast.Pos{Line: t.line, Column: t.column}
}

func (p *parser) errf(kind, format string, args ...interface{}) {
	t := p.tok()
	p.diags.Addf(p.filename, t.line, t.column, ftlog.Error, kind, format, args...)
}

func (p *parser) at(text string) bool {
	t := p.tok()
	return (t.kind == tokPunct || t.kind == tokKeyword) && t.text == text
}

func (p *parser) accept(text string) bool {
	if p.at(text) {
		p.i++
		return true
	}
	return false
}

func (p *parser) expect(text string) bool {
	if p.accept(text) {
		return true
	}
	p.errf("SyntaxError", "expected %q, got %q", text, p.tok().text)
	return false
}

func (p *parser) expectIdent() (string, ast.Pos) {
	t := p.tok()
	pos := p.pos()
	if t.kind != tokIdent {
		p.errf("SyntaxError", "expected identifier, got %q", t.text)
		return "", pos
	}
	p.i++
	return t.text, pos
}

var typeNames = map[string]bool{
	"void": true, "bool": true, "int": true, "float": true,
	"vec2": true, "vec3": true, "vec4": true,
	"mat2": true, "mat3": true, "mat4": true, "sampler": true,
}

func (p *parser) atTypeName() bool {
	t := p.tok()
	return t.kind == tokIdent && typeNames[t.text]
}

// parseDecl parses one top-level kernel or function declaration.
func (p *parser) parseDecl() ast.Node {
	pos := p.pos()
	reduce := p.accept("reduce")
	if p.accept("kernel") {
		return p.parseKernel(pos, reduce)
	}
	if reduce {
		p.errf("SyntaxError", "'reduce' must precede a kernel declaration")
	}
	if p.atTypeName() || p.tok().kind == tokIdent {
		return p.parseFunction(pos)
	}
	return nil
}

func (p *parser) parseTypeRef() *ast.TypeRef {
	pos := p.pos()
	isConst := p.accept("const")
	name, _ := p.expectIdent()
	return &ast.TypeRef{Meta: ast.At(pos), Name: name, Const: isConst}
}

func (p *parser) parseParams() []*ast.Param {
	p.expect("(")
	var params []*ast.Param
	for !p.at(")") && p.tok().kind != tokEOF {
		if len(params) > 0 {
			p.expect(",")
		}
		pos := p.pos()
		isStatic := p.accept("static")
		dir := "in"
		if p.accept("in") {
			dir = "in"
		} else if p.accept("out") {
			dir = "out"
		} else if p.accept("inout") {
			dir = "inout"
		}
		typ := p.parseTypeRef()
		name, _ := p.expectIdent()
		params = append(params, &ast.Param{
			Meta: ast.At(pos), Name: name, Type: typ, Static: isStatic, Dir: dir,
		})
	}
	p.expect(")")
	return params
}

func (p *parser) parseKernel(pos ast.Pos, reduce bool) *ast.Kernel {
	ret := p.parseTypeRef()
	name, _ := p.expectIdent()
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.Kernel{
		Meta: ast.At(pos), Name: name, Reduce: reduce, ReturnType: ret, Params: params, Body: body,
	}
}

func (p *parser) parseFunction(pos ast.Pos) *ast.Function {
	ret := p.parseTypeRef()
	name, _ := p.expectIdent()
	params := p.parseParams()
	body := p.parseBlock()
	return &ast.Function{Meta: ast.At(pos), Name: name, ReturnType: ret, Params: params, Body: body}
}

func (p *parser) parseBlock() *ast.Block {
	pos := p.pos()
	p.expect("{")
	b := &ast.Block{Meta: ast.At(pos)}
	for !p.at("}") && p.tok().kind != tokEOF {
		before := p.i
		s := p.parseStatement()
		if s != nil {
			b.Stmts = append(b.Stmts, s)
		}
		if p.i == before {
			p.i++
		}
	}
	p.expect("}")
	return b
}

func (p *parser) parseStatement() ast.Node {
	pos := p.pos()
	switch {
	case p.at("{"):
		return p.parseBlock()
	case p.accept("if"):
		p.expect("(")
		cond := p.parseExpr()
		p.expect(")")
		then := p.parseBlock()
		var els *ast.Block
		if p.accept("else") {
			if p.at("if") {
				ipos := p.pos()
				p.i++
				inner := p.parseIfAsStatement(ipos)
				els = &ast.Block{Meta: ast.At(ipos), Stmts: []ast.Node{inner}}
			} else {
				els = p.parseBlock()
			}
		}
		return &ast.If{Meta: ast.At(pos), Cond: cond, Then: then, Else: els}
	case p.accept("for"):
		p.expect("(")
		var init ast.Node
		if !p.at(";") {
			init = p.parseSimpleStatement()
		}
		p.expect(";")
		var cond ast.Node
		if !p.at(";") {
			cond = p.parseExpr()
		}
		p.expect(";")
		var post ast.Node
		if !p.at(")") {
			post = p.parseSimpleStatement()
		}
		p.expect(")")
		body := p.parseBlock()
		return &ast.For{Meta: ast.At(pos), Init: init, Cond: cond, Post: post, Body: body}
	case p.accept("while"):
		p.expect("(")
		cond := p.parseExpr()
		p.expect(")")
		body := p.parseBlock()
		return &ast.While{Meta: ast.At(pos), Cond: cond, Body: body}
	case p.accept("do"):
		body := p.parseBlock()
		p.expect("while")
		p.expect("(")
		cond := p.parseExpr()
		p.expect(")")
		p.expect(";")
		return &ast.DoWhile{Meta: ast.At(pos), Body: body, Cond: cond}
	case p.accept("return"):
		var v ast.Node
		if !p.at(";") {
			v = p.parseExpr()
		}
		p.expect(";")
		return &ast.Return{Meta: ast.At(pos), Value: v}
	case p.accept("break"):
		p.expect(";")
		return &ast.Break{Meta: ast.At(pos)}
	case p.accept("continue"):
		p.expect(";")
		return &ast.Continue{Meta: ast.At(pos)}
	default:
		s := p.parseSimpleStatement()
		p.expect(";")
		return s
	}
}

// parseIfAsStatement parses the body of an "else if" without consuming a
// leading "if" keyword (already consumed by the caller).
func (p *parser) parseIfAsStatement(pos ast.Pos) ast.Node {
	p.expect("(")
	cond := p.parseExpr()
	p.expect(")")
	then := p.parseBlock()
	var els *ast.Block
	if p.accept("else") {
		if p.at("if") {
			ipos := p.pos()
			p.i++
			inner := p.parseIfAsStatement(ipos)
			els = &ast.Block{Meta: ast.At(ipos), Stmts: []ast.Node{inner}}
		} else {
			els = p.parseBlock()
		}
	}
	return &ast.If{Meta: ast.At(pos), Cond: cond, Then: then, Else: els}
}

// parseSimpleStatement parses a var-decl, assignment or bare expression
// statement: the forms legal in a for-loop's init/post clauses too.
func (p *parser) parseSimpleStatement() ast.Node {
	pos := p.pos()
	if p.atTypeName() {
		typ := p.parseTypeRef()
		name, _ := p.expectIdent()
		var init ast.Node
		if p.accept("=") {
			init = p.parseExpr()
		}
		return &ast.VarDecl{Meta: ast.At(pos), Name: name, Type: typ, Init: init}
	}
	lhs := p.parseExpr()
	for _, op := range []string{"=", "+=", "-=", "*=", "/="} {
		if p.accept(op) {
			rhs := p.parseExpr()
			return &ast.Assign{Meta: ast.At(pos), Op: op, Target: lhs, Value: rhs}
		}
	}
	return &ast.ExprStmt{Meta: ast.At(pos), Expr: lhs}
}

// Expression grammar, precedence climbing low to high:
//   || && equality relational additive multiplicative unary postfix primary

func (p *parser) parseExpr() ast.Node { return p.parseOr() }

func (p *parser) parseOr() ast.Node {
	pos := p.pos()
	lhs := p.parseAnd()
	for p.accept("||") {
		rhs := p.parseAnd()
		lhs = &ast.Binary{Meta: ast.At(pos), Op: "||", LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseAnd() ast.Node {
	pos := p.pos()
	lhs := p.parseEquality()
	for p.accept("&&") {
		rhs := p.parseEquality()
		lhs = &ast.Binary{Meta: ast.At(pos), Op: "&&", LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseEquality() ast.Node {
	pos := p.pos()
	lhs := p.parseRelational()
	for p.at("==") || p.at("!=") {
		op := p.tok().text
		p.i++
		rhs := p.parseRelational()
		lhs = &ast.Binary{Meta: ast.At(pos), Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseRelational() ast.Node {
	pos := p.pos()
	lhs := p.parseAdditive()
	for p.at("<") || p.at(">") || p.at("<=") || p.at(">=") {
		op := p.tok().text
		p.i++
		rhs := p.parseAdditive()
		lhs = &ast.Binary{Meta: ast.At(pos), Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseAdditive() ast.Node {
	pos := p.pos()
	lhs := p.parseMultiplicative()
	for p.at("+") || p.at("-") {
		op := p.tok().text
		p.i++
		rhs := p.parseMultiplicative()
		lhs = &ast.Binary{Meta: ast.At(pos), Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseMultiplicative() ast.Node {
	pos := p.pos()
	lhs := p.parseUnary()
	for p.at("*") || p.at("/") {
		op := p.tok().text
		p.i++
		rhs := p.parseUnary()
		lhs = &ast.Binary{Meta: ast.At(pos), Op: op, LHS: lhs, RHS: rhs}
	}
	return lhs
}

func (p *parser) parseUnary() ast.Node {
	pos := p.pos()
	if p.at("-") || p.at("!") {
		op := p.tok().text
		p.i++
		e := p.parseUnary()
		return &ast.Unary{Meta: ast.At(pos), Op: op, Expr: e}
	}
	return p.parsePostfix()
}

func (p *parser) parsePostfix() ast.Node {
	pos := p.pos()
	e := p.parsePrimary()
	for {
		switch {
		case p.accept("."):
			fields, _ := p.expectIdent()
			e = &ast.Swizzle{Meta: ast.At(pos), Base: e, Fields: fields}
		case p.accept("["):
			idx := p.parseExpr()
			p.expect("]")
			e = &ast.Index{Meta: ast.At(pos), Base: e, Index: idx}
		default:
			return e
		}
	}
}

func (p *parser) parsePrimary() ast.Node {
	pos := p.pos()
	t := p.tok()
	switch {
	case p.accept("("):
		e := p.parseExpr()
		p.expect(")")
		return e
	case t.kind == tokFloat:
		p.i++
		return &ast.Literal{Meta: ast.At(pos), Kind: "float", Float: floatLiteral(t.text)}
	case t.kind == tokInt:
		p.i++
		return &ast.Literal{Meta: ast.At(pos), Kind: "int", Int: intLiteral(t.text)}
	case p.accept("true"):
		return &ast.Literal{Meta: ast.At(pos), Kind: "bool", Bool: true}
	case p.accept("false"):
		return &ast.Literal{Meta: ast.At(pos), Kind: "bool", Bool: false}
	case p.atTypeName():
		typ := p.parseTypeRef()
		p.expect("(")
		var args []ast.Node
		for !p.at(")") && p.tok().kind != tokEOF {
			if len(args) > 0 {
				p.expect(",")
			}
			args = append(args, p.parseExpr())
		}
		p.expect(")")
		return &ast.Construct{Meta: ast.At(pos), Type: typ, Args: args}
	case t.kind == tokIdent:
		name, _ := p.expectIdent()
		if p.accept("(") {
			var args []ast.Node
			for !p.at(")") && p.tok().kind != tokEOF {
				if len(args) > 0 {
					p.expect(",")
				}
				args = append(args, p.parseExpr())
			}
			p.expect(")")
			return &ast.Call{Meta: ast.At(pos), Callee: name, Args: args}
		}
		return &ast.Ident{Meta: ast.At(pos), Name: name}
	default:
		p.errf("SyntaxError", "unexpected token %q in expression", t.text)
		if t.kind != tokEOF {
			p.i++
		}
		return &ast.Literal{Meta: ast.At(pos), Kind: "int", Int: 0}
	}
}
