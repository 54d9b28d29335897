// Copyright 2026 The xkbcommon-go Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package parser

import (
	"fmt"

	"github.com/gdamore/xkbcommon/lexer"
)

// ParseError is a single recoverable parse error.
type ParseError struct {
	Pos     lexer.Position
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at %s: %s", e.Pos, e.Message)
}

// Parser is a small recursive-descent parser with one token of
// lookahead. Each file is "keywords* block { decls }".
type Parser struct {
	lex    *lexer.Lexer
	cur    lexer.Token
	errors []error
}

// Parse tokenizes and parses a whole component file.
func Parse(src []byte) (*File, []error) {
	p := &Parser{lex: lexer.New(src)}
	p.advance()
	f := p.parseFile()
	p.errors = append(p.errors, p.lex.Errors()...)
	return f, p.errors
}

func (p *Parser) advance() lexer.Token {
	prev := p.cur
	p.cur = p.lex.Next()
	return prev
}

func (p *Parser) errf(format string, args ...any) {
	p.errors = append(p.errors, &ParseError{Pos: p.cur.Pos, Message: fmt.Sprintf(format, args...)})
}

func (p *Parser) expect(k lexer.Kind, what string) lexer.Token {
	if p.cur.Kind != k {
		p.errf("expected %s, got %s", what, p.cur)
	}
	return p.advance()
}

func (p *Parser) atKeyword(kw lexer.KeywordID) bool {
	return p.cur.Kind == lexer.Keyword && p.cur.Keyword == kw
}

// --- top level -------------------------------------------------------------

func (p *Parser) parseFile() *File {
	f := &File{}
	f.Merge = p.parseLeadingFlags(f)

	var kind FileKind
	switch {
	case p.atKeyword(lexer.KwXkbKeycodes):
		kind = KindKeycodes
	case p.atKeyword(lexer.KwXkbTypes):
		kind = KindTypes
	case p.atKeyword(lexer.KwXkbCompatibility):
		kind = KindCompat
	case p.atKeyword(lexer.KwXkbSymbols):
		kind = KindSymbols
	case p.atKeyword(lexer.KwXkbGeometry):
		kind = KindGeometry
	case p.atKeyword(lexer.KwXkbKeymap):
		kind = KindKeymap
	default:
		p.errf("expected xkb_keycodes/types/compatibility/symbols/geometry/keymap, got %s", p.cur)
		return f
	}
	f.Kind = kind
	p.advance()

	if p.cur.Kind == lexer.String {
		f.Name = p.cur.Text
		p.advance()
	}
	p.expect(lexer.LBrace, "{")

	if kind == KindKeymap {
		for p.cur.Kind != lexer.RBrace && p.cur.Kind != lexer.EOF {
			sec := p.parseFile()
			f.Sections = append(f.Sections, sec)
		}
	} else if kind == KindGeometry {
		f.Decls = append(f.Decls, p.skipGeometryBody())
	} else {
		for p.cur.Kind != lexer.RBrace && p.cur.Kind != lexer.EOF {
			d := p.parseDecl()
			if d != nil {
				f.Decls = append(f.Decls, d)
			}
		}
	}
	p.expect(lexer.RBrace, "}")
	p.expect(lexer.Semi, ";")
	return f
}

// parseLeadingFlags consumes "default", "partial", "hidden" and at most
// one of augment/override/replace, in any order, setting f's flags and
// returning the resolved MergeMode (MergeDefault if none given: the
// sub-compiler that knows the enclosing include's mode applies its own
// default later; here we only record what was textually present).
func (p *Parser) parseLeadingFlags(f *File) MergeMode {
	mode := MergeDefault
	for {
		switch {
		case p.atKeyword(lexer.KwDefault):
			f.Default = true
			p.advance()
		case p.atKeyword(lexer.KwPartial):
			f.Partial = true
			p.advance()
		case p.atKeyword(lexer.KwHidden):
			f.Hidden = true
			p.advance()
		case p.atKeyword(lexer.KwAugment):
			mode = MergeAugment
			p.advance()
		case p.atKeyword(lexer.KwOverride):
			mode = MergeOverride
			p.advance()
		case p.atKeyword(lexer.KwReplace):
			mode = MergeReplace
			p.advance()
		default:
			return mode
		}
	}
}

// skipGeometryBody consumes a balanced sequence of tokens up to (but not
// including) the closing brace that parseFile's caller already expects,
// discarding its content: geometry is parsed and thrown away.
func (p *Parser) skipGeometryBody() Decl {
	depth := 0
	for {
		switch p.cur.Kind {
		case lexer.LBrace:
			depth++
		case lexer.RBrace:
			if depth == 0 {
				return GeometryDecl{}
			}
			depth--
		case lexer.EOF:
			return GeometryDecl{}
		}
		p.advance()
	}
}

// --- declarations ------------------------------------------------------

func (p *Parser) parseDecl() Decl {
	mode := MergeDefault
	for {
		switch {
		case p.atKeyword(lexer.KwAugment):
			mode = MergeAugment
			p.advance()
		case p.atKeyword(lexer.KwOverride):
			mode = MergeOverride
			p.advance()
		case p.atKeyword(lexer.KwReplace):
			mode = MergeReplace
			p.advance()
		default:
			goto dispatch
		}
	}
dispatch:
	switch {
	case p.cur.Kind == lexer.Keyword:
		switch p.cur.Keyword {
		case lexer.KwInclude:
			return p.parseInclude(mode)
		case lexer.KwVirtualModifiers:
			return p.parseVMod(mode)
		case lexer.KwAlias:
			return p.parseAlias(mode)
		case lexer.KwType:
			return p.parseType(mode)
		case lexer.KwInterpret:
			return p.parseInterpret(mode)
		case lexer.KwIndicator:
			return p.parseIndicator(mode)
		case lexer.KwKey:
			return p.parseKey(mode)
		case lexer.KwModifierMap:
			return p.parseModMap(mode)
		default:
			return p.parseGenericStmt(mode)
		}
	case p.cur.Kind == lexer.KeyName:
		return p.parseKeycodeOrKeyRef(mode)
	case p.cur.Kind == lexer.Ident:
		return p.parseGenericStmt(mode)
	default:
		p.errf("unexpected token %s at start of statement", p.cur)
		p.advance()
		return nil
	}
}

func (p *Parser) parseInclude(mode MergeMode) Decl {
	p.advance() // include
	var spec string
	if p.cur.Kind == lexer.String {
		spec = p.cur.Text
		p.advance()
	} else {
		p.errf("expected include spec string, got %s", p.cur)
	}
	// The statement terminator is optional here: installed component
	// files conventionally write `include "pc"` bare.
	if p.cur.Kind == lexer.Semi {
		p.advance()
	}
	return IncludeDecl{Spec: spec, Merge: mode}
}

func (p *Parser) parseVMod(mode MergeMode) Decl {
	p.advance() // virtual_modifiers
	decl := VModDecl{Inits: map[string]Expr{}, Merge: mode}
	for {
		if p.cur.Kind != lexer.Ident {
			p.errf("expected virtual modifier name, got %s", p.cur)
			break
		}
		name := p.cur.Text
		p.advance()
		decl.Names = append(decl.Names, name)
		if p.cur.Kind == lexer.Equals {
			p.advance()
			decl.Inits[name] = p.parseExpr()
		}
		if p.cur.Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.Semi, ";")
	return decl
}

func (p *Parser) parseAlias(mode MergeMode) Decl {
	p.advance() // alias
	alias := p.expect(lexer.KeyName, "<alias>").Text
	p.expect(lexer.Equals, "=")
	target := p.expect(lexer.KeyName, "<target>").Text
	p.expect(lexer.Semi, ";")
	return AliasDecl{Alias: alias, Target: target, Merge: mode}
}

// parseKeycodeOrKeyRef handles "<NAME> = integer;" in xkb_keycodes.
func (p *Parser) parseKeycodeOrKeyRef(mode MergeMode) Decl {
	name := p.cur.Text
	p.advance()
	p.expect(lexer.Equals, "=")
	val := p.expect(lexer.Integer, "integer")
	p.expect(lexer.Semi, ";")
	return KeycodeDecl{Name: name, Value: val.IVal, Merge: mode}
}

func (p *Parser) parseType(mode MergeMode) Decl {
	p.advance() // type
	name := p.expect(lexer.String, "type name string").Text
	p.expect(lexer.LBrace, "{")
	decl := TypeDecl{Name: name, Merge: mode}
	for p.cur.Kind != lexer.RBrace && p.cur.Kind != lexer.EOF {
		decl.Body = append(decl.Body, p.parseTypeBodyStmt())
	}
	p.expect(lexer.RBrace, "}")
	p.expect(lexer.Semi, ";")
	return decl
}

func (p *Parser) parseTypeBodyStmt() Decl {
	if p.cur.Kind != lexer.Ident && p.cur.Kind != lexer.Keyword {
		p.errf("expected field name in type body, got %s", p.cur)
		p.advance()
		return VarDecl{}
	}
	name := p.cur.Text
	p.advance()
	switch name {
	case "map":
		p.expect(lexer.LBracket, "[")
		mods := p.parseExpr()
		p.expect(lexer.RBracket, "]")
		p.expect(lexer.Equals, "=")
		level := p.parseExpr()
		p.expect(lexer.Semi, ";")
		return MapEntryDecl{Mods: mods, Level: level}
	case "preserve":
		p.expect(lexer.LBracket, "[")
		idx := p.parseExpr()
		p.expect(lexer.RBracket, "]")
		p.expect(lexer.Equals, "=")
		pres := p.parseExpr()
		p.expect(lexer.Semi, ";")
		return PreserveDecl{Index: idx, Preserve: pres}
	case "level_name":
		p.expect(lexer.LBracket, "[")
		lvl := p.parseExpr()
		p.expect(lexer.RBracket, "]")
		p.expect(lexer.Equals, "=")
		txt := p.expect(lexer.String, "level name string").Text
		p.expect(lexer.Semi, ";")
		return LevelNameDecl{Level: lvl, Name: txt}
	default:
		d := p.finishGenericStmt(name)
		p.expect(lexer.Semi, ";")
		return d
	}
}

func (p *Parser) parseInterpret(mode MergeMode) Decl {
	p.advance() // interpret
	sym := p.parsePrimary()
	var mods Expr
	if p.cur.Kind == lexer.Plus {
		p.advance()
		mods = p.parseExpr()
	}
	p.expect(lexer.LBrace, "{")
	decl := InterpretDecl{Sym: sym, Mods: mods, Merge: mode}
	for p.cur.Kind != lexer.RBrace && p.cur.Kind != lexer.EOF {
		decl.Body = append(decl.Body, p.parseGenericStmt(MergeDefault))
	}
	p.expect(lexer.RBrace, "}")
	p.expect(lexer.Semi, ";")
	return decl
}

// parseIndicator disambiguates the two "indicator" grammars: keycodes'
// "indicator N = \"name\";" vs compat's "indicator \"name\" { ... };".
func (p *Parser) parseIndicator(mode MergeMode) Decl {
	p.advance() // indicator
	if p.cur.Kind == lexer.Integer {
		idx := p.cur.IVal
		p.advance()
		p.expect(lexer.Equals, "=")
		name := p.expect(lexer.String, "indicator name string").Text
		p.expect(lexer.Semi, ";")
		return IndicatorNameDecl{Index: idx, Name: name, Merge: mode}
	}
	name := p.expect(lexer.String, "indicator name string").Text
	p.expect(lexer.LBrace, "{")
	decl := IndicatorDecl{Name: name, Merge: mode}
	for p.cur.Kind != lexer.RBrace && p.cur.Kind != lexer.EOF {
		decl.Body = append(decl.Body, p.parseGenericStmt(MergeDefault))
	}
	p.expect(lexer.RBrace, "}")
	p.expect(lexer.Semi, ";")
	return decl
}

// parseKey handles "key <NAME> { ... };". Key-body statements are
// conventionally comma-separated with no terminator on the last one;
// semicolons are tolerated too.
func (p *Parser) parseKey(mode MergeMode) Decl {
	p.advance() // key
	name := p.expect(lexer.KeyName, "<keyname>").Text
	p.expect(lexer.LBrace, "{")
	decl := KeyDecl{Name: name, Merge: mode}
	for p.cur.Kind != lexer.RBrace && p.cur.Kind != lexer.EOF {
		decl.Body = append(decl.Body, p.parseKeyBodyStmt())
		if p.cur.Kind == lexer.Comma || p.cur.Kind == lexer.Semi {
			p.advance()
		}
	}
	p.expect(lexer.RBrace, "}")
	p.expect(lexer.Semi, ";")
	return decl
}

func (p *Parser) parseKeyBodyStmt() Decl {
	if p.cur.Kind == lexer.LBracket {
		// bare "[sym, sym]" shorthand for "symbols[Group1] = [...]"
		elems := p.parseArrayElems()
		return GroupArrayDecl{Field: "symbols", Group: 1, Elems: elems}
	}
	if p.cur.Kind != lexer.Ident && p.cur.Kind != lexer.Keyword {
		p.errf("expected field name in key body, got %s", p.cur)
		p.advance()
		return VarDecl{}
	}
	name := p.cur.Text
	p.advance()
	if name == "symbols" || name == "actions" {
		group := 0
		if p.cur.Kind == lexer.LBracket {
			p.advance()
			group = p.parseGroupIndex()
			p.expect(lexer.RBracket, "]")
		}
		p.expect(lexer.Equals, "=")
		elems := p.parseArrayElems()
		return GroupArrayDecl{Field: name, Group: group, Elems: elems}
	}
	return p.finishGenericStmt(name)
}

// parseGroupIndex parses the "GroupN" identifier or a bare integer
// inside a "[...]" subscript, returning N (1-based).
func (p *Parser) parseGroupIndex() int {
	if p.cur.Kind == lexer.Ident {
		txt := p.cur.Text
		p.advance()
		return parseLevelOrGroupSuffix(txt)
	}
	if p.cur.Kind == lexer.Integer {
		v := int(p.cur.IVal)
		p.advance()
		return v
	}
	p.errf("expected group index, got %s", p.cur)
	return 0
}

func (p *Parser) parseArrayElems() []Expr {
	p.expect(lexer.LBracket, "[")
	var elems []Expr
	for p.cur.Kind != lexer.RBracket && p.cur.Kind != lexer.EOF {
		elems = append(elems, p.parseExpr())
		if p.cur.Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RBracket, "]")
	return elems
}

func (p *Parser) parseModMap(mode MergeMode) Decl {
	p.advance() // modifier_map
	modName := p.expect(lexer.Ident, "modifier name").Text
	p.expect(lexer.LBrace, "{")
	decl := ModMapDecl{ModName: modName, Merge: mode}
	for p.cur.Kind != lexer.RBrace && p.cur.Kind != lexer.EOF {
		if p.cur.Kind == lexer.KeyName {
			decl.Keys = append(decl.Keys, p.cur.Text)
			p.advance()
		} else {
			p.errf("expected key name in modifier_map, got %s", p.cur)
			p.advance()
		}
		if p.cur.Kind == lexer.Comma {
			p.advance()
		}
	}
	p.expect(lexer.RBrace, "}")
	p.expect(lexer.Semi, ";")
	return decl
}

// parseGenericStmt parses a bare "lhs[index] = rhs;" assignment: the
// catch-all for keycodes' minimum/maximum, interprets'
// action/virtualModifier/repeat/useModMapMods, and indicators' field
// list.
func (p *Parser) parseGenericStmt(mode MergeMode) Decl {
	// Field names here can collide with reserved words ("action",
	// "repeat"): accept either an Ident or a Keyword token, keyed off
	// its literal spelling rather than its keyword ID.
	if p.cur.Kind != lexer.Ident && p.cur.Kind != lexer.Keyword {
		p.errf("expected field name, got %s", p.cur)
		p.advance()
		return VarDecl{Merge: mode}
	}
	name := p.cur.Text
	p.advance()
	d := p.finishGenericStmt(name)
	p.expect(lexer.Semi, ";")
	if vd, ok := d.(VarDecl); ok {
		vd.Merge = mode
		return vd
	}
	return d
}

func (p *Parser) finishGenericStmt(name string) Decl {
	var index Expr
	if p.cur.Kind == lexer.LBracket {
		p.advance()
		index = p.parseExpr()
		p.expect(lexer.RBracket, "]")
	}
	// Allow "lhs.sub = rhs" (e.g. a "type.*" global-default statement)
	// by folding the dotted path into Lhs text.
	lhs := name
	for p.cur.Kind == lexer.Dot {
		p.advance()
		if p.cur.Kind == lexer.Star {
			lhs += ".*"
			p.advance()
		} else if p.cur.Kind == lexer.Ident {
			lhs += "." + p.cur.Text
			p.advance()
		}
	}
	p.expect(lexer.Equals, "=")
	rhs := p.parseExpr()
	return VarDecl{Lhs: lhs, Index: index, Rhs: rhs}
}

// --- expressions ---------------------------------------------------------

func (p *Parser) parseExpr() Expr {
	left := p.parseUnary()
	for p.cur.Kind == lexer.Plus {
		op := p.cur.Kind
		p.advance()
		right := p.parseUnary()
		left = Binary{Op: op, Lhs: left, Rhs: right}
	}
	return left
}

func (p *Parser) parseUnary() Expr {
	if p.cur.Kind == lexer.Tilde || p.cur.Kind == lexer.Minus {
		op := p.cur.Kind
		p.advance()
		return Call{Name: string(tokenRune(op)), Args: []Expr{p.parseUnary()}}
	}
	return p.parsePrimary()
}

func tokenRune(k lexer.Kind) rune {
	if k == lexer.Tilde {
		return '~'
	}
	return '-'
}

func (p *Parser) parsePrimary() Expr {
	switch p.cur.Kind {
	case lexer.Ident:
		name := p.cur.Text
		p.advance()
		if p.cur.Kind == lexer.LParen {
			return p.parseCall(name)
		}
		return Ident{Name: name}
	case lexer.Keyword:
		// "Any", "None", "All" act as identifiers in expression position.
		name := p.cur.Text
		p.advance()
		return Ident{Name: name}
	case lexer.KeyName:
		name := p.cur.Text
		p.advance()
		return KeyNameExpr{Name: name}
	case lexer.String:
		s := p.cur.Text
		p.advance()
		return StringLit{Value: s}
	case lexer.Integer:
		v := p.cur.IVal
		p.advance()
		return IntLit{Value: v}
	case lexer.Float:
		v := p.cur.FVal
		p.advance()
		return FloatLit{Value: v}
	case lexer.LParen:
		p.advance()
		e := p.parseExpr()
		p.expect(lexer.RParen, ")")
		return e
	case lexer.LBracket:
		elems := p.parseArrayElems()
		return Array{Elems: elems}
	default:
		p.errf("unexpected token in expression: %s", p.cur)
		p.advance()
		return Ident{Name: "NoSymbol"}
	}
}

func (p *Parser) parseCall(name string) Expr {
	p.advance() // '('
	call := Call{Name: name}
	for p.cur.Kind != lexer.RParen && p.cur.Kind != lexer.EOF {
		if p.cur.Kind == lexer.Ident {
			argName := p.cur.Text
			p.advance()
			if p.cur.Kind == lexer.Equals {
				p.advance()
				call.Args = append(call.Args, KeyValueArg{Name: argName, Value: p.parseExpr()})
			} else {
				call.Args = append(call.Args, Ident{Name: argName})
			}
		} else {
			call.Args = append(call.Args, p.parseExpr())
		}
		if p.cur.Kind == lexer.Comma {
			p.advance()
			continue
		}
		break
	}
	p.expect(lexer.RParen, ")")
	return call
}

// parseLevelOrGroupSuffix extracts the trailing digits from identifiers
// like "Level2" or "Group3", returning the 1-based number, or 0 if the
// identifier carries none.
func parseLevelOrGroupSuffix(s string) int {
	i := len(s)
	for i > 0 && s[i-1] >= '0' && s[i-1] <= '9' {
		i--
	}
	if i == len(s) {
		return 0
	}
	n := 0
	for _, c := range s[i:] {
		n = n*10 + int(c-'0')
	}
	return n
}
