package lang

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
)

// Parse lexes and parses a whole source unit. The first lexical or grammar
// error aborts parsing and is returned as a *diag.LexError or
// *diag.ParseError; no partial tree is returned.
func Parse(filename string, src []byte) (*ast.File, error) {
	tokens, err := Lex(filename, src)
	if err != nil {
		return nil, err
	}
	p := &parser{tokens: tokens}
	return p.parseFile()
}

type parser struct {
	tokens []Token
	pos    int
}

func (p *parser) peek() Token { return p.tokens[p.pos] }

func (p *parser) peekAt(n int) Token {
	if p.pos+n >= len(p.tokens) {
		return p.tokens[len(p.tokens)-1]
	}
	return p.tokens[p.pos+n]
}

func (p *parser) next() Token {
	tok := p.tokens[p.pos]
	if tok.Type != TokenEOF {
		p.pos++
	}
	return tok
}

func (p *parser) prev() Token {
	if p.pos == 0 {
		return p.tokens[0]
	}
	return p.tokens[p.pos-1]
}

func (p *parser) accept(tt TokenType) bool {
	if p.peek().Type == tt {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(tt TokenType, context string) (Token, error) {
	tok := p.peek()
	if tok.Type != tt {
		return tok, p.errorf(tok, "expected %s %s, found %s", tt, context, tok.describe())
	}
	return p.next(), nil
}

func (p *parser) expectIdent(context string) (ast.Ident, error) {
	tok, err := p.expect(TokenIdent, context)
	if err != nil {
		return ast.Ident{}, err
	}
	return ast.Ident{Name: tok.Text, SrcRange: tok.Range}, nil
}

func (p *parser) errorf(tok Token, format string, args ...any) error {
	return &diag.ParseError{Subject: tok.Range, Msg: fmt.Sprintf(format, args...)}
}

// span returns the range from start to the end of the last consumed token.
func (p *parser) span(start hcl.Range) hcl.Range {
	return hcl.RangeBetween(start, p.prev().Range)
}

func (p *parser) parseFile() (*ast.File, error) {
	file := &ast.File{}
	for p.peek().Type != TokenEOF {
		block, err := p.parseBlock()
		if err != nil {
			return nil, err
		}
		file.Blocks = append(file.Blocks, block)
	}
	return file, nil
}

func (p *parser) parseBlock() (ast.Block, error) {
	tok := p.peek()
	if tok.Type != TokenIdent {
		return nil, p.errorf(tok, "expected a Products, producer or machine block, found %s", tok.describe())
	}
	switch tok.Text {
	case KeywordProducts:
		return p.parseProducts()
	case KeywordProducer:
		p.next()
		name, base, body, err := p.parseTypeBlock("producer")
		if err != nil {
			return nil, err
		}
		return &ast.ProducerDecl{Name: name, Base: base, Body: body, SrcRange: p.span(tok.Range)}, nil
	case KeywordMachine:
		p.next()
		name, base, body, err := p.parseTypeBlock("machine")
		if err != nil {
			return nil, err
		}
		return &ast.MachineDecl{Name: name, Base: base, Body: body, SrcRange: p.span(tok.Range)}, nil
	default:
		return nil, p.errorf(tok, "expected a Products, producer or machine block, found %s", tok.describe())
	}
}

func (p *parser) parseProducts() (*ast.ProductsDecl, error) {
	start := p.next().Range
	if _, err := p.expect(TokenLBrace, "after Products"); err != nil {
		return nil, err
	}
	decl := &ast.ProductsDecl{}
	for p.peek().Type != TokenRBrace {
		name, err := p.expectIdent("in Products list")
		if err != nil {
			return nil, err
		}
		decl.Names = append(decl.Names, name)
		if !p.accept(TokenComma) {
			break
		}
	}
	if _, err := p.expect(TokenRBrace, "to close Products"); err != nil {
		return nil, err
	}
	decl.SrcRange = p.span(start)
	return decl, nil
}

func (p *parser) parseTypeBlock(keyword string) (ast.Ident, *ast.Ident, ast.Body, error) {
	var body ast.Body
	name, err := p.expectIdent("as " + keyword + " name")
	if err != nil {
		return name, nil, body, err
	}

	var base *ast.Ident
	if p.accept(TokenColon) {
		b, err := p.expectIdent("as base of " + name.Name)
		if err != nil {
			return name, nil, body, err
		}
		base = &b
	}

	if _, err := p.expect(TokenLBrace, "to open "+keyword+" "+name.Name); err != nil {
		return name, base, body, err
	}
	for p.peek().Type != TokenRBrace {
		if err := p.parseItem(&body); err != nil {
			return name, base, body, err
		}
	}
	p.next()
	return name, base, body, nil
}

func (p *parser) parseItem(body *ast.Body) error {
	tok := p.peek()
	if tok.Type == TokenIdent {
		switch tok.Text {
		case KeywordDep:
			dep, err := p.parseDep()
			if err != nil {
				return err
			}
			body.Deps = append(body.Deps, dep)
			return nil
		case KeywordRecipe:
			recipe, err := p.parseRecipe()
			if err != nil {
				return err
			}
			body.Recipes = append(body.Recipes, recipe)
			return nil
		case KeywordRecipeTemplate:
			tmpl, err := p.parseTemplate()
			if err != nil {
				return err
			}
			body.Templates = append(body.Templates, tmpl)
			return nil
		}
	}
	return p.errorf(tok, "expected dep, recipe, recipe_template or '}', found %s", tok.describe())
}

// parseDep handles the declaration form `dep X: Type [= lit];` and both
// binding spellings `dep X: lit;` and `dep X = lit;`. A right-hand side is
// a type exactly when it is an identifier naming a slot type.
func (p *parser) parseDep() (*ast.DepDecl, error) {
	start := p.next().Range
	name, err := p.expectIdent("as dependency name")
	if err != nil {
		return nil, err
	}
	dep := &ast.DepDecl{Name: name}

	switch tok := p.next(); tok.Type {
	case TokenColon:
		rhs := p.peek()
		if rhs.Type == TokenIdent {
			st, ok := ast.ParseSlotType(rhs.Text)
			if !ok {
				return nil, p.errorf(rhs, "unknown dependency type %q; expected Power, real or Time", rhs.Text)
			}
			p.next()
			dep.Type = &ast.TypeRef{Type: st, SrcRange: rhs.Range}
			if p.accept(TokenEquals) {
				lit, err := p.parseLiteral("as value of " + name.Name)
				if err != nil {
					return nil, err
				}
				dep.Value = &lit
				dep.Form = ast.BindEquals
			}
		} else {
			lit, err := p.parseLiteral("as type or value of " + name.Name)
			if err != nil {
				return nil, err
			}
			dep.Value = &lit
			dep.Form = ast.BindColon
		}
	case TokenEquals:
		lit, err := p.parseLiteral("as value of " + name.Name)
		if err != nil {
			return nil, err
		}
		dep.Value = &lit
		dep.Form = ast.BindEquals
	default:
		return nil, p.errorf(tok, "expected ':' or '=' after dependency %s, found %s", name.Name, tok.describe())
	}

	if _, err := p.expect(TokenSemicolon, "after dependency "+name.Name); err != nil {
		return nil, err
	}
	dep.SrcRange = p.span(start)
	return dep, nil
}

func (p *parser) parseLiteral(context string) (ast.Literal, error) {
	tok, err := p.expect(TokenNumber, context)
	if err != nil {
		return ast.Literal{}, err
	}
	lit, ok := ast.NewLiteral(tok.Value, tok.Suffix, tok.Range)
	if !ok {
		return ast.Literal{}, p.errorf(tok, "unknown unit suffix %q on %s", tok.Suffix, tok.Text)
	}
	return lit, nil
}

func (p *parser) parseRecipe() (*ast.RecipeDecl, error) {
	start := p.next().Range
	name, err := p.expectIdent("as recipe name")
	if err != nil {
		return nil, err
	}
	recipe := &ast.RecipeDecl{Name: name}

	if _, err := p.expect(TokenLParen, "to open inputs of recipe "+name.Name); err != nil {
		return nil, err
	}
	if p.peek().Type != TokenRParen {
		if recipe.Inputs, err = p.parseParts("in inputs of recipe " + name.Name); err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(TokenRParen, "to close inputs of recipe "+name.Name); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenArrow, "after inputs of recipe "+name.Name); err != nil {
		return nil, err
	}
	if recipe.Outputs, err = p.parseParts("in outputs of recipe " + name.Name); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenSlash, "before duration of recipe "+name.Name); err != nil {
		return nil, err
	}

	durTok := p.peek()
	dur, err := p.parseLiteral("as duration of recipe " + name.Name)
	if err != nil {
		return nil, err
	}
	if dur.Kind == ast.KindPower {
		return nil, p.errorf(durTok, "duration of recipe %s must be a time, found %s", name.Name, dur)
	}
	if dur.Value <= 0 {
		return nil, p.errorf(durTok, "duration of recipe %s must be positive", name.Name)
	}
	recipe.Duration = dur

	if _, err := p.expect(TokenSemicolon, "after recipe "+name.Name); err != nil {
		return nil, err
	}
	recipe.SrcRange = p.span(start)
	return recipe, nil
}

func (p *parser) parseParts(context string) ([]ast.Part, error) {
	var parts []ast.Part
	for {
		part, err := p.parsePart(context)
		if err != nil {
			return nil, err
		}
		parts = append(parts, part)
		if !p.accept(TokenComma) {
			return parts, nil
		}
	}
}

// parsePart reads `[Nx] Product`. The spaced spelling `N x Product` is
// accepted too.
func (p *parser) parsePart(context string) (ast.Part, error) {
	part := ast.Part{Quantity: 1}
	tok := p.peek()
	switch {
	case tok.Type == TokenQuantity:
		p.next()
		part.Quantity = int(tok.Value)
	case tok.Type == TokenNumber && tok.Suffix == "" && p.peekAt(1).Type == TokenIdent && p.peekAt(1).Text == "x" && p.peekAt(2).Type == TokenIdent:
		if tok.Value < 1 || tok.Value != float64(int(tok.Value)) {
			return part, p.errorf(tok, "quantity %s must be a positive integer", tok.Text)
		}
		p.next()
		p.next()
		part.Quantity = int(tok.Value)
	case tok.Type == TokenWildcard:
		return part, p.errorf(tok, "wildcard '_' is only allowed inside recipe_template")
	}
	product, err := p.expectIdent(context)
	if err != nil {
		return part, err
	}
	part.Product = product
	return part, nil
}

func (p *parser) parseTemplate() (*ast.TemplateDecl, error) {
	start := p.next().Range
	tmpl := &ast.TemplateDecl{}

	tok := p.next()
	switch tok.Type {
	case TokenWildcard:
		tmpl.Name = ast.NamePattern{Wildcard: true, SrcRange: tok.Range}
	case TokenIdent:
		tmpl.Name = ast.NamePattern{Name: tok.Text, SrcRange: tok.Range}
	default:
		return nil, p.errorf(tok, "expected recipe name pattern or '_', found %s", tok.describe())
	}

	if _, err := p.expect(TokenLParen, "to open template inputs"); err != nil {
		return nil, err
	}
	var err error
	if tmpl.Inputs, err = p.parseListPattern(TokenRParen); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenRParen, "to close template inputs"); err != nil {
		return nil, err
	}
	if _, err := p.expect(TokenArrow, "after template inputs"); err != nil {
		return nil, err
	}
	if p.peek().Type == TokenStar || p.peek().Type == TokenAt || p.peek().Type == TokenSemicolon {
		return nil, p.errorf(p.peek(), "template outputs must not be empty")
	}
	if tmpl.Outputs, err = p.parseListPattern(TokenStar, TokenAt, TokenSemicolon); err != nil {
		return nil, err
	}

	for p.accept(TokenStar) {
		op, err := p.parseOperand("as formula factor")
		if err != nil {
			return nil, err
		}
		tmpl.Factors = append(tmpl.Factors, op)
	}
	if p.accept(TokenAt) {
		op, err := p.parseOperand("as formula power")
		if err != nil {
			return nil, err
		}
		tmpl.Power = &op
	}

	if _, err := p.expect(TokenSemicolon, "after recipe_template"); err != nil {
		return nil, err
	}
	tmpl.SrcRange = p.span(start)
	return tmpl, nil
}

// parseListPattern reads a lone `_` (any list) or a possibly empty list of
// part patterns, stopping before any of the terminator tokens.
func (p *parser) parseListPattern(terminators ...TokenType) (ast.ListPattern, error) {
	first := p.peek()
	isTerminator := func(tt TokenType) bool {
		for _, t := range terminators {
			if t == tt {
				return true
			}
		}
		return false
	}

	if first.Type == TokenWildcard && isTerminator(p.peekAt(1).Type) {
		p.next()
		return ast.ListPattern{Wildcard: true, SrcRange: first.Range}, nil
	}

	list := ast.ListPattern{SrcRange: first.Range}
	if isTerminator(first.Type) {
		return list, nil
	}
	for {
		tok := p.peek()
		if tok.Type == TokenWildcard {
			p.next()
			list.Items = append(list.Items, ast.PartPattern{Wildcard: true, SrcRange: tok.Range})
		} else {
			part, err := p.parsePart("in template pattern")
			if err != nil {
				return list, err
			}
			list.Items = append(list.Items, ast.PartPattern{Part: part, SrcRange: p.span(tok.Range)})
		}
		if !p.accept(TokenComma) {
			break
		}
	}
	list.SrcRange = p.span(first.Range)
	return list, nil
}

func (p *parser) parseOperand(context string) (ast.Operand, error) {
	tok := p.peek()
	switch {
	case tok.Type == TokenIdent && tok.Text == KeywordSelf:
		p.next()
		if _, err := p.expect(TokenPathSep, "after Self"); err != nil {
			return ast.Operand{}, err
		}
		dep, err := p.expectIdent("after Self::")
		if err != nil {
			return ast.Operand{}, err
		}
		return ast.Operand{SelfDep: dep.Name, SrcRange: p.span(tok.Range)}, nil
	case tok.Type == TokenNumber:
		lit, err := p.parseLiteral(context)
		if err != nil {
			return ast.Operand{}, err
		}
		return ast.Operand{Literal: &lit, SrcRange: lit.SrcRange}, nil
	default:
		return ast.Operand{}, p.errorf(tok, "expected Self::<dep> or a literal %s, found %s", context, tok.describe())
	}
}
