package lang

import (
	"github.com/hashicorp/hcl/v2"
	"github.com/vk/prodchain/internal/ast"
	"github.com/vk/prodchain/internal/diag"
)

// The fragment parsers read a single grammar element from a standalone
// string, as found in attribute values of other surface syntaxes. Every
// range in the result, and in any error, is rng.

// ParseIdent checks that text is a single identifier, as required for
// product, type, dependency and recipe names.
func ParseIdent(text string, rng hcl.Range) (ast.Ident, error) {
	p, err := newFragment(text, rng)
	if err != nil {
		return ast.Ident{}, err
	}
	id, err := p.expectIdent("as name")
	if err = p.finish(err, rng); err != nil {
		return ast.Ident{}, err
	}
	id.SrcRange = rng
	return id, nil
}

// ParseLiteral parses a literal such as "30kW", "1000ms" or "1.5".
func ParseLiteral(text string, rng hcl.Range) (ast.Literal, error) {
	p, err := newFragment(text, rng)
	if err != nil {
		return ast.Literal{}, err
	}
	lit, err := p.parseLiteral("as value")
	if err = p.finish(err, rng); err != nil {
		return ast.Literal{}, err
	}
	lit.SrcRange = rng
	return lit, nil
}

// ParsePart parses a product occurrence such as "Ore" or "3x Plate".
func ParsePart(text string, rng hcl.Range) (ast.Part, error) {
	p, err := newFragment(text, rng)
	if err != nil {
		return ast.Part{}, err
	}
	part, err := p.parsePart("as product")
	if err = p.finish(err, rng); err != nil {
		return ast.Part{}, err
	}
	part.Product.SrcRange = rng
	return part, nil
}

// ParsePartPattern parses a template list position: "_" or a part.
func ParsePartPattern(text string, rng hcl.Range) (ast.PartPattern, error) {
	p, err := newFragment(text, rng)
	if err != nil {
		return ast.PartPattern{}, err
	}
	if p.peek().Type == TokenWildcard {
		p.next()
		if err := p.finish(nil, rng); err != nil {
			return ast.PartPattern{}, err
		}
		return ast.PartPattern{Wildcard: true, SrcRange: rng}, nil
	}
	part, err := p.parsePart("as product pattern")
	if err = p.finish(err, rng); err != nil {
		return ast.PartPattern{}, err
	}
	part.Product.SrcRange = rng
	return ast.PartPattern{Part: part, SrcRange: rng}, nil
}

// ParseOperand parses a formula operand: "Self::Speed" or a literal.
func ParseOperand(text string, rng hcl.Range) (ast.Operand, error) {
	p, err := newFragment(text, rng)
	if err != nil {
		return ast.Operand{}, err
	}
	op, err := p.parseOperand("as operand")
	if err = p.finish(err, rng); err != nil {
		return ast.Operand{}, err
	}
	op.SrcRange = rng
	if op.Literal != nil {
		op.Literal.SrcRange = rng
	}
	return op, nil
}

func newFragment(text string, rng hcl.Range) (*parser, error) {
	tokens, err := Lex(rng.Filename, []byte(text))
	if err != nil {
		return nil, reanchor(err, rng)
	}
	return &parser{tokens: tokens}, nil
}

// finish checks that the whole fragment was consumed.
func (p *parser) finish(err error, rng hcl.Range) error {
	if err == nil && p.peek().Type != TokenEOF {
		err = p.errorf(p.peek(), "unexpected %s after value", p.peek().describe())
	}
	if err != nil {
		return reanchor(err, rng)
	}
	return nil
}

func reanchor(err error, rng hcl.Range) error {
	switch e := err.(type) {
	case *diag.LexError:
		return &diag.LexError{Subject: rng, Msg: e.Msg}
	case *diag.ParseError:
		return &diag.ParseError{Subject: rng, Msg: e.Msg}
	default:
		return err
	}
}
