package lang

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
)

// TokenType classifies a lexical token.
type TokenType int

const (
	TokenEOF TokenType = iota
	TokenIdent
	TokenNumber   // 30, 1.5, 30kW, 1000ms
	TokenQuantity // 3x
	TokenWildcard // _
	TokenArrow    // ->
	TokenPathSep  // ::
	TokenColon
	TokenSemicolon
	TokenComma
	TokenLBrace
	TokenRBrace
	TokenLParen
	TokenRParen
	TokenStar
	TokenAt
	TokenSlash
	TokenEquals
)

var tokenNames = map[TokenType]string{
	TokenEOF:       "end of file",
	TokenIdent:     "identifier",
	TokenNumber:    "number",
	TokenQuantity:  "quantity",
	TokenWildcard:  "'_'",
	TokenArrow:     "'->'",
	TokenPathSep:   "'::'",
	TokenColon:     "':'",
	TokenSemicolon: "';'",
	TokenComma:     "','",
	TokenLBrace:    "'{'",
	TokenRBrace:    "'}'",
	TokenLParen:    "'('",
	TokenRParen:    "')'",
	TokenStar:      "'*'",
	TokenAt:        "'@'",
	TokenSlash:     "'/'",
	TokenEquals:    "'='",
}

func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("token(%d)", int(t))
}

// Token is a lexeme with its source range. Number tokens carry the parsed
// Value and the unit Suffix; quantity tokens carry the count in Value.
type Token struct {
	Type   TokenType
	Text   string
	Value  float64
	Suffix string
	Range  hcl.Range
}

func (t Token) describe() string {
	switch t.Type {
	case TokenIdent, TokenNumber, TokenQuantity:
		return fmt.Sprintf("%s %q", t.Type, t.Text)
	default:
		return t.Type.String()
	}
}

// Keywords of the native syntax.
const (
	KeywordProducer       = "producer"
	KeywordMachine        = "machine"
	KeywordDep            = "dep"
	KeywordRecipe         = "recipe"
	KeywordRecipeTemplate = "recipe_template"
	KeywordProducts       = "Products"
	KeywordSelf           = "Self"
)
