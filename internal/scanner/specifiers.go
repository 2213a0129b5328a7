package scanner

import (
	"strings"

	"bundlecore/internal/module"

	"github.com/tdewolff/parse/v2"
	"github.com/tdewolff/parse/v2/js"
)

// specifierSite is a string literal in a position where a module specifier
// can appear: after import or from, or as the first argument of require(
// or import(.
type specifierSite struct {
	raw  string
	span module.Span
}

// specifierSites lexes src and returns the candidate sites in source order.
// Comments and other string literals never produce a site.
func specifierSites(src string) []specifierSite {
	var (
		sites []specifierSite
		l     = js.NewLexer(parse.NewInputString(src))
		pos   int
		// Last two significant tokens, most recent first.
		prev, prev2         js.TokenType
		prevData, prev2Data string
	)
	for {
		tt, data := l.Next()
		if tt == js.ErrorToken && len(data) == 0 {
			break
		}
		if (tt == js.DivToken || tt == js.DivEqToken) && regexpAllowed(prev) {
			// The lexer rewinds to the slash; on failure offsets are lost.
			if tt, data = l.RegExp(); tt != js.RegExpToken {
				return sites
			}
		}
		start := pos
		pos += len(data)

		switch tt {
		case js.WhitespaceToken, js.LineTerminatorToken, js.CommentToken, js.CommentLineTerminatorToken:
			continue
		case js.StringToken:
			if specifierPosition(prev, prev2, prev2Data) {
				sites = append(sites, specifierSite{
					raw:  string(data),
					span: module.Span{Start: uint32(start), End: uint32(pos)},
				})
			}
		}
		prev2, prev2Data = prev, prevData
		prev, prevData = tt, string(data)
	}
	return sites
}

func specifierPosition(prev, prev2 js.TokenType, prev2Data string) bool {
	switch prev {
	case js.FromToken, js.ImportToken:
		return true
	case js.OpenParenToken:
		return prev2 == js.ImportToken || (prev2 == js.IdentifierToken && prev2Data == "require")
	}
	return false
}

// regexpAllowed reports whether a slash after prev starts a regular
// expression rather than a division.
func regexpAllowed(prev js.TokenType) bool {
	switch prev {
	case js.ErrorToken:
		return true
	case js.CloseParenToken, js.CloseBracketToken, js.CloseBraceToken,
		js.ThisToken, js.SuperToken, js.NullToken, js.TrueToken, js.FalseToken:
		return false
	}
	return js.IsPunctuator(prev) || js.IsReservedWord(prev)
}

// locate returns the span of the next specifier literal equal to raw.
// Records are created in source order, so the site cursor only moves
// forward. A literal the lexer did not place is found by text search.
func (s *AstScanner) locate(raw string) module.Span {
	for i := s.site; i < len(s.sites); i++ {
		if s.sites[i].raw == raw {
			s.site = i + 1
			s.cursor = int(s.sites[i].span.End)
			return s.sites[i].span
		}
	}

	i := strings.Index(s.source[s.cursor:], raw)
	if i < 0 {
		i = strings.Index(s.source, raw)
		if i < 0 {
			return module.Span{}
		}
	} else {
		i += s.cursor
	}
	s.cursor = i + len(raw)
	return module.Span{Start: uint32(i), End: uint32(i + len(raw))}
}
