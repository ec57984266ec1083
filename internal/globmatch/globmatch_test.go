package globmatch

import "testing"

func TestMatchBasicWildcard(t *testing.T) {
	p := Compile("https://example.com/*.png")
	if !p.Match("https://example.com/cat.png") {
		t.Error("expected match")
	}
	if p.Match("https://example.com/a/cat.png") {
		t.Error("single star should not cross a path separator")
	}
}

func TestMatchDoubleStarCrossesSeparators(t *testing.T) {
	p := Compile("https://example.com/**/*.png")
	if !p.Match("https://example.com/a/b/c/cat.png") {
		t.Error("expected double-star to cross multiple segments")
	}
}

func TestMatchQuestionMarkSingleChar(t *testing.T) {
	p := Compile("https://example.com/image?.png")
	if !p.Match("https://example.com/image1.png") {
		t.Error("expected single-char match")
	}
	if p.Match("https://example.com/image12.png") {
		t.Error("? should match exactly one character")
	}
}

func TestMatchBraceAlternation(t *testing.T) {
	p := Compile("https://example.com/*.{png,jpg}")
	if !p.Match("https://example.com/cat.png") {
		t.Error("expected png alternative to match")
	}
	if !p.Match("https://example.com/cat.jpg") {
		t.Error("expected jpg alternative to match")
	}
	if p.Match("https://example.com/cat.gif") {
		t.Error("gif should not match png/jpg alternation")
	}
}

func TestMatchUnterminatedBraceIsLiteral(t *testing.T) {
	raw := "https://example.com/{oops"
	p := Compile(raw)
	if !p.Match(raw) {
		t.Error("literal brace pattern should exact-match itself")
	}
	if p.Match("https://example.com/oops") {
		t.Error("unrelated url should not match")
	}
}
