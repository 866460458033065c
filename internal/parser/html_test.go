package parser

import (
	"strings"
	"testing"
)

func TestHTMLParser_BlocksAndPageBreaks(t *testing.T) {
	input := `<html><head><title>CELEX</title><style>p{}</style></head><body>
<nav>menu</nav>
<p class="ti-art">Artikel 1</p>
<p>Genstand.<br>Stk. 2.</p>
<hr>
<p class="ti-art">Artikel 2</p>
<table><tr><td>a)</td><td>definition</td></tr></table>
</body></html>`
	p := &HTMLParser{}
	pages, err := p.Parse(strings.NewReader(input), "reg.html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].Text != "Artikel 1\nGenstand.\nStk. 2." {
		t.Errorf("page 1: unexpected text %q", pages[0].Text)
	}
	if pages[1].Text != "Artikel 2\na)\ndefinition" {
		t.Errorf("page 2: unexpected text %q", pages[1].Text)
	}
	if strings.Contains(pages[0].Text, "menu") {
		t.Errorf("expected nav content to be skipped")
	}
}
