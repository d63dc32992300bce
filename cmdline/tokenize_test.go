package cmdline

import (
	"errors"
	"math/rand"
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"empty", "", nil},
		{"blank", " \t\r\n ", nil},
		{
			"ktx create",
			"create --format R8G8B8A8_UNORM --zstd 10 input.tga output.ktx2",
			[]string{"create", "--format", "R8G8B8A8_UNORM", "--zstd", "10", "input.tga", "output.ktx2"},
		},
		{"quoted space", `create "my file.tga" out.ktx2`, []string{"create", "my file.tga", "out.ktx2"}},
		{"windows path", `create C:\work\file.tga D:\out\a.ktx2`, []string{"create", `C:\work\file.tga`, `D:\out\a.ktx2`}},
		{"quoted windows path", `"C:\my work\file.tga"`, []string{`C:\my work\file.tga`}},
		{"trailing backslash in quotes", `"C:\dir\" next`, []string{`C:\dir\`, "next"}},
		{
			"hangul",
			`oidn_app.exe create "한글 띄어쓰기.tga" "한글 띄어쓰기 output.ktx2"`,
			[]string{"oidn_app.exe", "create", "한글 띄어쓰기.tga", "한글 띄어쓰기 output.ktx2"},
		},
		{"ideographic space is not a separator", "가\u3000나 다", []string{"가\u3000나", "다"}},
		{"quote ends token", `"a b"c`, []string{"a b", "c"}},
		{"mid-word quote is literal", `a"b c"`, []string{`a"b`, `c"`}},
		{"single quotes group but are kept", `'a b' c`, []string{"'a b'", "c"}},
		{"empty quotes", `x "" y`, []string{"x", "", "y"}},
		{"tabs and newlines", "a\tb\nc\r\nd", []string{"a", "b", "c", "d"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Tokenize(tc.in)
			if err != nil {
				t.Fatal("Tokenize:", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("Tokenize(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestTokenizeUnbalanced(t *testing.T) {
	for _, in := range []string{
		`create "a.tga b.ktx2`,
		`"`,
		`a 'b`,
		`"""`,
		`ok "한글`,
	} {
		got, err := Tokenize(in)
		if got != nil {
			t.Fatalf("Tokenize(%q) returned partial tokens %q", in, got)
		}
		var perr *ParseError
		if !errors.As(err, &perr) {
			t.Fatalf("Tokenize(%q): expected *ParseError, got %v", in, err)
		}
		if perr.Input != in {
			t.Fatalf("ParseError.Input = %q, want %q", perr.Input, in)
		}
		if r := rune(in[perr.Offset]); r != perr.Quote {
			t.Fatalf("ParseError offset %d points at %q, want %q", perr.Offset, r, perr.Quote)
		}
	}
}

func TestStripQuotes(t *testing.T) {
	cases := map[string]string{
		`"a"`:     "a",
		`""a""`:   "a",
		`"""a"""`: "a",
		`"a`:      `"a`,
		`"`:       `"`,
		`""`:      "",
		`'a'`:     "'a'",
		`"a" "b"`: `a" "b`,
		`plain`:   "plain",
	}
	for in, want := range cases {
		if got := StripQuotes(in); got != want {
			t.Errorf("StripQuotes(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestJoin(t *testing.T) {
	got, err := Join([]string{"create", "my file.tga", "", "'x", `C:\a\b`})
	if err != nil {
		t.Fatal("Join:", err)
	}
	if want := `create "my file.tga" "" "'x" C:\a\b`; got != want {
		t.Fatalf("Join = %q, want %q", got, want)
	}

	if _, err := Join([]string{`has "quote" and space`}); !errors.Is(err, ErrUnjoinable) {
		t.Fatalf("expected ErrUnjoinable, got %v", err)
	}
	if s, err := Join([]string{`no"space`}); err != nil || s != `no"space` {
		t.Fatalf("Join(no\"space) = %q, %v", s, err)
	}
}

// checkIdempotent asserts Tokenize(Join(Tokenize(s))) == Tokenize(s).
func checkIdempotent(t *testing.T, s string) {
	t.Helper()
	first, err := Tokenize(s)
	if err != nil {
		return
	}
	joined, err := Join(first)
	if errors.Is(err, ErrUnjoinable) {
		return
	}
	if err != nil {
		t.Fatalf("Join(%q): %v", first, err)
	}
	second, err := Tokenize(joined)
	if err != nil {
		t.Fatalf("re-tokenize %q (from %q): %v", joined, s, err)
	}
	if len(first) == 0 && len(second) == 0 {
		return
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("not idempotent for %q: %q then %q", s, first, second)
	}
}

func TestTokenizeJoinIdempotent(t *testing.T) {
	alphabet := []string{"a", "Z", "0", "-", "\\", "/", ":", ".", " ", " ", "\t", "\"", "\"", "'", "한", "글", "é"}
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		var b strings.Builder
		n := rng.Intn(24)
		for j := 0; j < n; j++ {
			b.WriteString(alphabet[rng.Intn(len(alphabet))])
		}
		checkIdempotent(t, b.String())
	}
}

func FuzzTokenize(f *testing.F) {
	seeds := []string{
		"",
		"create --format R8G8B8A8_UNORM --zstd 10 input.tga output.ktx2",
		`create "my file.tga" out.ktx2`,
		`create "a.tga b.ktx2`,
		`C:\work\file.tga`,
		`"한글 띄어쓰기.tga"`,
		`'single' "double" mid"quote`,
		`""nested""`,
	}
	for _, s := range seeds {
		f.Add(s)
	}
	f.Fuzz(func(t *testing.T, s string) {
		tokens, err := Tokenize(s)
		if err != nil {
			if tokens != nil {
				t.Fatalf("partial tokens on error: %q", tokens)
			}
			return
		}
		for _, tok := range tokens {
			if len(tok) >= 2 && tok[0] == '"' && tok[len(tok)-1] == '"' {
				t.Fatalf("token %q still wrapped in quotes", tok)
			}
		}
		checkIdempotent(t, s)
	})
}
