package normalize

import (
	"testing"
)

func TestCleanScenario(t *testing.T) {
	got := Clean("barangnya bagusss bgt, recomended!!")
	want := "barangnya bagus banget rekomendasi"
	if got != want {
		t.Errorf("Clean = %q, want %q", got, want)
	}
}

func TestCleanSteps(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercase", "BARANG Bagus", "barang bagus"},
		{"url http", "cek https://toko.id/item?id=1 ya", "cek ya"},
		{"url www", "lihat www.toko.id sekarang", "lihat sekarang"},
		{"elongation", "baguuuus sekaliii", "bagus sekali"},
		{"double kept", "mantapp", "mantap"},
		{"double letters untouched", "keep cool", "keep cool"},
		{"punctuation", "oke...tapi,lama!", "oke tapi lama"},
		{"emoji", "suka 😍😍 banget", "suka banget"},
		{"multiword canonical", "yaudah deh", "ya sudah deh"},
		{"whitespace", "  banyak \t\n spasi  ", "banyak spasi"},
		{"digits", "harga 100000 rb", "harga 10 rb"},
		{"slang chain", "gak recommended", "tidak rekomendasi"},
		{"empty", "", ""},
		{"only symbols", "!!! ??? ...", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Clean(tt.in); got != tt.want {
				t.Errorf("Clean(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestCleanIdempotent(t *testing.T) {
	samples := []string{
		"barangnya bagusss bgt, recomended!!",
		"HTTP://x.y http www wwwx hhhttpx htttp",
		"aaa!aa!a",
		"Ωμέγα ΣΊΣΥΦΟΣ",
		"İstanbul",
		"ok nbsp em",
		"gak ga nggak ngga tdk yaudah okelah",
		"100000 !!! 😡😡😡 __init__",
		"x,https y.www z",
		"",
	}
	for _, s := range samples {
		once := Clean(s)
		twice := Clean(once)
		if once != twice {
			t.Errorf("not idempotent for %q: %q -> %q", s, once, twice)
		}
	}
}

func TestCleanValue(t *testing.T) {
	s := "Bagusss"
	tests := []struct {
		in     any
		want   string
		wantOK bool
	}{
		{"Bagusss", "bagus", true},
		{[]byte("Bagusss"), "bagus", true},
		{&s, "bagus", true},
		{(*string)(nil), "", false},
		{nil, "", false},
		{42, "", false},
		{3.14, "", false},
	}
	for _, tt := range tests {
		got, ok := CleanValue(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CleanValue(%#v) = %q, %v; want %q, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestNilTableDisablesSlang(t *testing.T) {
	n := New(nil)
	if got := n.Clean("gak bgt"); got != "gak bgt" {
		t.Errorf("Clean = %q, want slang untouched", got)
	}
}

func TestCollapseRepeats(t *testing.T) {
	tests := map[string]string{
		"":         "",
		"a":        "a",
		"aa":       "aa",
		"aaa":      "a",
		"aaaabbbc": "abc",
		"ééé":      "é",
	}
	for in, want := range tests {
		if got := collapseRepeats(in); got != want {
			t.Errorf("collapseRepeats(%q) = %q, want %q", in, got, want)
		}
	}
}
