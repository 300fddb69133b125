package usecase

import (
	"testing"
)

func TestNormalizeName(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{
			name:  "lowercases and sorts tokens",
			input: "Tam Yagli Sut",
			want:  "sut tam yagli",
		},
		{
			name:  "word order does not matter",
			input: "Süt 1 Litre",
			want:  "1 litre sut",
		},
		{
			name:  "reversed word order gives identical result",
			input: "1 Litre Süt",
			want:  "1 litre sut",
		},
		{
			name:  "folds Turkish diacritics",
			input: "Çilekli Yoğurt Şekerli",
			want:  "cilekli sekerli yogurt",
		},
		{
			name:  "handles Turkish dotted and dotless I",
			input: "PINAR SÜT IHLAMUR",
			want:  "ihlamur pinar sut",
		},
		{
			name:  "splits digit letter boundaries",
			input: "Ayran 500ml",
			want:  "500 ayran ml",
		},
		{
			name:  "splits multipack quantities",
			input: "Su 2x500ml",
			want:  "2 500 ml su x",
		},
		{
			name:  "standardizes multiplication sign",
			input: "Su 2×500ml",
			want:  "2 500 ml su x",
		},
		{
			name:  "rewrites gr to g",
			input: "Un 500 gr",
			want:  "500 g un",
		},
		{
			name:  "rewrites gr even when glued to the quantity",
			input: "Un 500gr",
			want:  "500 g un",
		},
		{
			name:  "rewrites lt to l",
			input: "Süt 1 lt",
			want:  "1 l sut",
		},
		{
			name:  "rewrites adet to ad",
			input: "Yumurta 10 Adet",
			want:  "10 ad yumurta",
		},
		{
			name:  "rewrites pkt to paket",
			input: "Makarna 3 pkt",
			want:  "3 makarna paket",
		},
		{
			name:  "removes brand suffixes",
			input: "Torku Gıda Çikolata",
			want:  "cikolata torku",
		},
		{
			name:  "removes legal suffixes",
			input: "Acme Ltd Biskuvi",
			want:  "acme biskuvi",
		},
		{
			name:  "strips punctuation",
			input: "Süt, %3.5 Yağlı!",
			want:  "35 sut yagli",
		},
		{
			name:  "collapses repeated whitespace",
			input: "  süt    tam   yağlı  ",
			want:  "sut tam yagli",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeName(tc.input)
			if !ok {
				t.Fatalf("NormalizeName(%q) reported not ok", tc.input)
			}
			if got != tc.want {
				t.Errorf("NormalizeName(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestNormalizeNameRejectsBlankResults(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"whitespace only", "   "},
		{"punctuation only", "!!! ??? ..."},
		{"stop tokens only", "Gıda Market Ltd"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := NormalizeName(tc.input)
			if ok {
				t.Errorf("NormalizeName(%q) = %q, want not ok", tc.input, got)
			}
			if got != "" {
				t.Errorf("NormalizeName(%q) = %q, want empty", tc.input, got)
			}
		})
	}
}

func TestNormalizeNameIsIdempotent(t *testing.T) {
	inputs := []string{
		"Pınar Süt 1 LT",
		"Torku Çikolata 500gr",
		"Su 2×500ml",
	}

	for _, input := range inputs {
		once, ok := NormalizeName(input)
		if !ok {
			t.Fatalf("NormalizeName(%q) reported not ok", input)
		}
		twice, ok := NormalizeName(once)
		if !ok {
			t.Fatalf("NormalizeName(%q) reported not ok on second pass", once)
		}
		if once != twice {
			t.Errorf("not idempotent for %q: first %q, second %q", input, once, twice)
		}
	}
}
