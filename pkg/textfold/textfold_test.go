package textfold

import "testing"

func TestFold(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"already folded", "MANOBRA", "MANOBRA"},
		{"lower case", "manobra", "MANOBRA"},
		{"surrounding whitespace", "  Deslocamento \t", "DESLOCAMENTO"},
		{"diacritics", "Refeição", "REFEICAO"},
		{"inner whitespace", "Aguardando   combustível", "AGUARDANDO COMBUSTIVEL"},
		{"cedilla and tilde", "manutenção elétrica", "MANUTENCAO ELETRICA"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Fold(tt.input); got != tt.want {
				t.Errorf("Fold(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestSet(t *testing.T) {
	s := NewSet("Refeição", "banheiro", "")

	if len(s) != 2 {
		t.Fatalf("expected 2 members, got %d", len(s))
	}
	if !s.Has(Fold("REFEICAO")) {
		t.Error("expected REFEICAO to be a member")
	}
	if s.Has("") {
		t.Error("empty label should never be a member")
	}
}

func TestContains(t *testing.T) {
	label := Fold("Final de Expediente")

	if !ContainsAll(label, []string{"expediente"}) {
		t.Error("ContainsAll should match a folded term")
	}
	if ContainsAll(label, []string{"expediente", "inicio"}) {
		t.Error("ContainsAll should require every term")
	}
	if !ContainsAny(label, []string{"fim", "final"}) {
		t.Error("ContainsAny should match one of the terms")
	}
	if ContainsAny(label, nil) {
		t.Error("ContainsAny with no terms should not match")
	}
}
