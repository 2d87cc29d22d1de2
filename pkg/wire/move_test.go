package wire

import "testing"

func TestParseMove(t *testing.T) {
	cases := []struct {
		raw     string
		want    Move
		wantErr bool
	}{
		{raw: "e2e4", want: Move{From: "e2", To: "e4"}},
		{raw: "E7E8Q", want: Move{From: "e7", To: "e8", Promotion: "q"}},
		{raw: " a7a8r ", want: Move{From: "a7", To: "a8", Promotion: "r"}},
		{raw: "e2e9", wantErr: true},
		{raw: "i2e4", wantErr: true},
		{raw: "e2e4k", wantErr: true},
		{raw: "e2", wantErr: true},
		{raw: "", wantErr: true},
	}
	for _, tc := range cases {
		mv, err := ParseMove(tc.raw)
		if tc.wantErr {
			if err == nil {
				t.Errorf("ParseMove(%q): expected error, got %+v", tc.raw, mv)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseMove(%q): %v", tc.raw, err)
			continue
		}
		if mv != tc.want {
			t.Errorf("ParseMove(%q) = %+v, want %+v", tc.raw, mv, tc.want)
		}
	}
}

func TestMoveUCIRoundTrip(t *testing.T) {
	mv, err := ParseMove("e7e8q")
	if err != nil {
		t.Fatalf("ParseMove: %v", err)
	}
	if mv.UCI() != "e7e8q" {
		t.Fatalf("UCI() = %q, want e7e8q", mv.UCI())
	}
	plain := Move{From: "e7", To: "e8"}
	if got := plain.WithPromotion("R").UCI(); got != "e7e8r" {
		t.Fatalf("WithPromotion UCI = %q, want e7e8r", got)
	}
}

func TestEnvelopeRoundTrip(t *testing.T) {
	env, err := NewEnvelope(TypeSubmitMove, SubmitMove{Move: "e2e4"})
	if err != nil {
		t.Fatalf("NewEnvelope: %v", err)
	}
	var payload SubmitMove
	if err := env.Decode(&payload); err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if payload.Move != "e2e4" {
		t.Fatalf("payload move = %q", payload.Move)
	}
}
