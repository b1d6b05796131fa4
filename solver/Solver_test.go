package solver

import (
	"encoding/json"
	"testing"
)

func TestSolverJSON(t *testing.T) {
	adam, err := NewDefaultAdam(1e-4)
	if err != nil {
		t.Fatal(err)
	}
	rms, err := NewDefaultRMSProp(2.5e-4)
	if err != nil {
		t.Fatal(err)
	}
	vanilla, err := NewVanilla(0.01, 1.0)
	if err != nil {
		t.Fatal(err)
	}

	for _, s := range []*Solver{adam, rms, vanilla} {
		data, err := json.Marshal(s)
		if err != nil {
			t.Fatalf("%v: %v", s.Type, err)
		}

		var decoded Solver
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("%v: %v", s.Type, err)
		}
		if decoded.Type != s.Type {
			t.Errorf("type want(%v) have(%v)", s.Type, decoded.Type)
		}
		if decoded.Config != s.Config {
			t.Errorf("config want(%+v) have(%+v)", s.Config, decoded.Config)
		}
		if decoded.Solver == nil {
			t.Errorf("%v: gorgonia solver not created", s.Type)
		}
	}
}

func TestWithClip(t *testing.T) {
	adam, err := NewDefaultAdam(1e-4)
	if err != nil {
		t.Fatal(err)
	}

	clipped := adam.WithClip(1.0)
	if clipped.Config.(AdamConfig).Clip != 1.0 {
		t.Errorf("clip want(1) have(%v)", clipped.Config.(AdamConfig).Clip)
	}
	if adam.Config.(AdamConfig).Clip > 0 {
		t.Error("original solver was modified")
	}
}

func TestUnmarshalUnknownType(t *testing.T) {
	var s Solver
	err := json.Unmarshal([]byte(`{"Type":"Nesterov","Config":{}}`), &s)
	if err == nil {
		t.Error("expected error for unknown solver type")
	}
}
