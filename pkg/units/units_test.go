package units

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseServiceDays(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    []int
		wantErr bool
	}{
		{name: "indices", in: "0,3", want: []int{0, 3}},
		{name: "aliases", in: "dom, quinta", want: []int{0, 4}},
		{name: "duplicates dropped", in: "0,dom,0", want: []int{0}},
		{name: "empty", in: "", want: []int{}},
		{name: "out of range", in: "7", wantErr: true},
		{name: "unknown alias", in: "feriado", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseServiceDays(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseServiceDays(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(got) != len(tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, got)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("expected %v, got %v", tt.want, got)
				}
			}
		})
	}
}

func TestParseUnitsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.json")
	content := `{"units":[
		{"id":"1","name":" Boa Vista ","service_days":"dom,qua","pastor_phone":"5511999999999"},
		{"id":"2","name":"Abacatão","service_days":"0,4"}
	]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	got, err := ParseUnitsJSON(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 units, got %d", len(got))
	}
	if got[0].Name != "Boa Vista" || len(got[0].ServiceDays) != 2 || got[0].ServiceDays[1] != 3 {
		t.Fatalf("unexpected first unit %+v", got[0])
	}

	u, ok := FindByID(got, "2")
	if !ok || u.Name != "Abacatão" {
		t.Fatalf("expected to find unit 2, got %+v", u)
	}
}

func TestParseUnitsJSON_DuplicatedID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "units.json")
	content := `{"units":[{"id":"1","name":"A","service_days":"0"},{"id":"1","name":"B","service_days":"3"}]}`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := ParseUnitsJSON(path); err == nil {
		t.Fatal("expected duplicated id error")
	}
}
