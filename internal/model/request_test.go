package model

import (
	"errors"
	"testing"
)

func TestRequestValidate(t *testing.T) {
	tests := []struct {
		name    string
		request Request
		wantErr bool
	}{
		{"reserve", Request{Action: ActionReserve, Floor: "2ndFloor", Room: 5}, false},
		{"nine character action", Request{Action: "abcdefghi", Floor: "1stFloor"}, false},
		{"empty fields", Request{}, false},
		{"overlong action", Request{Action: "cancelroom", Floor: "1stFloor"}, true},
		{"overlong floor", Request{Action: ActionShow, Floor: "1stFloorXY"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.request.Validate()
			if tt.wantErr {
				if !errors.Is(err, ErrFieldTooLong) {
					t.Fatalf("Validate() = %v, want ErrFieldTooLong", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Validate() = %v, want nil", err)
			}
		})
	}
}

func TestDefaultFloorsIsACopy(t *testing.T) {
	first := DefaultFloors()
	first[0] = "changed"
	if got := DefaultFloors()[0]; got != "1stFloor" {
		t.Fatalf("DefaultFloors()[0] = %q after mutating a previous result", got)
	}
	if len(first) != 7 {
		t.Fatalf("len(DefaultFloors()) = %d, want 7", len(first))
	}
}
