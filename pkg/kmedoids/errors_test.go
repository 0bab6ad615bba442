package kmedoids

import "testing"

func TestErrorString(t *testing.T) {
	err := invalidArgument("k must be positive, got %d", -1)
	want := "InvalidArgument: k must be positive, got -1"
	if err.Error() != want {
		t.Errorf("Error() = %q, want %q", err.Error(), want)
	}
}

func TestKindString(t *testing.T) {
	cases := map[Kind]string{
		InvalidArgument:    "InvalidArgument",
		InvariantViolation: "InvariantViolation",
		TransportFailure:   "TransportFailure",
		Kind(99):           "Unknown",
	}
	for kind, want := range cases {
		if got := kind.String(); got != want {
			t.Errorf("Kind(%d).String() = %q, want %q", kind, got, want)
		}
	}
}

func TestNewInvalidArgumentAndTransportFailure(t *testing.T) {
	ia := NewInvalidArgument("bad value %d", 5)
	if ia.Kind != InvalidArgument {
		t.Errorf("expected InvalidArgument kind, got %v", ia.Kind)
	}
	tf := NewTransportFailure("connection lost to rank %d", 2)
	if tf.Kind != TransportFailure {
		t.Errorf("expected TransportFailure kind, got %v", tf.Kind)
	}
}
