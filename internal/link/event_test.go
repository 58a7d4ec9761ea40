package link

import (
	"bytes"
	"dblink/pkg/protocol"
	"errors"
	"testing"
)

func TestNewEvent(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{"empty", 0, nil},
		{"small", 10, nil},
		{"max payload", protocol.MaxPayloadSize, nil},
		{"too large", protocol.MaxPayloadSize + 1, protocol.ErrPayloadTooLarge},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := bytes.Repeat([]byte{0x5A}, tt.size)
			event, err := NewEvent(protocol.TypeData, data)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			defer event.Release()

			if !bytes.Equal(event.Data, data) {
				t.Errorf("event data does not match input")
			}
			if tt.size > 0 {
				data[0] = 0
				if event.Data[0] != 0x5A {
					t.Errorf("event shares memory with caller buffer")
				}
			}
			if eventSize(event) != tt.size {
				t.Errorf("expected size %d, got %d", tt.size, eventSize(event))
			}
		})
	}
}

func TestEventReleaseTwice(t *testing.T) {
	event, err := NewEvent(protocol.TypeInternalTelemetry, []byte("report"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	event.Release()
	if event.Data != nil {
		t.Errorf("data still referenced after release")
	}
	// Second release must not return the buffer to the pool again
	event.Release()

	var nilEvent *Event
	nilEvent.Release()
}
