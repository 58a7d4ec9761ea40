package protocol

import (
	"errors"
	"testing"
)

func TestHeaderLayout(t *testing.T) {
	header := Header{Origin: OriginAir, Type: TypeInternalTelemetry, Seq: 0x01020304}
	for i := range header.IV {
		header.IV[i] = byte(0xB0 + i)
	}

	data, err := header.MarshalBinary()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	expected := []byte{1, 1, 0x04, 0x03, 0x02, 0x01,
		0xB0, 0xB1, 0xB2, 0xB3, 0xB4, 0xB5, 0xB6, 0xB7, 0xB8, 0xB9, 0xBA, 0xBB}
	if string(data) != string(expected) {
		t.Fatalf("expected %x, got %x", expected, data)
	}

	parsed, err := ParseHeader(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if parsed != header {
		t.Fatalf("expected %+v, got %+v", header, parsed)
	}
}

func TestHeaderInvalid(t *testing.T) {
	_, err := Header{Origin: 3}.MarshalBinary()
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected invalid header, got %v", err)
	}
	_, err = ParseHeader([]byte{0, 1, 2})
	if !errors.Is(err, ErrMalformedPacket) {
		t.Fatalf("expected malformed packet, got %v", err)
	}
	bad := make([]byte, HeaderLen)
	bad[1] = 5
	_, err = ParseHeader(bad)
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected invalid header, got %v", err)
	}
}

func TestParseMAC(t *testing.T) {
	mac, err := ParseMAC("aa:bb:cc:dd:ee:ff")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if mac.String() != "aa:bb:cc:dd:ee:ff" {
		t.Fatalf("expected aa:bb:cc:dd:ee:ff, got %s", mac)
	}
	_, err = ParseMAC("00:00:5e:00:53:01:02:03")
	if err == nil {
		t.Fatalf("expected error for 8 byte address")
	}
}
