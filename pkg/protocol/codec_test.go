package protocol

import (
	"bytes"
	"dblink/internal/crypto"
	"errors"
	"testing"
)

func testKey() []byte {
	key := make([]byte, crypto.KeySize)
	for i := range key {
		key[i] = byte(i*7 + 3)
	}
	return key
}

func newTestCodec(t *testing.T, suite uint8) (codec *Codec) {
	t.Helper()
	codec, err := NewCodec(suite, testKey())
	if err != nil {
		t.Fatalf("unexpected error creating codec: %v", err)
	}
	return
}

func TestCodecSuite(t *testing.T) {
	for _, suite := range []uint8{crypto.SuiteAES256GCM, crypto.SuiteChaCha20Poly1305} {
		if got := newTestCodec(t, suite).Suite(); got != suite {
			t.Errorf("expected suite %d, got %d", suite, got)
		}
	}
}

func TestSizeConstants(t *testing.T) {
	if HeaderLen != 18 {
		t.Fatalf("expected header length 18, got %d", HeaderLen)
	}
	if MaxPayloadSize != 215 {
		t.Fatalf("expected max payload 215, got %d", MaxPayloadSize)
	}
	if PacketSize(MaxPayloadSize) != MaxPacketSize {
		t.Fatalf("expected full packet to be %d bytes, got %d", MaxPacketSize, PacketSize(MaxPayloadSize))
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		origin    Origin
		ptype     PacketType
		seq       uint32
		plaintext []byte
	}{
		{"ground data", OriginGround, TypeData, 1, []byte("mavlink heartbeat")},
		{"air data max", OriginAir, TypeData, 0xFFFFFFFF, bytes.Repeat([]byte{0x5A}, MaxPayloadSize)},
		{"telemetry", OriginGround, TypeInternalTelemetry, 42, []byte{1, 0xA1, 0xD8, 100, 0, 2, 0, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA, 0xAA}},
		{"empty payload", OriginAir, TypeData, 7, []byte{}},
		{"single byte", OriginGround, TypeData, 0, []byte{0x00}},
	}

	for _, suite := range []uint8{crypto.SuiteAES256GCM, crypto.SuiteChaCha20Poly1305} {
		codec := newTestCodec(t, suite)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				wire, err := codec.Encode(tt.origin, tt.ptype, tt.seq, tt.plaintext)
				if err != nil {
					t.Fatalf("unexpected encode error: %v", err)
				}
				if len(wire) != PacketSize(len(tt.plaintext)) {
					t.Fatalf("expected wire length %d, got %d", PacketSize(len(tt.plaintext)), len(wire))
				}

				packet, err := codec.Decode(wire)
				if err != nil {
					t.Fatalf("unexpected decode error: %v", err)
				}
				if packet.Header.Origin != tt.origin || packet.Header.Type != tt.ptype || packet.Header.Seq != tt.seq {
					t.Fatalf("expected header (%v,%v,%d), got (%v,%v,%d)",
						tt.origin, tt.ptype, tt.seq, packet.Header.Origin, packet.Header.Type, packet.Header.Seq)
				}
				if !bytes.Equal(packet.Payload, tt.plaintext) {
					t.Fatalf("expected payload %x, got %x", tt.plaintext, packet.Payload)
				}
			})
		}
	}
}

func TestDecodeSingleByteFlip(t *testing.T) {
	codec := newTestCodec(t, crypto.SuiteAES256GCM)
	wire, err := codec.Encode(OriginAir, TypeData, 1234, []byte("position report"))
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	// 0x02 and 0x80 push origin and type out of their valid range
	for _, mask := range []byte{0x01, 0x02, 0x80} {
		for i := range wire {
			mutated := append([]byte(nil), wire...)
			mutated[i] ^= mask

			packet, err := codec.Decode(mutated)
			if err == nil {
				t.Fatalf("byte %d ^%#x: expected decode failure", i, mask)
			}
			if !errors.Is(err, ErrAuthentication) {
				t.Fatalf("byte %d ^%#x: expected authentication error, got %v", i, mask, err)
			}
			if packet.Payload != nil {
				t.Fatalf("byte %d ^%#x: plaintext exposed on failure", i, mask)
			}
		}
	}
}

func TestDecodeOriginTypeFlipFailsAuth(t *testing.T) {
	codec := newTestCodec(t, crypto.SuiteAES256GCM)
	wire, err := codec.Encode(OriginGround, TypeData, 9, []byte("x"))
	if err != nil {
		t.Fatalf("unexpected encode error: %v", err)
	}

	// Flip ground->air and data->telemetry, both still valid header values
	for _, idx := range []int{0, 1} {
		mutated := append([]byte(nil), wire...)
		mutated[idx] ^= 0x01
		_, err = codec.Decode(mutated)
		if !errors.Is(err, ErrAuthentication) {
			t.Fatalf("byte %d: expected authentication error, got %v", idx, err)
		}
	}
}

func TestDecodeWrongKey(t *testing.T) {
	codec := newTestCodec(t, crypto.SuiteAES256GCM)
	other, err := NewCodec(crypto.SuiteAES256GCM, bytes.Repeat([]byte{0x99}, crypto.KeySize))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	wire, _ := codec.Encode(OriginGround, TypeData, 1, []byte("hello"))
	_, err = other.Decode(wire)
	if !errors.Is(err, ErrAuthentication) {
		t.Fatalf("expected authentication error, got %v", err)
	}
}

func TestEncodeValidation(t *testing.T) {
	codec := newTestCodec(t, crypto.SuiteAES256GCM)
	tests := []struct {
		name      string
		origin    Origin
		ptype     PacketType
		plaintext []byte
		expected  error
	}{
		{"oversize", OriginGround, TypeData, make([]byte, MaxPayloadSize+1), ErrPayloadTooLarge},
		{"bad origin", Origin(2), TypeData, []byte("x"), ErrInvalidHeader},
		{"bad type", OriginAir, PacketType(7), []byte("x"), ErrInvalidHeader},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			wire, err := codec.Encode(tt.origin, tt.ptype, 0, tt.plaintext)
			if !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}
			if wire != nil {
				t.Fatalf("expected no wire output on error")
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	codec := newTestCodec(t, crypto.SuiteAES256GCM)
	tests := []struct {
		name     string
		wire     []byte
		expected error
	}{
		{"nil", nil, ErrMalformedPacket},
		{"header only", make([]byte, HeaderLen), ErrMalformedPacket},
		{"missing length byte", make([]byte, HeaderLen+TagLen), ErrMalformedPacket},
		{"oversize", make([]byte, MaxPacketSize+1), ErrMalformedPacket},
		{"unauthenticated bad origin", append([]byte{9}, make([]byte, MinPacketSize)...), ErrAuthentication},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.Decode(tt.wire)
			if !errors.Is(err, tt.expected) {
				t.Fatalf("expected %v, got %v", tt.expected, err)
			}
		})
	}
}

func TestDecodeAuthenticBadOrigin(t *testing.T) {
	codec := newTestCodec(t, crypto.SuiteAES256GCM)

	// Sealed with the link key, so only the range check can reject it
	wire := make([]byte, PacketSize(1))
	wire[0] = 5
	copy(wire[headerFixedLen:HeaderLen], "forged-iv-12")
	block := []byte{1, 'z'}
	sealed := codec.cipher.Seal(nil, wire[headerFixedLen:HeaderLen], block, wire[:HeaderLen])
	copy(wire[HeaderLen:HeaderLen+TagLen], sealed[len(block):])
	copy(wire[HeaderLen+TagLen:], sealed[:len(block)])

	packet, err := codec.Decode(wire)
	if !errors.Is(err, ErrInvalidHeader) {
		t.Fatalf("expected invalid header error, got %v", err)
	}
	if packet.Payload != nil {
		t.Fatalf("plaintext exposed on failure")
	}
}

func TestDecodeDeclaredLengthTooLarge(t *testing.T) {
	codec := newTestCodec(t, crypto.SuiteAES256GCM)

	// Forge an authentic packet whose inner length byte overstates the data
	header := Header{Origin: OriginAir, Type: TypeData, Seq: 3}
	copy(header.IV[:], "forged-iv-12")
	wire := make([]byte, PacketSize(4))
	header.put(wire[:HeaderLen])

	block := []byte{200, 'a', 'b', 'c', 'd'}
	sealed := codec.cipher.Seal(nil, header.IV[:], block, wire[:HeaderLen])
	copy(wire[HeaderLen:HeaderLen+TagLen], sealed[len(block):])
	copy(wire[HeaderLen+TagLen:], sealed[:len(block)])

	packet, err := codec.Decode(wire)
	if !errors.Is(err, ErrMalformedLength) {
		t.Fatalf("expected malformed length error, got %v", err)
	}
	if packet.Payload != nil {
		t.Fatalf("plaintext exposed on failure")
	}
}

func TestEncodeNonDeterministic(t *testing.T) {
	codec := newTestCodec(t, crypto.SuiteAES256GCM)
	plaintext := []byte("same bytes every time")

	first, err := codec.Encode(OriginGround, TypeData, 5, plaintext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := codec.Encode(OriginGround, TypeData, 5, plaintext)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	h1, _ := ParseHeader(first)
	h2, _ := ParseHeader(second)
	if h1.IV == h2.IV {
		t.Fatalf("expected distinct IVs")
	}
	if bytes.Equal(first[HeaderLen+TagLen:], second[HeaderLen+TagLen:]) {
		t.Fatalf("expected distinct ciphertexts")
	}
}

func TestNewCodecZeroesKey(t *testing.T) {
	key := testKey()
	_, err := NewCodec(crypto.SuiteChaCha20Poly1305, key)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, b := range key {
		if b != 0 {
			t.Fatalf("expected key byte %d to be zeroed, got %d", i, b)
		}
	}

	_, err = NewCodec(crypto.SuiteAES256GCM, []byte("short"))
	if err == nil {
		t.Fatalf("expected error for short key")
	}
}
