package protocol

import (
	"crypto/cipher"
	"dblink/internal/crypto"
	"dblink/internal/crypto/aead"
	"dblink/internal/crypto/random"
	"errors"
	"fmt"
)

// Encrypts and authenticates link packets with a pre-shared key.
// Safe for concurrent use, holds no mutable state after construction.
type Codec struct {
	suite  uint8
	cipher cipher.AEAD
}

// Codec Constructor. Key is zeroed once the cipher is built.
func NewCodec(suiteID uint8, key []byte) (codec *Codec, err error) {
	defer crypto.Memzero(key)

	linkCipher, err := crypto.NewAEAD(suiteID, key)
	if err != nil {
		err = fmt.Errorf("failed to create link cipher: %w", err)
		return
	}

	codec = &Codec{
		suite:  suiteID,
		cipher: linkCipher,
	}
	return
}

// Suite the codec was built with
func (codec *Codec) Suite() uint8 {
	return codec.suite
}

// Builds a wire packet: header | tag | len | ciphertext.
// A fresh random IV is drawn for every call.
func (codec *Codec) Encode(origin Origin, ptype PacketType, seq uint32, plaintext []byte) (wire []byte, err error) {
	if !origin.valid() || !ptype.valid() {
		err = fmt.Errorf("%w: origin %d type %d", ErrInvalidHeader, origin, ptype)
		return
	}
	if len(plaintext) > MaxPayloadSize {
		err = fmt.Errorf("%w: %d > %d bytes", ErrPayloadTooLarge, len(plaintext), MaxPayloadSize)
		return
	}

	header := Header{
		Origin: origin,
		Type:   ptype,
		Seq:    seq,
	}
	err = random.Fill(header.IV[:])
	if err != nil {
		err = fmt.Errorf("failed to generate iv: %w", err)
		return
	}

	wire = make([]byte, PacketSize(len(plaintext)))
	header.put(wire[:HeaderLen])

	// Length byte is encrypted together with the data
	block := make([]byte, LengthLen+len(plaintext))
	block[0] = byte(len(plaintext))
	copy(block[LengthLen:], plaintext)
	defer crypto.Memzero(block)

	tagDst := wire[HeaderLen : HeaderLen+TagLen]
	ctDst := wire[HeaderLen+TagLen:]
	err = aead.SealDetached(codec.cipher, tagDst, ctDst, header.IV[:], block, wire[:HeaderLen])
	if err != nil {
		wire = nil
		err = fmt.Errorf("failed encryption: %w", err)
		return
	}
	return
}

// Verifies and decrypts a wire packet. No plaintext is returned on any failure.
func (codec *Codec) Decode(wire []byte) (packet Packet, err error) {
	if len(wire) < MinPacketSize || len(wire) > MaxPacketSize {
		err = fmt.Errorf("%w: size %d outside [%d,%d]", ErrMalformedPacket, len(wire), MinPacketSize, MaxPacketSize)
		return
	}

	// Header values are only judged once the tag proves they are authentic
	header := readHeader(wire)

	additional := wire[:HeaderLen]
	tag := wire[HeaderLen : HeaderLen+TagLen]
	ciphertext := wire[HeaderLen+TagLen:]

	block, err := aead.OpenDetached(codec.cipher, header.IV[:], tag, ciphertext, additional)
	if err != nil {
		if errors.Is(err, aead.ErrOpen) {
			err = ErrAuthentication
		} else {
			err = fmt.Errorf("%w: %w", ErrAuthentication, err)
		}
		return
	}

	err = header.validate()
	if err != nil {
		crypto.Memzero(block)
		return
	}

	declared := int(block[0])
	if declared > len(block)-LengthLen || declared > MaxPayloadSize {
		crypto.Memzero(block)
		err = fmt.Errorf("%w: declared %d, have %d", ErrMalformedLength, declared, len(block)-LengthLen)
		return
	}

	packet = Packet{
		Header:  header,
		Payload: block[LengthLen : LengthLen+declared],
	}
	return
}
