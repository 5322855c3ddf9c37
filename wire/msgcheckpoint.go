// Copyright (c) 2013-2016 The btcsuite developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	btcwire "github.com/btcsuite/btcd/wire"
)

// CmdCheckpoint is the protocol command string for a synchronized checkpoint
// message.
const CmdCheckpoint = "checkpoint"

// SyncCheckpointVersion is the only unsigned checkpoint payload version this
// package produces.
const SyncCheckpointVersion = 1

const (
	// UnsignedSyncCheckpointSize is the serialized size of an unsigned
	// checkpoint: a 4-byte version followed by the 32-byte block hash.
	UnsignedSyncCheckpointSize = 4 + chainhash.HashSize

	// maxCheckpointPayloadLen is the maximum length of the signed payload
	// accepted from the wire.  Later payload versions may append fields.
	maxCheckpointPayloadLen = 1024

	// maxCheckpointSigLen is the maximum length of a DER encoded signature
	// accepted from the wire.
	maxCheckpointSigLen = 128
)

// UnsignedSyncCheckpoint is the payload signed by the checkpoint authority.
type UnsignedSyncCheckpoint struct {
	Version        int32
	HashCheckpoint chainhash.Hash
}

// Serialize encodes the checkpoint to w using the little-endian layout all
// nodes sign and verify.
func (u *UnsignedSyncCheckpoint) Serialize(w io.Writer) error {
	var buf [UnsignedSyncCheckpointSize]byte
	binary.LittleEndian.PutUint32(buf[:4], uint32(u.Version))
	copy(buf[4:], u.HashCheckpoint[:])
	_, err := w.Write(buf[:])
	return err
}

// Deserialize decodes a checkpoint from r into the receiver.
func (u *UnsignedSyncCheckpoint) Deserialize(r io.Reader) error {
	var buf [UnsignedSyncCheckpointSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return err
	}
	u.Version = int32(binary.LittleEndian.Uint32(buf[:4]))
	copy(u.HashCheckpoint[:], buf[4:])
	return nil
}

// Bytes returns the serialized checkpoint.
func (u *UnsignedSyncCheckpoint) Bytes() []byte {
	var buf bytes.Buffer
	buf.Grow(UnsignedSyncCheckpointSize)
	_ = u.Serialize(&buf)
	return buf.Bytes()
}

// MsgCheckpoint implements the btcd wire.Message interface and represents a
// synchronized checkpoint message.  Payload holds the serialized
// UnsignedSyncCheckpoint exactly as signed, and Signature the DER encoded
// ECDSA signature over the double SHA-256 of Payload.  Both are relayed
// verbatim.
type MsgCheckpoint struct {
	Payload   []byte
	Signature []byte
}

// BtcDecode decodes r using the protocol encoding into the receiver.
// This is part of the Message interface implementation.
func (msg *MsgCheckpoint) BtcDecode(r io.Reader, pver uint32, _ btcwire.MessageEncoding) error {
	payload, err := btcwire.ReadVarBytes(r, pver, maxCheckpointPayloadLen,
		"checkpoint payload")
	if err != nil {
		return err
	}
	sig, err := btcwire.ReadVarBytes(r, pver, maxCheckpointSigLen,
		"checkpoint signature")
	if err != nil {
		return err
	}
	msg.Payload = payload
	msg.Signature = sig
	return nil
}

// BtcEncode encodes the receiver to w using the protocol encoding.
// This is part of the Message interface implementation.
func (msg *MsgCheckpoint) BtcEncode(w io.Writer, pver uint32, _ btcwire.MessageEncoding) error {
	if len(msg.Payload) > maxCheckpointPayloadLen {
		str := fmt.Sprintf("checkpoint payload is too long "+
			"[len %d, max %d]", len(msg.Payload), maxCheckpointPayloadLen)
		return &btcwire.MessageError{Func: "MsgCheckpoint.BtcEncode",
			Description: str}
	}
	if len(msg.Signature) > maxCheckpointSigLen {
		str := fmt.Sprintf("checkpoint signature is too long "+
			"[len %d, max %d]", len(msg.Signature), maxCheckpointSigLen)
		return &btcwire.MessageError{Func: "MsgCheckpoint.BtcEncode",
			Description: str}
	}
	if err := btcwire.WriteVarBytes(w, pver, msg.Payload); err != nil {
		return err
	}
	return btcwire.WriteVarBytes(w, pver, msg.Signature)
}

// Command returns the protocol command string for the message.  This is part
// of the Message interface implementation.
func (msg *MsgCheckpoint) Command() string {
	return CmdCheckpoint
}

// MaxPayloadLength returns the maximum length the payload can be for the
// receiver.  This is part of the Message interface implementation.
func (msg *MsgCheckpoint) MaxPayloadLength(pver uint32) uint32 {
	// Var int prefixes plus payload and signature.
	return uint32(btcwire.MaxVarIntPayload*2 + maxCheckpointPayloadLen +
		maxCheckpointSigLen)
}

// Unsigned decodes the signed payload.  It does not verify the signature.
func (msg *MsgCheckpoint) Unsigned() (*UnsignedSyncCheckpoint, error) {
	var u UnsignedSyncCheckpoint
	if err := u.Deserialize(bytes.NewReader(msg.Payload)); err != nil {
		return nil, &btcwire.MessageError{Func: "MsgCheckpoint.Unsigned",
			Description: fmt.Sprintf("malformed checkpoint payload: %v", err)}
	}
	return &u, nil
}

// PayloadHash returns the double SHA-256 of the signed payload, the digest
// the checkpoint authority signs.
func (msg *MsgCheckpoint) PayloadHash() chainhash.Hash {
	return chainhash.DoubleHashH(msg.Payload)
}

// IsNull returns whether the message carries no checkpoint, either because
// it is empty or because it names the zero hash.
func (msg *MsgCheckpoint) IsNull() bool {
	if msg == nil || len(msg.Payload) == 0 {
		return true
	}
	u, err := msg.Unsigned()
	if err != nil {
		return true
	}
	return u.HashCheckpoint == chainhash.Hash{}
}

// NewMsgCheckpoint returns a new checkpoint message that conforms to the
// Message interface.  See MsgCheckpoint for details.
func NewMsgCheckpoint(payload, sig []byte) *MsgCheckpoint {
	return &MsgCheckpoint{
		Payload:   payload,
		Signature: sig,
	}
}
