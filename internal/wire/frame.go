package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
)

const maxFramePart = 64 << 20 // 64 MiB, guards against a corrupt length prefix

func writePart(w io.Writer, part []byte) error {
	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(part)))
	if _, err := w.Write(lenBuf[:]); err != nil {
		return err
	}
	if len(part) == 0 {
		return nil
	}
	_, err := w.Write(part)
	return err
}

func readPart(r io.Reader) ([]byte, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return nil, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	if n > maxFramePart {
		return nil, fmt.Errorf("wire: frame part of %d bytes exceeds maximum %d", n, maxFramePart)
	}
	if n == 0 {
		return []byte{}, nil
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// WriteRPCFrame writes a [routing-identity][payload] frame. routingID
// may be empty (length-0 part) for a dial-side connection that has no
// identity of its own.
func WriteRPCFrame(w io.Writer, routingID []byte, payload []byte) error {
	if err := writePart(w, routingID); err != nil {
		return fmt.Errorf("wire: write rpc frame routing id: %w", err)
	}
	if err := writePart(w, payload); err != nil {
		return fmt.Errorf("wire: write rpc frame payload: %w", err)
	}
	return nil
}

// ReadRPCFrame reads a [routing-identity][payload] frame written by
// WriteRPCFrame.
func ReadRPCFrame(r io.Reader) (routingID []byte, payload []byte, err error) {
	routingID, err = readPart(r)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: read rpc frame routing id: %w", err)
	}
	payload, err = readPart(r)
	if err != nil {
		return nil, nil, fmt.Errorf("wire: read rpc frame payload: %w", err)
	}
	return routingID, payload, nil
}

// WritePubFrame writes a [topic][payload] frame.
func WritePubFrame(w io.Writer, topic string, payload []byte) error {
	if err := writePart(w, []byte(topic)); err != nil {
		return fmt.Errorf("wire: write pub frame topic: %w", err)
	}
	if err := writePart(w, payload); err != nil {
		return fmt.Errorf("wire: write pub frame payload: %w", err)
	}
	return nil
}

// ReadPubFrame reads a [topic][payload] frame written by WritePubFrame.
func ReadPubFrame(r io.Reader) (topic string, payload []byte, err error) {
	topicBytes, err := readPart(r)
	if err != nil {
		return "", nil, fmt.Errorf("wire: read pub frame topic: %w", err)
	}
	payload, err = readPart(r)
	if err != nil {
		return "", nil, fmt.Errorf("wire: read pub frame payload: %w", err)
	}
	return string(topicBytes), payload, nil
}

// NewBufferedReader wraps r for efficient ReadRPCFrame/ReadPubFrame
// use on a net.Conn, buffering reads on a long-lived connection
// instead of issuing one syscall per frame.
func NewBufferedReader(r io.Reader) *bufio.Reader {
	return bufio.NewReaderSize(r, 32*1024)
}
