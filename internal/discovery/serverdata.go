// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package discovery

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// serverDataVersion is the ServerData layout this package writes.
const serverDataVersion = 2

// ServerData describes a LAN world advertised in a discovery response.
type ServerData struct {
	Version        uint8
	ServerName     string
	LevelName      string
	GameType       int32
	PlayerCount    int32
	MaxPlayerCount int32
	EditorWorld    bool
	Hardcore       bool
	TransportLayer int32
}

// MarshalBinary encodes the server data.
func (d ServerData) MarshalBinary() ([]byte, error) {
	if len(d.ServerName) > 0xff || len(d.LevelName) > 0xff {
		return nil, fmt.Errorf("%w: server or level name longer than 255 bytes", ErrMalformed)
	}
	version := d.Version
	if version == 0 {
		version = serverDataVersion
	}

	var buf bytes.Buffer
	buf.WriteByte(version)
	buf.WriteByte(byte(len(d.ServerName)))
	buf.WriteString(d.ServerName)
	buf.WriteByte(byte(len(d.LevelName)))
	buf.WriteString(d.LevelName)
	for _, v := range []int32{d.GameType, d.PlayerCount, d.MaxPlayerCount} {
		_ = binary.Write(&buf, binary.LittleEndian, v)
	}
	buf.WriteByte(boolByte(d.EditorWorld))
	buf.WriteByte(boolByte(d.Hardcore))
	_ = binary.Write(&buf, binary.LittleEndian, d.TransportLayer)
	return buf.Bytes(), nil
}

// UnmarshalBinary decodes server data.
func (d *ServerData) UnmarshalBinary(data []byte) error {
	r := bytes.NewReader(data)
	fail := func(field string) error {
		return fmt.Errorf("%w: server data %s", ErrMalformed, field)
	}

	var err error
	if d.Version, err = r.ReadByte(); err != nil {
		return fail("version")
	}
	if d.ServerName, err = readString8(r); err != nil {
		return fail("server name")
	}
	if d.LevelName, err = readString8(r); err != nil {
		return fail("level name")
	}
	for _, dst := range []*int32{&d.GameType, &d.PlayerCount, &d.MaxPlayerCount} {
		if err := binary.Read(r, binary.LittleEndian, dst); err != nil {
			return fail("counters")
		}
	}
	editor, err := r.ReadByte()
	if err != nil {
		return fail("editor flag")
	}
	hardcore, err := r.ReadByte()
	if err != nil {
		return fail("hardcore flag")
	}
	d.EditorWorld, d.Hardcore = editor != 0, hardcore != 0
	if err := binary.Read(r, binary.LittleEndian, &d.TransportLayer); err != nil {
		return fail("transport layer")
	}
	return nil
}

func readString8(r *bytes.Reader) (string, error) {
	n, err := r.ReadByte()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func boolByte(b bool) byte {
	if b {
		return 1
	}
	return 0
}
